// Package dsn разбирает строку подключения вида
//
//	scheme://[user[:password]]@[host][:port]/[database][?k=v&...]
//
// Пароль не экранируется, поэтому разделителем учетных данных и хоста
// считается последний символ '@'. IPv6 хост записывается в квадратных скобках.
package dsn

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ruslano69/easyjob/pkg/core/failure"
)

// Target - разобранная строка подключения
// Отсутствующие части остаются пустыми (Port == 0)
type Target struct {
	Scheme   string
	Username string
	Password string
	Host     string
	Port     int
	Database string

	// Params - параметры драйвера из хвоста ?k=v
	Params map[string]string
}

var schemeRe = regexp.MustCompile(`^[\w+]+$`)

// Parse разбирает URI. Без "://" возвращает ошибку MalformedAddress
func Parse(uri string) (Target, error) {
	var t Target

	idx := strings.Index(uri, "://")
	if idx <= 0 {
		return t, failure.New(failure.MalformedAddress, "missing scheme separator '://' in %q", redact(uri))
	}

	t.Scheme = uri[:idx]
	if !schemeRe.MatchString(t.Scheme) {
		return t, failure.New(failure.MalformedAddress, "invalid scheme %q", t.Scheme)
	}
	rest := uri[idx+3:]

	// Параметры отрезаются до поиска '@': в их значениях '@' допустим
	rest, query, hasQuery := strings.Cut(rest, "?")

	if at := credentialsEnd(rest); at >= 0 {
		creds := rest[:at]
		rest = rest[at+1:]
		if colon := strings.Index(creds, ":"); colon >= 0 {
			t.Username = creds[:colon]
			t.Password = creds[colon+1:]
		} else {
			t.Username = creds
		}
	}
	if hasQuery {
		rest += "?" + query
	}

	hostPort := rest
	if slash := strings.Index(rest, "/"); slash >= 0 {
		hostPort = rest[:slash]
		if err := t.parseDatabase(rest[slash+1:]); err != nil {
			return t, err
		}
	}

	if err := t.parseHostPort(hostPort); err != nil {
		return t, err
	}

	return t, nil
}

// credentialsEnd возвращает позицию '@', отделяющего учетные данные, или -1
// Берется последний '@', после которого начинается адрес: пароль может
// содержать '/' и '@', но тогда база после адреса тоже отделена '/'
func credentialsEnd(s string) int {
	for at := strings.LastIndex(s, "@"); at >= 0; at = strings.LastIndex(s[:at], "@") {
		if !strings.Contains(s[:at], "/") || strings.Contains(s[at+1:], "/") {
			return at
		}
	}
	return -1
}

func (t *Target) parseHostPort(s string) error {
	var port string

	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return failure.New(failure.MalformedAddress, "unterminated IPv6 host in %q", s)
		}
		t.Host = s[1:end]
		tail := s[end+1:]
		if tail != "" {
			if !strings.HasPrefix(tail, ":") {
				return failure.New(failure.MalformedAddress, "unexpected %q after IPv6 host", tail)
			}
			port = tail[1:]
		}
	} else if colon := strings.Index(s, ":"); colon >= 0 {
		t.Host = s[:colon]
		port = s[colon+1:]
	} else {
		t.Host = s
	}

	if port == "" {
		return nil
	}

	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return failure.New(failure.MalformedAddress, "invalid port %q", port)
	}
	t.Port = n
	return nil
}

func (t *Target) parseDatabase(s string) error {
	db, query, found := strings.Cut(s, "?")
	t.Database = db
	if !found || query == "" {
		return nil
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return failure.Wrap(failure.MalformedAddress, err, "invalid parameters %q", query)
	}

	t.Params = make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			t.Params[k] = v[len(v)-1]
		}
	}
	return nil
}

// Driver возвращает базовое имя драйвера: "mysql+pymysql" -> "mysql"
func (t Target) Driver() string {
	name, _, _ := strings.Cut(t.Scheme, "+")
	return strings.ToLower(name)
}

// Addr возвращает host:port с подстановкой значений по умолчанию
func (t Target) Addr(defaultHost string, defaultPort int) string {
	host := t.Host
	if host == "" {
		host = defaultHost
	}
	port := t.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// String возвращает URI без пароля (для логов)
func (t Target) String() string {
	var b strings.Builder
	b.WriteString(t.Scheme)
	b.WriteString("://")
	if t.Username != "" || t.Password != "" {
		b.WriteString(t.Username)
		if t.Password != "" {
			b.WriteString(":***")
		}
		b.WriteString("@")
	}
	if strings.Contains(t.Host, ":") {
		b.WriteString("[" + t.Host + "]")
	} else {
		b.WriteString(t.Host)
	}
	if t.Port != 0 {
		b.WriteString(":" + strconv.Itoa(t.Port))
	}
	b.WriteString("/")
	b.WriteString(t.Database)
	return b.String()
}

// redact прячет пароль в исходной строке для сообщения об ошибке
func redact(uri string) string {
	start := 0
	if i := strings.Index(uri, "://"); i >= 0 {
		start = i + 3
	}
	at := strings.LastIndex(uri, "@")
	if at < start {
		return uri
	}
	colon := strings.Index(uri[start:at], ":")
	if colon < 0 {
		return uri
	}
	return uri[:start+colon+1] + "***" + uri[at:]
}
