package mysql

import (
	"context"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/ruslano69/easyjob/pkg/adapters"
	"github.com/ruslano69/easyjob/pkg/adapters/base"
)

// AdapterType идентификатор MySQL адаптера
const AdapterType = "mysql"

// Адрес сервера, если в URI его нет
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 3306
)

// Adapter реализует adapters.Adapter для MySQL
type Adapter struct {
	*base.Session
	config adapters.Config
}

func init() {
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// BuildDSN собирает DSN go-sql-driver из конфигурации подключения
func BuildDSN(cfg adapters.Config) string {
	cfg = cfg.WithDefaults()
	t := cfg.Target

	mc := mysqldriver.NewConfig()
	mc.User = t.Username
	mc.Passwd = t.Password
	mc.Net = "tcp"
	mc.Addr = t.Addr(DefaultHost, DefaultPort)
	mc.DBName = t.Database
	mc.Timeout = cfg.DialTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout

	mc.Params = map[string]string{"charset": cfg.Charset}
	for k, v := range t.Params {
		mc.Params[k] = v
	}

	return mc.FormatDSN()
}

// Connect открывает одно соединение с MySQL
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	sess, err := base.Open(ctx, "mysql", BuildDSN(cfg))
	if err != nil {
		return err
	}
	sess.SetErrorMapper(mapError)

	a.Session = sess
	a.config = cfg
	return nil
}

// Close закрывает соединение
func (a *Adapter) Close(ctx context.Context) error {
	if a.Session == nil {
		return nil
	}
	return a.Session.Close(ctx)
}

// GetDatabaseType возвращает тип адаптера
func (a *Adapter) GetDatabaseType() string {
	return AdapterType
}

// GetDatabaseVersion возвращает версию MySQL
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	var version string
	if err := a.QueryRow(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}
