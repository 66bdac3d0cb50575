package etl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// ScriptRequest - параметры выполнения SQL-файла
type ScriptRequest struct {
	FromFile string
	Params   map[string]string
}

// ParseParams разбирает "k1=v1,k2=v2" в словарь
// Значение может содержать '='; пустая строка дает пустой словарь
func ParseParams(s string) (map[string]string, error) {
	params := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", part)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}

// SplitStatements режет текст по ';' и отбрасывает пустые куски
// ';' внутри строковых литералов тоже считается разделителем
func SplitStatements(text string) []string {
	var out []string
	for _, piece := range strings.Split(text, ";") {
		if s := strings.TrimSpace(piece); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Substitute подставляет {name}; "{{" и "}}" дают одиночные скобки
func Substitute(stmt string, params map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(stmt))

	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		switch {
		case c == '{' && i+1 < len(stmt) && stmt[i+1] == '{':
			b.WriteByte('{')
			i++

		case c == '{':
			end := strings.IndexByte(stmt[i+1:], '}')
			if end < 0 {
				return "", failure.New(failure.MissingParameter,
					"unterminated placeholder at offset %d", i)
			}
			name := strings.TrimSpace(stmt[i+1 : i+1+end])
			value, ok := params[name]
			if !ok {
				return "", failure.New(failure.MissingParameter,
					"parameter {%s} is not supplied (have: %s)", name, strings.Join(paramNames(params), ","))
			}
			b.WriteString(value)
			i += end + 1

		case c == '}' && i+1 < len(stmt) && stmt[i+1] == '}':
			b.WriteByte('}')
			i++

		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func paramNames(params map[string]string) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ExecuteScript выполняет операторы файла по одному, фиксируя каждый
// Все подстановки проверяются до выполнения первого оператора
func (e *Engine) ExecuteScript(ctx context.Context, req ScriptRequest) (Result, error) {
	return e.run(OpScript, func(res *Result) error {
		text, err := readScript(req.FromFile)
		if err != nil {
			return err
		}

		pieces := SplitStatements(text)
		statements := make([]string, len(pieces))
		for i, piece := range pieces {
			stmt, err := Substitute(piece, req.Params)
			if err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
			statements[i] = stmt
		}

		e.track(OpScript, int64(len(statements)))
		for _, stmt := range statements {
			if err := e.runStatement(ctx, res, stmt); err != nil {
				return err
			}
			res.Statements++
			res.Chunks++
			e.advance(Progress{RowsProcessed: res.Statements, ChunkIndex: res.Chunks})
		}
		return nil
	})
}

// runStatement выполняет один оператор, пишет его результат в журнал и фиксирует
func (e *Engine) runStatement(ctx context.Context, res *Result, stmt string) error {
	e.logger.Info("execute", "sql", stmt)
	start := time.Now()

	cur, err := e.conn.Query(ctx, executable(stmt))
	if err != nil {
		return err
	}

	if len(cur.Columns()) > 0 {
		// маркеры пишутся только когда есть хотя бы одна строка результата
		rows, err := cur.Fetch(e.opts.ChunkSize)
		if err != nil {
			cur.Close()
			return err
		}
		if len(rows) > 0 {
			e.logger.Info("------------result--------------")
			e.logger.Info(strings.Join(cur.Columns(), e.opts.Separator))
			for len(rows) > 0 {
				for _, row := range rows {
					e.logger.Info(formatRow(row, e.opts.Separator))
				}
				res.Rows += int64(len(rows))
				if rows, err = cur.Fetch(e.opts.ChunkSize); err != nil {
					cur.Close()
					return err
				}
			}
			e.logger.Info("------------end--------------")
		}
	}

	if err := cur.Close(); err != nil {
		return fmt.Errorf("failed to close result: %w", err)
	}
	if err := e.commit(ctx, res); err != nil {
		return err
	}

	e.logger.Info("success! spend time", "seconds", roundSeconds(time.Since(start)))
	return nil
}

func formatRow(row tabular.Row, sep string) string {
	parts := make([]string, len(row))
	for i, c := range row {
		if c.Null {
			parts[i] = "NULL"
		} else {
			parts[i] = c.Text
		}
	}
	return strings.Join(parts, sep)
}

func readScript(path string) (string, error) {
	f, err := tabular.OpenText(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
