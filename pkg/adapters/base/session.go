package base

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ruslano69/easyjob/pkg/adapters"
	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// ErrorMapper переводит ошибку драйвера в вид ядра
// Адаптер СУБД подставляет свой маппер (коды ошибок MySQL и т.п.)
type ErrorMapper func(op, stmt string, err error) error

// Session - одно закрепленное соединение database/sql с ленивой транзакцией
// Первый оператор после Commit открывает транзакцию, Commit ее фиксирует
type Session struct {
	db     *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	mapErr ErrorMapper
}

// Open открывает пул из одного соединения и закрепляет это соединение
func Open(ctx context.Context, driverName, dataSource string) (*Session, error) {
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, failure.Wrap(failure.DatabaseOperationFailed, err, "failed to open database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, failure.Wrap(failure.DatabaseOperationFailed, err, "failed to acquire connection")
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, failure.Wrap(failure.DatabaseOperationFailed, err, "failed to ping database")
	}

	return &Session{db: db, conn: conn, mapErr: DefaultErrorMapper}, nil
}

// SetErrorMapper заменяет маппер ошибок драйвера
func (s *Session) SetErrorMapper(m ErrorMapper) {
	if m != nil {
		s.mapErr = m
	}
}

// DefaultErrorMapper оборачивает любую ошибку в DatabaseOperationFailed
func DefaultErrorMapper(op, stmt string, err error) error {
	if stmt == "" {
		return failure.Wrap(failure.DatabaseOperationFailed, err, "%s failed", op)
	}
	return failure.Wrap(failure.DatabaseOperationFailed, err, "%s failed: %s", op, Shorten(stmt))
}

func (s *Session) begin(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return s.mapErr("begin", "", err)
	}
	s.tx = tx
	return nil
}

// Exec выполняет оператор в текущей транзакции
func (s *Session) Exec(ctx context.Context, stmt string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
		return s.mapErr("exec", stmt, err)
	}
	return nil
}

// Query выполняет оператор в текущей транзакции и возвращает курсор
func (s *Session) Query(ctx context.Context, stmt string) (adapters.Cursor, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	rows, err := s.tx.QueryContext(ctx, stmt)
	if err != nil {
		return nil, s.mapErr("query", stmt, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, s.mapErr("query", stmt, err)
	}
	return &Cursor{rows: rows, columns: cols, stmt: stmt, mapErr: s.mapErr}, nil
}

// QueryRow выполняет служебный запрос с параметрами (каталог, версия)
func (s *Session) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if s.tx != nil {
		return s.tx.QueryRowContext(ctx, query, args...)
	}
	return s.conn.QueryRowContext(ctx, query, args...)
}

// QueryArgs выполняет служебный запрос с параметрами и возвращает *sql.Rows
func (s *Session) QueryArgs(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.tx != nil {
		return s.tx.QueryContext(ctx, query, args...)
	}
	return s.conn.QueryContext(ctx, query, args...)
}

// Commit фиксирует транзакцию, если она открыта
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return s.mapErr("commit", "", err)
	}
	return nil
}

// Ping проверяет соединение
func (s *Session) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return s.mapErr("ping", "", err)
	}
	return nil
}

// Close откатывает незафиксированное и закрывает соединение и пул
// Повторный вызов безопасен
func (s *Session) Close(ctx context.Context) error {
	var firstErr error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
			firstErr = fmt.Errorf("rollback: %w", err)
		}
		s.tx = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.conn = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.db = nil
	}
	return firstErr
}

// Cursor читает *sql.Rows порциями
type Cursor struct {
	rows    *sql.Rows
	columns []string
	stmt    string
	mapErr  ErrorMapper
}

// Columns возвращает имена колонок результата
func (c *Cursor) Columns() []string {
	return c.columns
}

// Fetch читает до n строк; пустой результат - конец курсора
func (c *Cursor) Fetch(n int) ([]tabular.Row, error) {
	if n <= 0 {
		n = 1
	}
	if len(c.columns) == 0 {
		return nil, nil
	}

	values := make([]any, len(c.columns))
	ptrs := make([]any, len(c.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var out []tabular.Row
	for len(out) < n && c.rows.Next() {
		if err := c.rows.Scan(ptrs...); err != nil {
			return out, c.mapErr("fetch", c.stmt, err)
		}
		row := make(tabular.Row, len(values))
		for i, v := range values {
			row[i] = ValueToCell(v)
		}
		out = append(out, row)
	}
	if len(out) < n {
		if err := c.rows.Err(); err != nil {
			return out, c.mapErr("fetch", c.stmt, err)
		}
	}
	return out, nil
}

// Close освобождает результат
func (c *Cursor) Close() error {
	return c.rows.Close()
}

// Shorten обрезает длинный оператор для сообщений об ошибках
func Shorten(stmt string) string {
	s := strings.Join(strings.Fields(stmt), " ")
	const limit = 200
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
