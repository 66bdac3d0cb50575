package adapters

import (
	"context"
	"time"

	"github.com/ruslano69/easyjob/pkg/core/schema"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
	"github.com/ruslano69/easyjob/pkg/dsn"
)

// Значения по умолчанию для сетевых таймаутов
const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultDialTimeout  = 10 * time.Second
	DefaultCharset      = "utf8"
)

// Config - конфигурация подключения к БД
type Config struct {
	// Target - разобранный URI подключения
	Target dsn.Target

	// ReadTimeout, WriteTimeout - таймаут одного сетевого вызова
	// Общего таймаута на операцию нет
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// DialTimeout - таймаут установки соединения
	DialTimeout time.Duration

	// Charset - кодировка соединения (по умолчанию utf8)
	Charset string
}

// WithDefaults заполняет незаданные поля значениями по умолчанию
func (c Config) WithDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.Charset == "" {
		c.Charset = DefaultCharset
	}
	return c
}

// Session - одно соединение, через которое ядро выполняет готовые SQL-операторы
// Все вызовы блокирующие и строго последовательные
type Session interface {
	// Exec выполняет оператор без результата
	Exec(ctx context.Context, stmt string) error

	// Query выполняет оператор и возвращает курсор
	// Для операторов без результата курсор имеет пустой список колонок
	Query(ctx context.Context, stmt string) (Cursor, error)

	// Commit фиксирует выполненные с прошлого Commit операторы
	Commit(ctx context.Context) error

	// Close откатывает незафиксированное и закрывает соединение
	Close(ctx context.Context) error
}

// Cursor - результат запроса, читаемый порциями
type Cursor interface {
	// Columns возвращает имена колонок результата
	Columns() []string

	// Fetch читает до n строк; пустой результат означает конец
	Fetch(n int) ([]tabular.Row, error)

	// Close освобождает результат
	Close() error
}

// SchemaInspector читает метаданные каталога
type SchemaInspector interface {
	// Columns возвращает имена колонок таблицы "schema.table" или "table"
	// в порядке определения; пустой результат - TableNotFound
	Columns(ctx context.Context, qualifier string) ([]string, error)

	// ColumnTypes возвращает колонки вместе с их типами из каталога
	ColumnTypes(ctx context.Context, qualifier string) (schema.Assignment, error)
}

// Adapter - подключение к конкретной СУБД
// Реализуется каждым адаптером и регистрируется в фабрике
type Adapter interface {
	Session
	SchemaInspector

	// Connect устанавливает подключение
	Connect(ctx context.Context, cfg Config) error

	// Ping проверяет доступность БД
	Ping(ctx context.Context) error

	// GetDatabaseType возвращает тип СУБД, например "mysql"
	GetDatabaseType() string

	// GetDatabaseVersion возвращает версию сервера
	GetDatabaseVersion(ctx context.Context) (string, error)
}
