// Package etl переносит строки между курсором БД и плоским файлом порциями.
//
// Четыре точки входа: Extract, Upload, Update, ExecuteScript. Каждая
// работает через одно открытое соединение, последовательно, без повторов.
// Ошибка любого вызова БД сразу прерывает операцию; то, что было
// зафиксировано до ошибки, остается в базе.
package etl

import (
	"context"
	"log/slog"
	"time"

	"github.com/ruslano69/easyjob/pkg/adapters"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// DefaultChunkSize - размер порции чтения и пакета фиксации
const DefaultChunkSize = 1000

// Operation - имя операции
type Operation string

const (
	OpExtract Operation = "extract"
	OpUpload  Operation = "upload"
	OpUpdate  Operation = "update"
	OpScript  Operation = "script"
)

// Conn - открытое соединение вместе с доступом к каталогу
type Conn interface {
	adapters.Session
	adapters.SchemaInspector
}

// Progress - счетчики хода операции
type Progress struct {
	RowsProcessed int64
	ChunkIndex    int
}

// Observer получает ход операции (индикатор прогресса)
type Observer interface {
	// Start вызывается перед обработкой; total < 0 - объем неизвестен
	Start(op Operation, total int64)

	// Advance вызывается после каждой порции
	Advance(p Progress)

	// Finish вызывается при любом завершении
	Finish()
}

// Options - параметры движка
type Options struct {
	// ChunkSize - строк в порции и операторов в пакете фиксации (по умолчанию 1000)
	ChunkSize int

	// Separator - разделитель полей файла (по умолчанию ",")
	Separator string

	// NullValues - значения, читаемые как NULL (nil - набор по умолчанию)
	NullValues []string

	// StagingDir - каталог промежуточного файла операторов
	// Пусто - рядом с исходным файлом
	StagingDir string

	// KeepStaging - не удалять промежуточный файл после успеха
	KeepStaging bool

	// Observer - получатель хода операции (может быть nil)
	Observer Observer
}

// Result - итог одной операции
type Result struct {
	Operation  Operation
	Rows       int64
	Statements int64
	Chunks     int
	Commits    int
	Checksum   string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Engine - движок переноса поверх одного соединения
type Engine struct {
	conn      Conn
	logger    *slog.Logger
	opts      Options
	observing bool
}

// New создает движок; logger - явный приемник журнала операции
func New(conn Conn, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Separator == "" {
		opts.Separator = tabular.DefaultSeparator
	}
	return &Engine{conn: conn, logger: logger, opts: opts}
}

// readerOptions - параметры чтения файла
func (e *Engine) readerOptions() tabular.Options {
	return tabular.Options{Separator: e.opts.Separator, NullValues: e.opts.NullValues}
}

// run выполняет операцию с замером времени и журналом ошибки
func (e *Engine) run(op Operation, fn func(res *Result) error) (Result, error) {
	res := e.begin(op)
	err := fn(res)
	e.finish(res)
	if err != nil {
		e.logger.Error("operation failed", "operation", string(op), "error", err)
	}
	return *res, err
}

// begin отмечает начало операции
func (e *Engine) begin(op Operation) *Result {
	e.observing = false
	return &Result{Operation: op, StartTime: time.Now()}
}

// track включает индикатор, когда объем работы известен (total < 0 - неизвестен)
func (e *Engine) track(op Operation, total int64) {
	if e.opts.Observer != nil && !e.observing {
		e.opts.Observer.Start(op, total)
		e.observing = true
	}
}

// advance сообщает о ходе операции
func (e *Engine) advance(p Progress) {
	if e.observing {
		e.opts.Observer.Advance(p)
	}
}

// finish фиксирует время и пишет "spend tot time" при любом исходе
func (e *Engine) finish(res *Result) {
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	if e.observing {
		e.opts.Observer.Finish()
		e.observing = false
	}
	e.logger.Info("spend tot time",
		"operation", string(res.Operation),
		"seconds", roundSeconds(res.Duration))
}

// commit фиксирует пакет и считает фиксации
func (e *Engine) commit(ctx context.Context, res *Result) error {
	if err := e.conn.Commit(ctx); err != nil {
		return err
	}
	res.Commits++
	return nil
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(100*time.Millisecond)) / float64(time.Second)
}
