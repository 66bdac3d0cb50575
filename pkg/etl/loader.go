package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ruslano69/easyjob/pkg/core/schema"
	"github.com/ruslano69/easyjob/pkg/core/sqlgen"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// Mode - режим загрузки
type Mode string

const (
	// ModeAppend - вставка в существующую таблицу
	ModeAppend Mode = "append"
	// ModeCreate - удалить и создать таблицу по типам файла, затем вставка
	ModeCreate Mode = "create"
)

// ParseMode разбирает режим загрузки; пустая строка - append
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeCreate:
		return ModeCreate, nil
	default:
		return "", fmt.Errorf("unknown upload mode %q (expected append or create)", s)
	}
}

// UploadRequest - параметры загрузки файла в таблицу
type UploadRequest struct {
	FromFile string
	Table    string
	Mode     Mode
}

// UpdateRequest - параметры обновления таблицы по файлу
type UpdateRequest struct {
	FromFile     string
	Table        string
	SetColumns   []string
	MatchColumns []string
}

// rowStatement строит оператор для одной строки файла
type rowStatement func(row tabular.Row) string

// Upload загружает файл в таблицу (INSERT на каждую строку)
func (e *Engine) Upload(ctx context.Context, req UploadRequest) (Result, error) {
	return e.run(OpUpload, func(res *Result) error {
		if req.Table == "" {
			return errors.New("upload: table name is empty")
		}
		mode, err := ParseMode(string(req.Mode))
		if err != nil {
			return err
		}

		// таблица пересоздается только после того, как весь файл прочитан без ошибок
		var prepare func() error
		if mode == ModeCreate {
			prepare = func() error {
				return e.prepareTable(ctx, req.FromFile, req.Table)
			}
		}

		return e.load(ctx, res, req.FromFile, func(header []string) (rowStatement, error) {
			columns := schema.ColumnNames(header)
			return func(row tabular.Row) string {
				return sqlgen.InsertRow(req.Table, columns, row)
			}, nil
		}, prepare)
	})
}

// Update обновляет строки таблицы: SET по одним колонкам, WHERE по другим
func (e *Engine) Update(ctx context.Context, req UpdateRequest) (Result, error) {
	return e.run(OpUpdate, func(res *Result) error {
		if req.Table == "" {
			return errors.New("update: table name is empty")
		}
		return e.load(ctx, res, req.FromFile, func(header []string) (rowStatement, error) {
			u, err := sqlgen.NewUpdate(req.Table, schema.ColumnNames(header), req.SetColumns, req.MatchColumns)
			if err != nil {
				return nil, err
			}
			return u.Row, nil
		}, nil)
	})
}

// prepareTable выводит типы и пересоздает таблицу до обработки строк
func (e *Engine) prepareTable(ctx context.Context, fromFile, table string) error {
	r, err := tabular.Open(fromFile, e.readerOptions())
	if err != nil {
		return err
	}
	types, err := schema.Infer(r, e.opts.ChunkSize)
	r.Close()
	if err != nil {
		return fmt.Errorf("failed to infer column types of %s: %w", fromFile, err)
	}

	drop := sqlgen.DropTable(table)
	create := sqlgen.CreateTable(table, types)
	e.logger.Info("recreate table", "table", table, "columns", types.String())

	for _, stmt := range []string{drop, create} {
		e.logger.Debug("execute", "sql", stmt)
		if err := e.conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return e.conn.Commit(ctx)
}

// load - общая часть upload/update: STAGE, PREPARE, EXECUTE, CLEANUP
// prepare (может быть nil) выполняется между подготовкой операторов и их выполнением
func (e *Engine) load(ctx context.Context, res *Result, fromFile string,
	build func(header []string) (rowStatement, error), prepare func() error) error {

	path := e.stagingPath(fromFile)
	staged, checksum, err := e.stage(fromFile, path, build)
	if err != nil {
		return err
	}
	res.Rows = staged
	res.Checksum = checksum
	e.logger.Info("statements staged", "file", path, "count", staged, "checksum", checksum)

	if prepare != nil {
		if err := prepare(); err != nil {
			e.logger.Error("staging file kept", "file", path)
			return err
		}
	}

	if err := e.execute(ctx, res, path, staged); err != nil {
		e.logger.Error("staging file kept", "file", path)
		return err
	}

	if !e.opts.KeepStaging {
		if err := os.Remove(path); err != nil {
			e.logger.Warn("failed to remove staging file", "file", path, "error", err)
		}
	}
	return nil
}

// stage читает файл порциями и пишет по оператору на строку
func (e *Engine) stage(fromFile, path string, build func(header []string) (rowStatement, error)) (int64, string, error) {
	r, err := tabular.Open(fromFile, e.readerOptions())
	if err != nil {
		return 0, "", err
	}
	defer r.Close()

	render, err := build(r.Header())
	if err != nil {
		return 0, "", err
	}

	w, err := createStaging(path)
	if err != nil {
		return 0, "", err
	}

	for {
		rows, readErr := r.ReadChunk(e.opts.ChunkSize)
		for _, row := range rows {
			if err := w.Write(render(row)); err != nil {
				w.Close()
				return 0, "", err
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			w.Close()
			return 0, "", fmt.Errorf("%s, line %d: %w", fromFile, r.Line(), readErr)
		}
	}

	if err := w.Close(); err != nil {
		return 0, "", err
	}
	return w.count, w.Checksum(), nil
}

// execute воспроизводит промежуточный файл и фиксирует каждые ChunkSize операторов
func (e *Engine) execute(ctx context.Context, res *Result, path string, total int64) error {
	r, err := openStaging(path)
	if err != nil {
		return err
	}
	defer r.Close()

	e.track(res.Operation, total)
	chunk := int64(e.opts.ChunkSize)

	for {
		stmt, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read staging file: %w", err)
		}

		e.logger.Debug("execute", "sql", stmt)
		if err := e.conn.Exec(ctx, executable(stmt)); err != nil {
			return err
		}
		res.Statements++

		if res.Statements%chunk == 0 {
			if err := e.commit(ctx, res); err != nil {
				return err
			}
			res.Chunks++
			e.logger.Info("chunk committed", "chunk", res.Chunks, "statements", res.Statements)
			e.advance(Progress{RowsProcessed: res.Statements, ChunkIndex: res.Chunks})
		}
	}

	if res.Statements%chunk != 0 {
		if err := e.commit(ctx, res); err != nil {
			return err
		}
		res.Chunks++
		e.advance(Progress{RowsProcessed: res.Statements, ChunkIndex: res.Chunks})
	}

	e.logger.Info(fmt.Sprintf("%s %d records.", res.Operation, res.Statements),
		"commits", res.Commits)
	return nil
}
