package etl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ruslano69/easyjob/pkg/core/sqlgen"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// ExtractRequest - параметры выгрузки
// Задается либо Table, либо Query
type ExtractRequest struct {
	Table  string
	Query  string
	ToFile string

	// Tagged - писать заголовок "имя|ТИП" из каталога (только для Table)
	Tagged bool
}

// Extract выгружает таблицу или результат запроса в файл
// При ошибке частично записанный файл остается на месте
func (e *Engine) Extract(ctx context.Context, req ExtractRequest) (Result, error) {
	return e.run(OpExtract, func(res *Result) error {
		query, header, err := e.selectStatement(ctx, req)
		if err != nil {
			return err
		}
		e.logger.Info("extract query", "sql", query)

		cur, err := e.conn.Query(ctx, query)
		if err != nil {
			return err
		}
		defer cur.Close()

		if got := len(cur.Columns()); got != len(header) {
			e.logger.Warn("result column count differs from header",
				"header", len(header), "result", got)
		}

		w, err := tabular.Create(req.ToFile, e.opts.Separator)
		if err != nil {
			return err
		}
		e.logger.Info("fetch result write to file", "file", req.ToFile)

		err = e.copyCursor(res, cur, w, header)
		if closeErr := w.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", req.ToFile, closeErr)
		}
		if err != nil {
			return err
		}

		res.Checksum = w.Checksum()
		e.logger.Info("extract finished",
			"rows", res.Rows, "chunks", res.Chunks, "checksum", res.Checksum)
		return nil
	})
}

// selectStatement возвращает запрос и заголовок файла
func (e *Engine) selectStatement(ctx context.Context, req ExtractRequest) (string, []string, error) {
	switch {
	case req.Table != "" && req.Query != "":
		return "", nil, errors.New("extract: table and query are mutually exclusive")

	case req.Query != "":
		if req.Tagged {
			e.logger.Warn("tagged header is only available for table extracts")
		}
		return sqlgen.SelectQuery(req.Query)

	case req.Table != "":
		if !req.Tagged {
			cols, err := e.conn.Columns(ctx, req.Table)
			if err != nil {
				return "", nil, err
			}
			query, header := sqlgen.SelectTable(req.Table, cols)
			return query, header, nil
		}

		types, err := e.conn.ColumnTypes(ctx, req.Table)
		if err != nil {
			return "", nil, err
		}
		header := types.TaggedHeader()
		for i, h := range header {
			if strings.Contains(h, e.opts.Separator) {
				return "", nil, fmt.Errorf("extract: type of column %s (%s) contains separator %q",
					types[i].Name, types[i].Type, e.opts.Separator)
			}
		}
		query, _ := sqlgen.SelectTable(req.Table, types.Names())
		return query, header, nil

	default:
		return "", nil, errors.New("extract: table or query is required")
	}
}

// cursor - то, что нужно copyCursor от курсора
type cursor interface {
	Fetch(n int) ([]tabular.Row, error)
}

// copyCursor пишет заголовок, затем порции курсора до пустой выборки
func (e *Engine) copyCursor(res *Result, cur cursor, w *tabular.Writer, header []string) error {
	if err := w.WriteHeader(header); err != nil {
		return err
	}

	e.track(OpExtract, -1)
	for {
		rows, err := cur.Fetch(e.opts.ChunkSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		for _, row := range rows {
			if err := w.WriteRow(row); err != nil {
				return err
			}
		}
		res.Rows = w.Rows()
		res.Chunks++
		e.logger.Info("chunk written", "chunk", res.Chunks, "rows", res.Rows)
		e.advance(Progress{RowsProcessed: res.Rows, ChunkIndex: res.Chunks})
	}
}
