package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/core/schema"
)

// columnsQuery читает колонки таблицы из information_schema в порядке определения
// Пустая схема означает базу текущего соединения
const columnsQuery = `
	SELECT COLUMN_NAME, COLUMN_TYPE
	FROM information_schema.COLUMNS
	WHERE TABLE_NAME = ?
	  AND TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	ORDER BY ORDINAL_POSITION
`

// SplitQualifier разбирает "schema.table" или "table"
func SplitQualifier(qualifier string) (schemaName, table string) {
	q := strings.ReplaceAll(strings.TrimSpace(qualifier), "`", "")
	if idx := strings.Index(q, "."); idx >= 0 {
		return q[:idx], q[idx+1:]
	}
	return "", q
}

// Columns возвращает имена колонок таблицы
func (a *Adapter) Columns(ctx context.Context, qualifier string) ([]string, error) {
	cols, err := a.ColumnTypes(ctx, qualifier)
	if err != nil {
		return nil, err
	}
	return cols.Names(), nil
}

// ColumnTypes возвращает колонки таблицы вместе с COLUMN_TYPE в верхнем регистре
func (a *Adapter) ColumnTypes(ctx context.Context, qualifier string) (schema.Assignment, error) {
	schemaName, table := SplitQualifier(qualifier)
	if schemaName == "" {
		schemaName = a.config.Target.Database
	}

	rows, err := a.QueryArgs(ctx, columnsQuery, table, schemaName)
	if err != nil {
		return nil, mapError("catalog query", qualifier, err)
	}
	defer rows.Close()

	b := schema.NewBuilder()
	for rows.Next() {
		var name string
		var colType sql.NullString
		if err := rows.Scan(&name, &colType); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		b.Add(name, schema.DataType(strings.ToUpper(colType.String)))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("catalog query", qualifier, err)
	}

	if b.ColumnCount() == 0 {
		where := schemaName
		if where == "" {
			where = "current database"
		}
		return nil, failure.New(failure.TableNotFound, "table %s not found in %s", table, where)
	}
	return b.Build(), nil
}
