// Package sqlgen собирает текст SQL-операторов CREATE/SELECT/INSERT/UPDATE.
//
// Все функции чистые: на входе имена и ячейки, на выходе строка.
// Значения подставляются через Quote, других мест квотирования нет.
package sqlgen

import (
	"regexp"
	"strings"

	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/core/schema"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// TableSuffix - хвост CREATE TABLE (движок и кодировка)
const TableSuffix = "ENGINE=InnoDB DEFAULT CHARSET=utf8"

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	selectFrom   = regexp.MustCompile(`(?is)\bselect\b([\w\s,]+?)\bfrom\b`)
)

// DropTable - "DROP TABLE IF EXISTS t"
func DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

// CreateTable строит CREATE TABLE по назначению типов в порядке колонок
func CreateTable(table string, columns schema.Assignment) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c.Name + " " + string(c.Type)
	}
	return "CREATE TABLE " + table + " (" + strings.Join(defs, ",\n") + ") " + TableSuffix
}

// SelectTable строит "SELECT a,b FROM t" и возвращает колонки в том же порядке
func SelectTable(table string, columns []string) (string, []string) {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return "SELECT " + strings.Join(cols, ",") + " FROM " + table, cols
}

// SelectQuery выводит колонки результата из текста запроса "select ... from ..."
// Запрос возвращается без изменений
func SelectQuery(query string) (string, []string, error) {
	stripped := blockComment.ReplaceAllString(query, " ")
	stripped = lineComment.ReplaceAllString(stripped, " ")

	m := selectFrom.FindStringSubmatch(stripped)
	if m == nil {
		return "", nil, failure.New(failure.IllegalQuery,
			"cannot derive columns, expected 'select <columns> from ...': %s", oneLine(query))
	}

	var cols []string
	for _, part := range strings.Split(m[1], ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			return "", nil, failure.New(failure.IllegalQuery,
				"empty column in select list: %s", oneLine(query))
		}
		// "a as b", "distinct a" - в заголовок идет последнее слово
		cols = append(cols, fields[len(fields)-1])
	}
	return query, cols, nil
}

// InsertRow - "INSERT INTO t (a,b) VALUES ('1',NULL);"
func InsertRow(table string, columns []string, row tabular.Row) string {
	values := make([]string, len(columns))
	for i := range columns {
		cell := tabular.Null
		if i < len(row) {
			cell = row[i]
		}
		values[i] = Quote(cell)
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ",") + ") VALUES (" +
		strings.Join(values, ",") + ");"
}

// Update - подготовленный шаблон UPDATE для строк одного файла
type Update struct {
	table    string
	set      []string
	match    []string
	setIdx   []int
	matchIdx []int
}

// NewUpdate проверяет, что все колонки set и match есть в заголовке
func NewUpdate(table string, header, set, match []string) (*Update, error) {
	if len(set) == 0 {
		return nil, failure.New(failure.ColumnNotFound, "no columns to update")
	}
	if len(match) == 0 {
		return nil, failure.New(failure.ColumnNotFound, "no columns to match")
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	resolve := func(cols []string) ([]int, error) {
		idx := make([]int, len(cols))
		for i, c := range cols {
			p, ok := pos[c]
			if !ok {
				return nil, failure.New(failure.ColumnNotFound,
					"column %q not found in header [%s]", c, strings.Join(header, ","))
			}
			idx[i] = p
		}
		return idx, nil
	}

	setIdx, err := resolve(set)
	if err != nil {
		return nil, err
	}
	matchIdx, err := resolve(match)
	if err != nil {
		return nil, err
	}

	return &Update{table: table, set: set, match: match, setIdx: setIdx, matchIdx: matchIdx}, nil
}

// Row - "UPDATE t SET c1='v1', c2='v2' WHERE m1='x1' AND m2='x2';"
func (u *Update) Row(row tabular.Row) string {
	cell := func(i int) tabular.Cell {
		if i < len(row) {
			return row[i]
		}
		return tabular.Null
	}

	sets := make([]string, len(u.set))
	for i, c := range u.set {
		sets[i] = assign(c, cell(u.setIdx[i]))
	}
	conds := make([]string, len(u.match))
	for i, c := range u.match {
		conds[i] = match(c, cell(u.matchIdx[i]))
	}
	return "UPDATE " + u.table + " SET " + strings.Join(sets, ", ") +
		" WHERE " + strings.Join(conds, " AND ") + ";"
}

// SplitColumns разбирает список "a, b,c" в имена колонок
func SplitColumns(list string) []string {
	var cols []string
	for _, part := range strings.Split(list, ",") {
		if p := strings.TrimSpace(part); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
