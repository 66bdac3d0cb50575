package etl

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ruslano69/easyjob/pkg/adapters"
	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/core/schema"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// fakeConn записывает операторы и фиксации, таблицы моделирует счетчиком строк
type fakeConn struct {
	execs    []string
	commits  int
	commitAt []int
	failOn   int

	tables  map[string]int
	pending map[string]int

	columns map[string][]string
	types   map[string]schema.Assignment
	results map[string]fakeResult
}

type fakeResult struct {
	cols []string
	rows []tabular.Row
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		tables:  map[string]int{},
		pending: map[string]int{},
		columns: map[string][]string{},
		types:   map[string]schema.Assignment{},
		results: map[string]fakeResult{},
	}
}

func (f *fakeConn) Exec(ctx context.Context, stmt string) error {
	f.execs = append(f.execs, stmt)
	if f.failOn > 0 && len(f.execs) == f.failOn {
		return failure.New(failure.DatabaseOperationFailed, "exec failed: %s", stmt)
	}

	fields := strings.Fields(stmt)
	switch {
	case strings.HasPrefix(stmt, "DROP TABLE IF EXISTS "):
		delete(f.tables, fields[4])
	case strings.HasPrefix(stmt, "CREATE TABLE "):
		f.tables[fields[2]] = 0
	case strings.HasPrefix(stmt, "INSERT INTO "):
		f.pending[fields[2]]++
	}
	return nil
}

func (f *fakeConn) Query(ctx context.Context, stmt string) (adapters.Cursor, error) {
	f.execs = append(f.execs, stmt)
	if f.failOn > 0 && len(f.execs) == f.failOn {
		return nil, failure.New(failure.DatabaseOperationFailed, "query failed: %s", stmt)
	}
	res := f.results[stmt]
	return &fakeCursor{cols: res.cols, rows: res.rows}, nil
}

func (f *fakeConn) Commit(ctx context.Context) error {
	f.commits++
	f.commitAt = append(f.commitAt, len(f.execs))
	for t, n := range f.pending {
		f.tables[t] += n
	}
	f.pending = map[string]int{}
	return nil
}

func (f *fakeConn) Close(ctx context.Context) error { return nil }

func (f *fakeConn) Columns(ctx context.Context, qualifier string) ([]string, error) {
	cols, ok := f.columns[qualifier]
	if !ok {
		return nil, failure.New(failure.TableNotFound, "table %s not found", qualifier)
	}
	return cols, nil
}

func (f *fakeConn) ColumnTypes(ctx context.Context, qualifier string) (schema.Assignment, error) {
	types, ok := f.types[qualifier]
	if !ok {
		return nil, failure.New(failure.TableNotFound, "table %s not found", qualifier)
	}
	return types, nil
}

type fakeCursor struct {
	cols   []string
	rows   []tabular.Row
	pos    int
	closed bool
}

func (c *fakeCursor) Columns() []string { return c.cols }

func (c *fakeCursor) Fetch(n int) ([]tabular.Row, error) {
	end := c.pos + n
	if end > len(c.rows) {
		end = len(c.rows)
	}
	out := c.rows[c.pos:end]
	c.pos = end
	return out, nil
}

func (c *fakeCursor) Close() error {
	c.closed = true
	return nil
}

// writeFile создает файл в каталоге теста
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// numberedFile - файл "id,name" с n строками
func numberedFile(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 1; i <= n; i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteString(",row\n")
	}
	return writeFile(t, "data.txt", b.String())
}
