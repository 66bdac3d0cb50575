package sqlgen

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/core/schema"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

func TestQuote(t *testing.T) {
	if got := Quote(tabular.Null); got != "NULL" {
		t.Errorf("Quote(Null) = %q", got)
	}
	if got := Quote(tabular.Value("")); got != "''" {
		t.Errorf("Quote(empty) = %q", got)
	}
	// кавычки внутри значения не экранируются
	if got := Quote(tabular.Value("O'Brien")); got != "'O'Brien'" {
		t.Errorf("Quote(O'Brien) = %q", got)
	}
}

func TestCreateTable(t *testing.T) {
	a := schema.NewBuilder().Add("a", schema.TypeDouble).Add("b", schema.TypeChar).Add("c", schema.TypeBoolean).Build()

	want := "CREATE TABLE t (a DOUBLE,\nb CHAR(100),\nc BOOLEAN) ENGINE=InnoDB DEFAULT CHARSET=utf8"
	if got := CreateTable("t", a); got != want {
		t.Errorf("CreateTable() =\n%s\nwant\n%s", got, want)
	}
	if got := DropTable("t"); got != "DROP TABLE IF EXISTS t" {
		t.Errorf("DropTable() = %q", got)
	}
}

func TestInsertRow(t *testing.T) {
	cols := []string{"a", "b", "c"}

	tests := []struct {
		row  tabular.Row
		want string
	}{
		{
			row:  tabular.Row{tabular.Value("1"), tabular.Value("x"), tabular.Value("true")},
			want: "INSERT INTO t (a,b,c) VALUES ('1','x','true');",
		},
		{
			row:  tabular.Row{tabular.Value("2"), tabular.Null, tabular.Value("false")},
			want: "INSERT INTO t (a,b,c) VALUES ('2',NULL,'false');",
		},
		{
			row:  tabular.Row{tabular.Value("3")},
			want: "INSERT INTO t (a,b,c) VALUES ('3',NULL,NULL);",
		},
	}

	for _, tt := range tests {
		if got := InsertRow("t", cols, tt.row); got != tt.want {
			t.Errorf("InsertRow() = %q, want %q", got, tt.want)
		}
	}
}

var valuesList = regexp.MustCompile(`VALUES \((.*)\);$`)

func TestInsertRow_ValuesKeepOrder(t *testing.T) {
	cells := []string{"10", "hello world", "", "2024-01-01", "-3.5"}
	row := make(tabular.Row, len(cells))
	cols := make([]string, len(cells))
	for i, c := range cells {
		row[i] = tabular.Value(c)
		cols[i] = string(rune('a' + i))
	}

	m := valuesList.FindStringSubmatch(InsertRow("t", cols, row))
	if m == nil {
		t.Fatal("VALUES list not found")
	}
	var got []string
	for _, v := range strings.Split(m[1], ",") {
		if !strings.HasPrefix(v, "'") || !strings.HasSuffix(v, "'") {
			t.Fatalf("value %q is not quoted", v)
		}
		got = append(got, v[1:len(v)-1])
	}
	if !reflect.DeepEqual(got, cells) {
		t.Errorf("values = %v, want %v", got, cells)
	}
}

func TestUpdateRow(t *testing.T) {
	header := []string{"id", "amount", "note"}

	single, err := NewUpdate("t", header, []string{"amount"}, []string{"id"})
	if err != nil {
		t.Fatalf("NewUpdate failed: %v", err)
	}
	got := single.Row(tabular.Row{tabular.Value("7"), tabular.Value("42"), tabular.Value("x")})
	if want := "UPDATE t SET amount='42' WHERE id='7';"; got != want {
		t.Errorf("Row() = %q, want %q", got, want)
	}

	u, err := NewUpdate("t", header, []string{"amount", "note"}, []string{"id", "note"})
	if err != nil {
		t.Fatal(err)
	}
	got = u.Row(tabular.Row{tabular.Value("1"), tabular.Null, tabular.Null})
	want := "UPDATE t SET amount=NULL, note=NULL WHERE id='1' AND note IS NULL;"
	if got != want {
		t.Errorf("Row() = %q, want %q", got, want)
	}
}

func TestNewUpdate_ColumnNotFound(t *testing.T) {
	header := []string{"id", "amount"}

	cases := []struct {
		set, match []string
	}{
		{[]string{"missing"}, []string{"id"}},
		{[]string{"amount"}, []string{"missing"}},
		{nil, []string{"id"}},
		{[]string{"amount"}, nil},
	}
	for _, c := range cases {
		_, err := NewUpdate("t", header, c.set, c.match)
		if !errors.Is(err, failure.ErrColumnNotFound) {
			t.Errorf("NewUpdate(%v, %v) error = %v, want ColumnNotFound", c.set, c.match, err)
		}
	}
}

func TestSelectTable(t *testing.T) {
	sql, cols := SelectTable("db.t", []string{"id", "name"})
	if sql != "SELECT id,name FROM db.t" {
		t.Errorf("sql = %q", sql)
	}
	if !reflect.DeepEqual(cols, []string{"id", "name"}) {
		t.Errorf("cols = %v", cols)
	}
}

func TestSelectQuery(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"select a, b ,c from t", []string{"a", "b", "c"}},
		{"SELECT id,amount FROM sales WHERE x > 1", []string{"id", "amount"}},
		{"select\n  id,\n  name\nfrom t", []string{"id", "name"}},
		{"-- daily\nselect /* main */ id, total from t", []string{"id", "total"}},
		{"select id, name as label from t", []string{"id", "label"}},
		{"select id from (select id from t) x", []string{"id"}},
	}

	for _, tt := range tests {
		sql, got, err := SelectQuery(tt.query)
		if err != nil {
			t.Errorf("SelectQuery(%q) error: %v", tt.query, err)
			continue
		}
		if sql != tt.query {
			t.Errorf("query was modified: %q", sql)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SelectQuery(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSelectQuery_Illegal(t *testing.T) {
	tests := []string{
		"select a, b",
		"update t set a=1",
		"select * from t",
		"select a,,b from t",
		"selectfrom t",
	}
	for _, q := range tests {
		if _, _, err := SelectQuery(q); !errors.Is(err, failure.ErrIllegalQuery) {
			t.Errorf("SelectQuery(%q) error = %v, want IllegalQuery", q, err)
		}
	}
}

func TestSplitColumns(t *testing.T) {
	if got := SplitColumns(" a, b,,c "); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitColumns = %v", got)
	}
	if got := SplitColumns(""); got != nil {
		t.Errorf("SplitColumns(\"\") = %v", got)
	}
}
