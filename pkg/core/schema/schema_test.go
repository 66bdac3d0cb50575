package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

func reader(t *testing.T, text string) *tabular.Reader {
	t.Helper()
	r, err := tabular.NewReader(strings.NewReader(text), tabular.Options{})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	return r
}

func TestInfer_ThreeWayPolicy(t *testing.T) {
	r := reader(t, "a,b,c\n1,x,true\n2,,false\n")

	got, err := Infer(r, 1)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	want := NewBuilder().Add("a", TypeDouble).Add("b", TypeChar).Add("c", TypeBoolean).Build()
	if !got.Equal(want) {
		t.Errorf("Infer() = %s, want %s", got, want)
	}
}

func TestInfer_ColumnRules(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   DataType
	}{
		{"integers", []string{"1", "2", "-3"}, TypeDouble},
		{"floats and exponent", []string{"1.5", "2e10", " 3 "}, TypeDouble},
		{"numbers with nulls", []string{"1", "", "NULL"}, TypeDouble},
		{"all null", []string{"", "NA"}, TypeDouble},
		{"booleans", []string{"True", "false", "TRUE"}, TypeBoolean},
		{"booleans with null", []string{"true", ""}, TypeChar},
		{"booleans and numbers", []string{"true", "1"}, TypeChar},
		{"text", []string{"x", "1"}, TypeChar},
		{"hex is text", []string{"0x1F"}, TypeChar},
		{"underscore is text", []string{"1_000"}, TypeChar},
		{"yes is text", []string{"yes"}, TypeChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "v\n" + strings.Join(tt.values, "\n") + "\n"
			// пустые строки пропускаются ридером, поэтому пустое значение - отдельная колонка
			if containsEmpty(tt.values) {
				text = "v,pad\n"
				for _, v := range tt.values {
					text += v + ",p\n"
				}
			}

			got, err := Infer(reader(t, text), 2)
			if err != nil {
				t.Fatalf("Infer failed: %v", err)
			}
			if got[0].Name != "v" || got[0].Type != tt.want {
				t.Errorf("type of %v = %s, want %s", tt.values, got[0].Type, tt.want)
			}
		})
	}
}

func containsEmpty(values []string) bool {
	for _, v := range values {
		if v == "" {
			return true
		}
	}
	return false
}

func TestInfer_TaggedHeaderSkipsRows(t *testing.T) {
	r := reader(t, "id|INT,name|VARCHAR(20)\nnot-a-number,x\n")

	got, err := Infer(r, 10)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	want := NewBuilder().Add("id", "INT").Add("name", "VARCHAR(20)").Build()
	if !got.Equal(want) {
		t.Errorf("Infer() = %s, want %s", got, want)
	}
}

func TestInfer_PartiallyTaggedHeaderIsInferred(t *testing.T) {
	r := reader(t, "id|INT,name\n1,x\n")

	got, err := Infer(r, 10)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if got[0].Name != "id" || got[0].Type != TypeDouble {
		t.Errorf("first column = %+v, want id DOUBLE", got[0])
	}
}

func TestInfer_TaggedRoundTrip(t *testing.T) {
	inferred, err := Infer(reader(t, "a,b,c\n1,x,true\n2,,false\n"), 1000)
	if err != nil {
		t.Fatal(err)
	}

	tagged := strings.Join(inferred.TaggedHeader(), ",") + "\n1,x,true\n"
	again, err := Infer(reader(t, tagged), 1000)
	if err != nil {
		t.Fatal(err)
	}

	if !again.Equal(inferred) {
		t.Errorf("round trip = %s, want %s", again, inferred)
	}
}

func TestInfer_PropagatesMalformedRow(t *testing.T) {
	_, err := Infer(reader(t, "a,b\n1,2,3\n"), 10)
	if !errors.Is(err, failure.ErrMalformedRow) {
		t.Errorf("expected MalformedRow, got %v", err)
	}
}

func TestSplitTag(t *testing.T) {
	tests := []struct {
		header string
		name   string
		typ    DataType
		tagged bool
	}{
		{"amount|DOUBLE", "amount", TypeDouble, true},
		{"amount", "amount", "", false},
		{"a|DECIMAL(10|2)", "a", "DECIMAL(10|2)", true},
	}
	for _, tt := range tests {
		name, typ, tagged := SplitTag(tt.header)
		if name != tt.name || typ != tt.typ || tagged != tt.tagged {
			t.Errorf("SplitTag(%q) = (%q, %q, %v)", tt.header, name, typ, tagged)
		}
	}

	if got := ColumnNames([]string{"a|X", "b"}); got[0] != "a" || got[1] != "b" {
		t.Errorf("ColumnNames = %v", got)
	}
}

func TestAssignment_Helpers(t *testing.T) {
	a := NewBuilder().Add("a", TypeDouble).Add("b", TypeChar).Build()

	if got := a.String(); got != "a DOUBLE, b CHAR(100)" {
		t.Errorf("String() = %q", got)
	}
	if got := strings.Join(a.TaggedHeader(), ","); got != "a|DOUBLE,b|CHAR(100)" {
		t.Errorf("TaggedHeader() = %q", got)
	}
	if got := a.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v", got)
	}
	if _, err := FromTaggedHeader([]string{"a", "b|X"}); err == nil {
		t.Error("FromTaggedHeader should reject partial tags")
	}
}
