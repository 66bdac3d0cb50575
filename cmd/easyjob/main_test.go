package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeArgs(t *testing.T) {
	commands := map[string]bool{"extract": true, "upload": true, "script": true}
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "extract with interleaved flags",
			in:   []string{"easyjob", "extract", "mysql://u:p@h/db", "-t", "orders", "out.txt", "--separate=|"},
			want: []string{"easyjob", "extract", "-t", "orders", "--separate=|", "--", "mysql://u:p@h/db", "out.txt"},
		},
		{
			name: "query value with spaces",
			in:   []string{"easyjob", "extract", "uri", "-q", "select a from t", "out.txt"},
			want: []string{"easyjob", "extract", "-q", "select a from t", "--", "uri", "out.txt"},
		},
		{
			name: "global flag before command",
			in:   []string{"easyjob", "--create-config", "x.yaml"},
			want: []string{"easyjob", "--create-config", "x.yaml"},
		},
		{
			name: "separate flag value",
			in:   []string{"easyjob", "upload", "uri", "in.txt", "--separate", "\t", "--mode=create"},
			want: []string{"easyjob", "upload", "--separate", "\t", "--mode=create", "--", "uri", "in.txt"},
		},
		{
			name: "no positionals",
			in:   []string{"easyjob", "script", "--help"},
			want: []string{"easyjob", "script", "--help"},
		},
		{
			name: "kwargs after double dash",
			in:   []string{"easyjob", "script", "uri", "f.sql", "--", "-x=1"},
			want: []string{"easyjob", "script", "--", "uri", "f.sql", "-x=1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeArgs(tt.in, commands); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeArgs = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	tests := map[string]string{
		"orders.txt":          "orders",
		"/data/orders.txt.gz": "orders",
		"s3://b/in/loan_all":  "loan_all",
	}
	for in, want := range tests {
		if got := defaultTable(in); got != want {
			t.Errorf("defaultTable(%q) = %q, want %q", in, got, want)
		}
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	full := append([]string{"easyjob"}, args...)
	err := app.Run(normalizeArgs(full, commandNames(app)))
	return out.String(), err
}

func TestCommandArgumentValidation(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"extract without table or query", []string{"extract", "mysql://h/db", "out.txt"}, "-t <table> or -q <query>"},
		{"extract with both", []string{"extract", "mysql://h/db", "-t", "a", "-q", "select a from a", "out.txt"}, "mutually exclusive"},
		{"extract missing file", []string{"extract", "mysql://h/db", "-t", "a"}, "expected 2 arguments"},
		{"update missing columns", []string{"update", "mysql://h/db", "in.txt", "t"}, "expected 5 arguments"},
		{"upload bad mode", []string{"upload", "mysql://h/db", "in.txt", "--mode=replace"}, "unknown upload mode"},
		{"script bad kwargs", []string{"script", "mysql://h/db", "f.sql", "novalue"}, "invalid parameter"},
		{"history without database", []string{"history"}, "audit.database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}

	// проверка аргументов не создает журнал запуска
	if _, err := os.Stat("log"); !os.IsNotExist(err) {
		t.Error("log directory created for rejected arguments")
	}
}

func TestMalformedURIFailsRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := runApp(t, "upload", "not-a-uri", "in.txt", "t", "--log_dir", dir, "--log_date", "20240216", "--no-progress")
	if err == nil || !strings.Contains(err.Error(), "MalformedAddress") {
		t.Fatalf("expected MalformedAddress, got %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "ERROR_*_20240216_t.log"))
	if len(matches) != 1 {
		t.Errorf("expected one ERROR_ log, found %v", matches)
	}
}

func TestCreateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	out, err := runApp(t, "--create-config", path)
	if err != nil {
		t.Fatalf("create-config failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("unexpected output: %q", out)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("sample config does not load: %v", err)
	}
}
