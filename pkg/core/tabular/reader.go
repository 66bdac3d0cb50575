// Package tabular читает и пишет плоские файлы с разделителем.
//
// Формат: первая строка - заголовок, далее по одной записи на строку,
// поля склеены разделителем без кавычек и экранирования.
package tabular

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ruslano69/easyjob/pkg/core/failure"
)

// DefaultSeparator - разделитель полей по умолчанию
const DefaultSeparator = ","

// DefaultNullValues - значения, которые читаются как NULL (набор pandas)
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Cell - значение одной ячейки
type Cell struct {
	Text string
	Null bool
}

// Value создает не-NULL ячейку
func Value(s string) Cell {
	return Cell{Text: s}
}

// Null - пустая ячейка
var Null = Cell{Null: true}

// Row - строка данных в порядке колонок заголовка
type Row []Cell

// Options - параметры чтения
type Options struct {
	// Separator - разделитель полей (по умолчанию ",")
	Separator string

	// NullValues - значения, читаемые как NULL
	// nil означает DefaultNullValues; пустая ячейка всегда NULL
	NullValues []string
}

// Reader читает файл порциями строк
type Reader struct {
	br      *bufio.Reader
	sep     string
	nulls   map[string]struct{}
	header  []string
	line    int
	closers []func() error
}

// Open открывает файл (с учетом сжатия по расширению) и читает заголовок
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	src, closeSrc, err := wrapReader(f, DetectCompression(path))
	if err != nil {
		f.Close()
		return nil, err
	}

	r, err := newReader(src, opts)
	if err != nil {
		closeSrc()
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closers = append(r.closers, closeSrc, f.Close)
	return r, nil
}

// NewReader создает Reader поверх произвольного потока
func NewReader(src io.Reader, opts Options) (*Reader, error) {
	return newReader(src, opts)
}

func newReader(src io.Reader, opts Options) (*Reader, error) {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	nullValues := opts.NullValues
	if nullValues == nil {
		nullValues = DefaultNullValues
	}
	nulls := make(map[string]struct{}, len(nullValues)+1)
	nulls[""] = struct{}{}
	for _, v := range nullValues {
		nulls[v] = struct{}{}
	}

	r := &Reader{
		br:    bufio.NewReaderSize(src, 64*1024),
		sep:   sep,
		nulls: nulls,
	}

	line, err := r.nextLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file has no header line")
		}
		return nil, err
	}
	r.header = strings.Split(strings.TrimPrefix(line, "\ufeff"), sep)
	return r, nil
}

// Header возвращает имена колонок (как в файле, с тегами типов)
func (r *Reader) Header() []string {
	return r.header
}

// Line возвращает номер последней прочитанной строки файла
func (r *Reader) Line() int {
	return r.line
}

// ReadChunk читает до n строк данных
// В конце файла возвращает прочитанное и io.EOF (при пустом остатке - nil, io.EOF)
func (r *Reader) ReadChunk(n int) ([]Row, error) {
	if n <= 0 {
		n = 1
	}

	rows := make([]Row, 0, n)
	for len(rows) < n {
		line, err := r.nextLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(rows) == 0 {
					return nil, io.EOF
				}
				return rows, io.EOF
			}
			return rows, err
		}

		row, err := r.parse(line)
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parse разбивает строку на ячейки по ширине заголовка
func (r *Reader) parse(line string) (Row, error) {
	fields := strings.Split(line, r.sep)
	if len(fields) > len(r.header) {
		return nil, failure.New(failure.MalformedRow,
			"line %d has %d fields, header has %d", r.line, len(fields), len(r.header))
	}

	row := make(Row, len(r.header))
	for i := range row {
		if i >= len(fields) {
			row[i] = Null
			continue
		}
		if _, isNull := r.nulls[fields[i]]; isNull {
			row[i] = Null
			continue
		}
		row[i] = Value(fields[i])
	}
	return row, nil
}

// nextLine возвращает следующую непустую строку без перевода строки
func (r *Reader) nextLine() (string, error) {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		r.line++

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		// пропускаются только пустые строки: " " - значение однострочной колонки
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			continue
		}
		return line, nil
	}
}

// Close закрывает распаковщик и файл
func (r *Reader) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
