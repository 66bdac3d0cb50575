package tabular

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// Writer пишет заголовок и строки через разделитель
// Параллельно считает xxh3 по несжатому тексту
type Writer struct {
	bw      *bufio.Writer
	sep     string
	hasher  *xxh3.Hasher
	rows    int64
	closers []func() error
}

// Create создает файл (каталог при необходимости) с учетом сжатия по расширению
func Create(path string, sep string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	dst, closeDst, err := wrapWriter(f, DetectCompression(path))
	if err != nil {
		f.Close()
		return nil, err
	}

	w := NewWriter(dst, sep)
	w.closers = append(w.closers, closeDst, f.Close)
	return w, nil
}

// NewWriter создает Writer поверх произвольного потока
func NewWriter(dst io.Writer, sep string) *Writer {
	if sep == "" {
		sep = DefaultSeparator
	}
	hasher := xxh3.New()
	return &Writer{
		bw:     bufio.NewWriterSize(io.MultiWriter(dst, hasher), 64*1024),
		sep:    sep,
		hasher: hasher,
	}
}

// WriteHeader пишет строку заголовка
func (w *Writer) WriteHeader(columns []string) error {
	return w.writeLine(strings.Join(columns, w.sep))
}

// WriteRow пишет строку данных; NULL пишется пустым полем
func (w *Writer) WriteRow(row Row) error {
	var b strings.Builder
	for i, c := range row {
		if i > 0 {
			b.WriteString(w.sep)
		}
		if !c.Null {
			b.WriteString(c.Text)
		}
	}
	if err := w.writeLine(b.String()); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) writeLine(line string) error {
	if _, err := w.bw.WriteString(line); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	return nil
}

// Rows возвращает количество записанных строк данных
func (w *Writer) Rows() int64 {
	return w.rows
}

// Checksum возвращает xxh3 (hex) записанного текста
// Корректен после Flush или Close
func (w *Writer) Checksum() string {
	return fmt.Sprintf("%016x", w.hasher.Sum64())
}

// Flush сбрасывает буфер
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Close сбрасывает буфер, дописывает хвост сжатия и закрывает файл
func (w *Writer) Close() error {
	firstErr := w.bw.Flush()
	for _, c := range w.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.closers = nil
	return firstErr
}
