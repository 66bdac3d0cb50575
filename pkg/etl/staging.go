package etl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// lineBreakMarker заменяет перевод строки внутри оператора в промежуточном файле
const lineBreakMarker = "||"

// encodeStatement сворачивает оператор в одну строку
func encodeStatement(stmt string) string {
	stmt = strings.ReplaceAll(stmt, "\r\n", lineBreakMarker)
	return strings.ReplaceAll(stmt, "\n", lineBreakMarker)
}

// decodeStatement восстанавливает переводы строк
// Любое "||" в тексте считается маркером, в том числе внутри значений
func decodeStatement(line string) string {
	return strings.ReplaceAll(line, lineBreakMarker, "\n")
}

// stagingPath - "<dir>/<base>.sql" или "<from>.sql"
func (e *Engine) stagingPath(fromFile string) string {
	if e.opts.StagingDir == "" {
		return fromFile + ".sql"
	}
	return filepath.Join(e.opts.StagingDir, filepath.Base(fromFile)+".sql")
}

// stagingWriter пишет по одному оператору на строку
type stagingWriter struct {
	f      *os.File
	bw     *bufio.Writer
	hasher *xxh3.Hasher
	count  int64
}

func createStaging(path string) (*stagingWriter, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create staging directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	hasher := xxh3.New()
	return &stagingWriter{
		f:      f,
		bw:     bufio.NewWriterSize(io.MultiWriter(f, hasher), 64*1024),
		hasher: hasher,
	}, nil
}

func (w *stagingWriter) Write(stmt string) error {
	if _, err := w.bw.WriteString(encodeStatement(stmt) + "\n"); err != nil {
		return fmt.Errorf("failed to write staging file: %w", err)
	}
	w.count++
	return nil
}

func (w *stagingWriter) Checksum() string {
	return fmt.Sprintf("%016x", w.hasher.Sum64())
}

func (w *stagingWriter) Close() error {
	flushErr := w.bw.Flush()
	closeErr := w.f.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush staging file: %w", flushErr)
	}
	return closeErr
}

// stagingReader читает операторы обратно
type stagingReader struct {
	f  *os.File
	br *bufio.Reader
}

func openStaging(path string) (*stagingReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging file: %w", err)
	}
	return &stagingReader{f: f, br: bufio.NewReaderSize(f, 64*1024)}, nil
}

// Next возвращает следующий непустой оператор или io.EOF
func (r *stagingReader) Next() (string, error) {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			if err != nil {
				return "", io.EOF
			}
			continue
		}
		return decodeStatement(line), nil
	}
}

func (r *stagingReader) Close() error {
	return r.f.Close()
}

// executable убирает завершающую ";" и пробелы вокруг
func executable(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	stmt = strings.TrimSuffix(stmt, ";")
	return strings.TrimSpace(stmt)
}
