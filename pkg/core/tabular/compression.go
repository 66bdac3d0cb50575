package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression - тип сжатия файла, определяется по расширению
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionXz
)

// String - строковое представление
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionXz:
		return "xz"
	default:
		return "none"
	}
}

// DetectCompression определяет сжатие по расширению файла
func DetectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".xz":
		return CompressionXz
	default:
		return CompressionNone
	}
}

// wrapReader оборачивает r распаковщиком
// Возвращаемая функция закрывает только распаковщик, не исходный reader
func wrapReader(r io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case CompressionNone:
		return r, func() error { return nil }, nil

	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, gz.Close, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, func() error {
			dec.Close()
			return nil
		}, nil

	case CompressionXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression: %v", c)
	}
}

// wrapWriter оборачивает w упаковщиком
// Функция закрытия дописывает хвост потока и должна вызываться до закрытия файла
func wrapWriter(w io.Writer, c Compression) (io.Writer, func() error, error) {
	switch c {
	case CompressionNone:
		return w, func() error { return nil }, nil

	case CompressionGzip:
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return enc, enc.Close, nil

	case CompressionXz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xw, xw.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression: %v", c)
	}
}

// OpenText открывает файл на чтение с распаковкой по расширению
func OpenText(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	src, closeSrc, err := wrapReader(f, DetectCompression(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &textFile{Reader: src, closers: []func() error{closeSrc, f.Close}}, nil
}

type textFile struct {
	io.Reader
	closers []func() error
}

func (t *textFile) Close() error {
	var firstErr error
	for _, c := range t.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
