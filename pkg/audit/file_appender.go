package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileAppender дописывает записи в файл, по одной строке JSON
type FileAppender struct {
	mu          sync.Mutex
	file        *os.File
	filePath    string
	maxSize     int64
	maxBackups  int
	currentSize int64
	level       Level
}

// FileAppenderConfig - параметры файлового приемника
type FileAppenderConfig struct {
	FilePath string

	// MaxSize - размер файла для ротации, МБ (0 - 100)
	MaxSize int64

	// MaxBackups - число старых файлов .1, .2, ... (0 - 5)
	MaxBackups int

	Level Level
}

// NewFileAppender открывает (или создает) файл журнала на дозапись
func NewFileAppender(config FileAppenderConfig) (*FileAppender, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat audit file: %w", err)
	}

	if config.MaxSize <= 0 {
		config.MaxSize = 100
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = 5
	}

	return &FileAppender{
		file:        file,
		filePath:    config.FilePath,
		maxSize:     config.MaxSize * 1024 * 1024,
		maxBackups:  config.MaxBackups,
		currentSize: info.Size(),
		level:       config.Level,
	}, nil
}

func (fa *FileAppender) Append(ctx context.Context, entry *Entry) error {
	data, err := entry.FilterByLevel(fa.level).ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.currentSize > 0 && fa.currentSize+int64(len(data)) > fa.maxSize {
		if err := fa.rotate(); err != nil {
			return fmt.Errorf("failed to rotate audit file: %w", err)
		}
	}

	n, err := fa.file.Write(data)
	fa.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// rotate сдвигает file.1 -> file.2 ..., текущий файл становится file.1
func (fa *FileAppender) rotate() error {
	if err := fa.file.Close(); err != nil {
		return err
	}

	os.Remove(fmt.Sprintf("%s.%d", fa.filePath, fa.maxBackups))
	for i := fa.maxBackups - 1; i > 0; i-- {
		old := fmt.Sprintf("%s.%d", fa.filePath, i)
		if _, err := os.Stat(old); err == nil {
			os.Rename(old, fmt.Sprintf("%s.%d", fa.filePath, i+1))
		}
	}
	if err := os.Rename(fa.filePath, fa.filePath+".1"); err != nil {
		return err
	}

	file, err := os.OpenFile(fa.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	fa.file = file
	fa.currentSize = 0
	return nil
}

// Flush - сбросить файл на диск
func (fa *FileAppender) Flush() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.file.Sync()
}

func (fa *FileAppender) Close() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.file == nil {
		return nil
	}
	err := fa.file.Close()
	fa.file = nil
	return err
}

// FilePath - путь к файлу журнала
func (fa *FileAppender) FilePath() string {
	return fa.filePath
}

// WriterAppender пишет краткую строку записи в поток (консоль)
type WriterAppender struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewWriterAppender - приемник поверх io.Writer
func NewWriterAppender(w io.Writer, level Level) *WriterAppender {
	return &WriterAppender{w: w, level: level}
}

func (wa *WriterAppender) Append(ctx context.Context, entry *Entry) error {
	wa.mu.Lock()
	defer wa.mu.Unlock()
	_, err := fmt.Fprintln(wa.w, entry.FilterByLevel(wa.level).String())
	return err
}

func (wa *WriterAppender) Close() error { return nil }
