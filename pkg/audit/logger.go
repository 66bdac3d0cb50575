// Package audit ведет журнал запусков: одна запись на операцию.
package audit

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"sync"
	"time"
)

// Logger - журнал аудита
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	Close() error
}

// LoggerConfig - параметры журнала
type LoggerConfig struct {
	// DefaultUser - пользователь, если в записи не задан (пусто - пользователь ОС)
	DefaultUser string

	// DefaultHost - машина, если в записи не задана (пусто - os.Hostname)
	DefaultHost string

	// OnError - вызывается при ошибке приемника
	OnError func(error)
}

// AuditLogger пишет записи синхронно во все приемники
type AuditLogger struct {
	mu        sync.Mutex
	appenders []Appender
	config    LoggerConfig
	closed    bool
}

// NewLogger - создать журнал
func NewLogger(config LoggerConfig, appenders ...Appender) *AuditLogger {
	if config.DefaultUser == "" {
		if u, err := user.Current(); err == nil {
			config.DefaultUser = u.Username
		}
	}
	if config.DefaultHost == "" {
		if h, err := os.Hostname(); err == nil {
			config.DefaultHost = h
		}
	}
	return &AuditLogger{appenders: appenders, config: config}
}

// Log дополняет запись значениями по умолчанию и передает приемникам
// Возвращает первую ошибку, остальные приемники все равно получают запись
func (l *AuditLogger) Log(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry is nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("audit logger is closed")
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.User == "" {
		entry.User = l.config.DefaultUser
	}
	if entry.Host == "" {
		entry.Host = l.config.DefaultHost
	}

	var firstErr error
	for _, a := range l.appenders {
		if err := a.Append(ctx, entry); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			l.handleError(fmt.Errorf("appender failed: %w", err))
		}
	}
	return firstErr
}

// AddAppender - добавить приемник
func (l *AuditLogger) AddAppender(a Appender) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appenders = append(l.appenders, a)
}

// Close закрывает все приемники; повторный вызов ничего не делает
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	var firstErr error
	for _, a := range l.appenders {
		if err := a.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			l.handleError(fmt.Errorf("close failed: %w", err))
		}
	}
	return firstErr
}

func (l *AuditLogger) handleError(err error) {
	if l.config.OnError != nil {
		l.config.OnError(err)
	}
}

// NullLogger - журнал, который ничего не пишет (аудит выключен)
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (NullLogger) Log(ctx context.Context, entry *Entry) error { return nil }

func (NullLogger) Close() error { return nil }
