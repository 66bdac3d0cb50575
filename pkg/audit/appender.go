package audit

import (
	"context"
	"errors"
)

// Appender - приемник записей журнала
type Appender interface {
	Append(ctx context.Context, entry *Entry) error
	Close() error
}

// MultiAppender пишет в несколько приемников
// Ошибка одного приемника не останавливает запись в остальные
type MultiAppender struct {
	appenders []Appender
}

// NewMultiAppender - создать составной приемник
func NewMultiAppender(appenders ...Appender) *MultiAppender {
	return &MultiAppender{appenders: appenders}
}

// Add - добавить приемник
func (ma *MultiAppender) Add(appender Appender) {
	ma.appenders = append(ma.appenders, appender)
}

// Len - число приемников
func (ma *MultiAppender) Len() int {
	return len(ma.appenders)
}

func (ma *MultiAppender) Append(ctx context.Context, entry *Entry) error {
	var errs []error
	for _, a := range ma.appenders {
		if err := a.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ma *MultiAppender) Close() error {
	var errs []error
	for _, a := range ma.appenders {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
