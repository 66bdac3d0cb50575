package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Level - уровень детализации журнала
type Level int

const (
	// LevelMinimal - только итог операции
	LevelMinimal Level = iota

	// LevelStandard - итог и метаданные
	LevelStandard

	// LevelFull - все поля, включая текст запроса
	LevelFull
)

// String - строковое представление уровня
func (l Level) String() string {
	switch l {
	case LevelMinimal:
		return "minimal"
	case LevelStandard:
		return "standard"
	case LevelFull:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// ParseLevel разбирает имя уровня; пустая строка - standard
func ParseLevel(s string) (Level, error) {
	switch s {
	case "minimal":
		return LevelMinimal, nil
	case "", "standard":
		return LevelStandard, nil
	case "full":
		return LevelFull, nil
	default:
		return LevelStandard, fmt.Errorf("unknown audit level %q", s)
	}
}

// Status - исход операции
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Entry - запись журнала об одном запуске
type Entry struct {
	// RunID - идентификатор запуска (общий с журналом результатов)
	RunID string `json:"run_id"`

	Timestamp time.Time `json:"timestamp"`

	// Operation - extract, upload, update, script
	Operation string `json:"operation"`

	Status Status `json:"status"`

	// User - пользователь ОС
	User string `json:"user,omitempty"`

	// Host - машина, где выполнялся запуск
	Host string `json:"host,omitempty"`

	// Target - адрес БД без пароля
	Target string `json:"target,omitempty"`

	// Resource - таблица или запрос
	Resource string `json:"resource,omitempty"`

	// File - входной или выходной файл
	File string `json:"file,omitempty"`

	RecordsAffected int64  `json:"records_affected"`
	Statements      int64  `json:"statements,omitempty"`
	Commits         int    `json:"commits,omitempty"`
	Checksum        string `json:"checksum,omitempty"`

	// DurationMs - длительность в миллисекундах
	DurationMs int64 `json:"duration_ms"`

	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	// Query - текст запроса или скрипта (только LevelFull)
	Query string `json:"query,omitempty"`
}

// NewEntry создает запись с новым RunID
func NewEntry(operation string) *Entry {
	return &Entry{
		RunID:     uuid.NewString(),
		Timestamp: time.Now(),
		Operation: operation,
		Status:    StatusSuccess,
	}
}

// WithRunID - заменить идентификатор запуска
func (e *Entry) WithRunID(id string) *Entry {
	e.RunID = id
	return e
}

// WithTarget - установить адрес БД
func (e *Entry) WithTarget(target string) *Entry {
	e.Target = target
	return e
}

// WithResource - установить таблицу или запрос
func (e *Entry) WithResource(resource string) *Entry {
	e.Resource = resource
	return e
}

// WithFile - установить файл
func (e *Entry) WithFile(file string) *Entry {
	e.File = file
	return e
}

// WithCounts - установить счетчики операции
func (e *Entry) WithCounts(records, statements int64, commits int) *Entry {
	e.RecordsAffected = records
	e.Statements = statements
	e.Commits = commits
	return e
}

// WithChecksum - установить контрольную сумму
func (e *Entry) WithChecksum(sum string) *Entry {
	e.Checksum = sum
	return e
}

// WithDuration - установить длительность
func (e *Entry) WithDuration(d time.Duration) *Entry {
	e.DurationMs = d.Milliseconds()
	return e
}

// WithError - отметить неудачу; nil ничего не меняет
func (e *Entry) WithError(kind string, err error) *Entry {
	if err != nil {
		e.Status = StatusFailure
		e.ErrorKind = kind
		e.ErrorMessage = err.Error()
	}
	return e
}

// WithMetadata - добавить метаданные
func (e *Entry) WithMetadata(key, value string) *Entry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// WithQuery - установить текст запроса
func (e *Entry) WithQuery(q string) *Entry {
	e.Query = q
	return e
}

// ToJSON - одна строка JSON
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Entry) String() string {
	s := fmt.Sprintf("[%s] %s %s %s (resource=%s, records=%d, duration=%dms)",
		e.Timestamp.Format(time.RFC3339), e.RunID, e.Operation, e.Status,
		e.Resource, e.RecordsAffected, e.DurationMs)
	if e.ErrorMessage != "" {
		s += ": " + e.ErrorMessage
	}
	return s
}

// Clone - копия записи
func (e *Entry) Clone() *Entry {
	clone := *e
	if e.Metadata != nil {
		clone.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// FilterByLevel - копия записи с полями, разрешенными уровнем
func (e *Entry) FilterByLevel(level Level) *Entry {
	filtered := e.Clone()
	switch level {
	case LevelMinimal:
		filtered.Metadata = nil
		filtered.Query = ""
		filtered.User = ""
		filtered.Host = ""
	case LevelStandard:
		filtered.Query = ""
	}
	return filtered
}
