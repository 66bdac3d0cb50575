package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DatabaseAppender хранит историю запусков в локальном файле SQLite
type DatabaseAppender struct {
	db        *sql.DB
	tableName string
	level     Level
}

// DatabaseAppenderConfig - параметры хранилища истории
type DatabaseAppenderConfig struct {
	// Path - файл SQLite (создается при отсутствии)
	Path string

	// TableName - таблица истории (по умолчанию easyjob_runs)
	TableName string

	Level Level
}

// NewDatabaseAppender открывает файл истории и создает таблицу
func NewDatabaseAppender(ctx context.Context, config DatabaseAppenderConfig) (*DatabaseAppender, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("audit database path is required")
	}
	if config.TableName == "" {
		config.TableName = "easyjob_runs"
	}
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	da := &DatabaseAppender{db: db, tableName: config.TableName, level: config.Level}
	if err := da.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}
	return da, nil
}

func (da *DatabaseAppender) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			operation TEXT NOT NULL,
			status TEXT NOT NULL,
			user_name TEXT,
			host TEXT,
			target TEXT,
			resource TEXT,
			file TEXT,
			records_affected INTEGER DEFAULT 0,
			statements INTEGER DEFAULT 0,
			commits INTEGER DEFAULT 0,
			checksum TEXT,
			duration_ms INTEGER DEFAULT 0,
			error_kind TEXT,
			error_message TEXT,
			metadata TEXT,
			query TEXT
		)`, da.tableName)
	if _, err := da.db.ExecContext(ctx, query); err != nil {
		return err
	}

	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_timestamp ON %s(timestamp)", da.tableName, da.tableName)
	_, err := da.db.ExecContext(ctx, index)
	return err
}

func (da *DatabaseAppender) Append(ctx context.Context, entry *Entry) error {
	e := entry.FilterByLevel(da.level)

	metadata := ""
	if len(e.Metadata) > 0 {
		data, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(data)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			run_id, timestamp, operation, status, user_name, host, target, resource, file,
			records_affected, statements, commits, checksum, duration_ms,
			error_kind, error_message, metadata, query
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, da.tableName)

	_, err := da.db.ExecContext(ctx, query,
		e.RunID, e.Timestamp.UTC(), e.Operation, string(e.Status), e.User, e.Host,
		e.Target, e.Resource, e.File,
		e.RecordsAffected, e.Statements, e.Commits, e.Checksum, e.DurationMs,
		e.ErrorKind, e.ErrorMessage, metadata, e.Query,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Recent возвращает последние limit записей, новые первыми
func (da *DatabaseAppender) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT run_id, timestamp, operation, status, user_name, host, target, resource, file,
			records_affected, statements, commits, checksum, duration_ms,
			error_kind, error_message, metadata, query
		FROM %s ORDER BY timestamp DESC LIMIT ?`, da.tableName)

	rows, err := da.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e        Entry
			ts       time.Time
			status   string
			metadata string
		)
		if err := rows.Scan(&e.RunID, &ts, &e.Operation, &status, &e.User, &e.Host,
			&e.Target, &e.Resource, &e.File,
			&e.RecordsAffected, &e.Statements, &e.Commits, &e.Checksum, &e.DurationMs,
			&e.ErrorKind, &e.ErrorMessage, &metadata, &e.Query); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = ts
		e.Status = Status(status)
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of %s: %w", e.RunID, err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count - число записей с заданным статусом ("" - все)
func (da *DatabaseAppender) Count(ctx context.Context, status Status) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE (? = '' OR status = ?)", da.tableName)
	var n int64
	if err := da.db.QueryRowContext(ctx, query, string(status), string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}

func (da *DatabaseAppender) Close() error {
	return da.db.Close()
}
