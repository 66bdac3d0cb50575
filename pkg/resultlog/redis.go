// Package resultlog публикует итог запуска в Redis.
package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/etl"
)

// Config - параметры публикации
type Config struct {
	// Name - имя задания в ключах Redis
	Name     string
	Address  string
	Password string
	DB       int

	// TTL - время жизни ключа состояния в секундах (0 - без срока)
	TTL int
}

// RunResult - состояние запуска, публикуемое в Redis
//
//	SET  easyjob:job:<name>:state  <JSON>  EX <ttl>
//	PUB  easyjob:job:<name>        <JSON>
type RunResult struct {
	JobName    string    `json:"job_name"`
	RunID      string    `json:"run_id"`
	Operation  string    `json:"operation"`
	Resource   string    `json:"resource,omitempty"`
	Status     string    `json:"status"` // "success" | "failed"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Rows       int64     `json:"rows"`
	Statements int64     `json:"statements"`
	Commits    int       `json:"commits"`
	Checksum   string    `json:"checksum,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      *string   `json:"error,omitempty"`
}

// NewRunResult собирает состояние из итога операции; execErr == nil - успех
func NewRunResult(runID, resource string, res etl.Result, execErr error) RunResult {
	r := RunResult{
		RunID:      runID,
		Operation:  string(res.Operation),
		Resource:   resource,
		Status:     "success",
		StartedAt:  res.StartTime,
		FinishedAt: res.EndTime,
		DurationMs: res.Duration.Milliseconds(),
		Rows:       res.Rows,
		Statements: res.Statements,
		Commits:    res.Commits,
		Checksum:   res.Checksum,
	}
	if execErr != nil {
		r.Status = "failed"
		msg := execErr.Error()
		r.Error = &msg
		r.ErrorKind = string(failure.KindOf(execErr))
	}
	return r
}

// StateKey - ключ последнего состояния задания
func StateKey(name string) string {
	return fmt.Sprintf("easyjob:job:%s:state", name)
}

// EventChannel - канал событий задания
func EventChannel(name string) string {
	return fmt.Sprintf("easyjob:job:%s", name)
}

// RedisPublisher публикует итог запуска
type RedisPublisher struct {
	client *redis.Client
	config Config
}

// NewRedisPublisher - создать publisher; соединение устанавливается при первой команде
func NewRedisPublisher(config Config) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisPublisher{client: client, config: config}
}

// Publish пишет состояние (SET с TTL) и рассылает его подписчикам (PUBLISH)
// Вызывается при любом исходе запуска
func (p *RedisPublisher) Publish(ctx context.Context, result RunResult) error {
	result.JobName = p.config.Name

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ttl := time.Duration(p.config.TTL) * time.Second
	if err := p.client.Set(ctx, StateKey(p.config.Name), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	if err := p.client.Publish(ctx, EventChannel(p.config.Name), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
