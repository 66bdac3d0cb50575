// Package retry повторяет операцию с задержкой между попытками.
//
// Используется только для получения соединения; операции переноса
// данных никогда не повторяются.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrAttemptsExceeded - все попытки исчерпаны
var ErrAttemptsExceeded = errors.New("max retry attempts exceeded")

// RetryableFunc - повторяемая функция
type RetryableFunc func(ctx context.Context) error

// Retryer выполняет функцию до успеха, неповторяемой ошибки или исчерпания попыток
type Retryer struct {
	config Config
}

// NewRetryer - создать Retryer по проверенной конфигурации
func NewRetryer(config Config) (*Retryer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &Retryer{config: config}, nil
}

// Do выполняет fn; возвращаемая ошибка оборачивает последнюю ошибку fn
func (r *Retryer) Do(ctx context.Context, fn RetryableFunc) error {
	if !r.config.Enabled {
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if r.config.Retryable != nil && !r.config.Retryable(err) {
			return err
		}
		if r.config.MaxAttempts > 0 && attempt >= r.config.MaxAttempts {
			return fmt.Errorf("%w (%d): %w", ErrAttemptsExceeded, r.config.MaxAttempts, err)
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt, errors.Join(ctx.Err(), err))
		}
	}
}

// calculateDelay - задержка перед попыткой attempt+1
func (r *Retryer) calculateDelay(attempt int) time.Duration {
	var delay time.Duration
	switch r.config.BackoffStrategy {
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1)))
	default:
		delay = r.config.InitialDelay
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	if r.config.Jitter > 0 {
		delay += time.Duration(float64(delay) * r.config.Jitter * (rand.Float64()*2 - 1))
		if delay < 0 {
			delay = r.config.InitialDelay
		}
	}
	return delay
}
