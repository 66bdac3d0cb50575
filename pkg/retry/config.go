package retry

import (
	"fmt"
	"time"
)

// BackoffStrategy - стратегия задержки между попытками
type BackoffStrategy string

const (
	// BackoffConstant - постоянная задержка
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear - задержка растет линейно
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential - задержка растет экспоненциально
	BackoffExponential BackoffStrategy = "exponential"
)

// Config - параметры повторов получения соединения
type Config struct {
	// Enabled - false означает ровно одну попытку
	Enabled bool

	// MaxAttempts - число попыток, включая первую (0 - без ограничения)
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	BackoffStrategy BackoffStrategy

	// BackoffMultiplier - основание для exponential (по умолчанию 2.0)
	BackoffMultiplier float64

	// Jitter - доля случайного разброса задержки (0.0 - 1.0)
	Jitter float64

	// Retryable решает, стоит ли повторять после ошибки (nil - повторять всегда)
	Retryable func(err error) bool

	// OnRetry вызывается перед ожиданием очередной попытки
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Validate проверяет параметры и подставляет множитель по умолчанию
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.MaxDelay, c.InitialDelay)
	}
	switch c.BackoffStrategy {
	case BackoffConstant, BackoffLinear, BackoffExponential:
	default:
		return fmt.Errorf("invalid backoff strategy: %q", c.BackoffStrategy)
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2.0
	}
	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}
	return nil
}

// DefaultConfig - повторы выключены; при включении 3 попытки с ростом от 1с до 30с
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		BackoffStrategy:   BackoffExponential,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

// EnableRetry - включенные повторы с заданным числом попыток и начальной задержкой
func EnableRetry(maxAttempts int, initialDelay time.Duration) Config {
	config := DefaultConfig()
	config.Enabled = true
	config.MaxAttempts = maxAttempts
	config.InitialDelay = initialDelay
	if config.MaxDelay < initialDelay {
		config.MaxDelay = initialDelay
	}
	return config
}
