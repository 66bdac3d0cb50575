package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/easyjob/pkg/adapters"
	"github.com/ruslano69/easyjob/pkg/etl"
	"github.com/ruslano69/easyjob/pkg/retry"
	"github.com/ruslano69/easyjob/pkg/storage"
)

// DefaultConfigFile is read when --config is not given and the file exists.
const DefaultConfigFile = "easyjob.yaml"

// Config represents the main configuration structure
type Config struct {
	Transfer  TransferConfig  `yaml:"transfer"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Audit     AuditConfig     `yaml:"audit,omitempty"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	S3        S3Config        `yaml:"s3,omitempty"`
	ResultLog ResultLogConfig `yaml:"result_log,omitempty"`
	Progress  bool            `yaml:"progress"`
}

// TransferConfig contains chunking and file format settings
type TransferConfig struct {
	ChunkSize   int      `yaml:"chunk_size"`            // Rows per read chunk and statements per commit
	Separator   string   `yaml:"separator"`             // Field separator
	NullValues  []string `yaml:"null_values,omitempty"` // Tokens read as NULL (empty = pandas defaults)
	StagingDir  string   `yaml:"staging_dir,omitempty"` // Where <file>.sql is written (empty = next to input)
	KeepStaging bool     `yaml:"keep_staging,omitempty"`
}

// DatabaseConfig contains driver timeouts in seconds
type DatabaseConfig struct {
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
	DialTimeout  int    `yaml:"dial_timeout"`
	Charset      string `yaml:"charset"`
}

// LogConfig contains run log settings
type LogConfig struct {
	Dir    string `yaml:"dir,omitempty"` // Empty = <cwd>/log/<log_date>
	Level  string `yaml:"level"`         // debug, info, warn, error
	Format string `yaml:"format"`        // text, json
	Stdout bool   `yaml:"stdout"`        // Mirror the run log to stdout
}

// AuditConfig for the run journal
type AuditConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Level    string `yaml:"level"`              // minimal, standard, full
	File     string `yaml:"file,omitempty"`     // JSON lines file
	MaxSize  int    `yaml:"max_size_mb,omitempty"`
	Database string `yaml:"database,omitempty"` // SQLite history file (enables `history`)
	Console  bool   `yaml:"console,omitempty"`
}

// RetryConfig for connection retry settings
type RetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MaxAttempts int    `yaml:"max_attempts"`
	Strategy    string `yaml:"strategy"` // constant, linear, exponential
	InitialWait int    `yaml:"initial_wait_ms"`
	MaxWait     int    `yaml:"max_wait_ms"`
	Jitter      bool   `yaml:"jitter"`
}

// S3Config for s3:// input and output files
type S3Config struct {
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty"`
}

// ResultLogConfig for publishing run results to Redis
type ResultLogConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Name     string `yaml:"name,omitempty"`
	Address  string `yaml:"address,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	TTL      int    `yaml:"ttl,omitempty"` // Seconds
}

// DefaultConfig returns the settings used when no config file is present
func DefaultConfig() *Config {
	return &Config{
		Transfer: TransferConfig{
			ChunkSize: etl.DefaultChunkSize,
			Separator: ",",
		},
		Database: DatabaseConfig{
			ReadTimeout:  int(adapters.DefaultReadTimeout / time.Second),
			WriteTimeout: int(adapters.DefaultWriteTimeout / time.Second),
			DialTimeout:  int(adapters.DefaultDialTimeout / time.Second),
			Charset:      adapters.DefaultCharset,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Audit: AuditConfig{
			Level: "standard",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Strategy:    "exponential",
			InitialWait: 1000,
			MaxWait:     30000,
			Jitter:      true,
		},
		Progress: true,
	}
}

// LoadConfig loads configuration from YAML file on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return config, nil
}

// ResolveConfig loads an explicit config file, or easyjob.yaml when present, or defaults
func ResolveConfig(filename string) (*Config, error) {
	if filename != "" {
		return LoadConfig(filename)
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return LoadConfig(DefaultConfigFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", DefaultConfigFile, err)
	}
	return DefaultConfig(), nil
}

// SaveConfig saves configuration to YAML file
func SaveConfig(filename string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateSampleConfig returns a config with every optional section filled in
func CreateSampleConfig() *Config {
	config := DefaultConfig()
	config.Transfer.StagingDir = "staging"
	config.Log.Stdout = true
	config.Audit = AuditConfig{
		Enabled:  true,
		Level:    "standard",
		File:     "log/audit.jsonl",
		MaxSize:  100,
		Database: "log/history.db",
	}
	config.Retry.Enabled = true
	config.S3 = S3Config{
		Region:       "us-east-1",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}
	config.ResultLog = ResultLogConfig{
		Name:    "nightly",
		Address: "localhost:6379",
		TTL:     86400,
	}
	return config
}

// Validate checks values the engine cannot default on its own
func (c *Config) Validate() error {
	if c.Transfer.ChunkSize < 0 {
		return fmt.Errorf("transfer.chunk_size must be >= 0, got %d", c.Transfer.ChunkSize)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.ResultLog.Enabled && (c.ResultLog.Name == "" || c.ResultLog.Address == "") {
		return fmt.Errorf("result_log requires name and address")
	}
	if c.Retry.Enabled {
		rc := c.RetryPolicy()
		if err := rc.Validate(); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	return nil
}

// EngineOptions maps the transfer section onto engine options
func (c *Config) EngineOptions() etl.Options {
	return etl.Options{
		ChunkSize:   c.Transfer.ChunkSize,
		Separator:   c.Transfer.Separator,
		NullValues:  c.Transfer.NullValues,
		StagingDir:  c.Transfer.StagingDir,
		KeepStaging: c.Transfer.KeepStaging,
	}
}

// ConnectionConfig maps the database section onto adapter settings
func (c *Config) ConnectionConfig() adapters.Config {
	return adapters.Config{
		ReadTimeout:  time.Duration(c.Database.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(c.Database.WriteTimeout) * time.Second,
		DialTimeout:  time.Duration(c.Database.DialTimeout) * time.Second,
		Charset:      c.Database.Charset,
	}
}

// RetryPolicy maps the retry section onto a retry.Config
func (c *Config) RetryPolicy() retry.Config {
	rc := retry.DefaultConfig()
	rc.Enabled = c.Retry.Enabled
	if c.Retry.MaxAttempts > 0 {
		rc.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.Strategy != "" {
		rc.BackoffStrategy = retry.BackoffStrategy(c.Retry.Strategy)
	}
	if c.Retry.InitialWait > 0 {
		rc.InitialDelay = time.Duration(c.Retry.InitialWait) * time.Millisecond
	}
	if c.Retry.MaxWait > 0 {
		rc.MaxDelay = time.Duration(c.Retry.MaxWait) * time.Millisecond
	}
	if !c.Retry.Jitter {
		rc.Jitter = 0
	}
	return rc
}

// StorageConfig maps the s3 section onto storage settings
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		UsePathStyle:    c.S3.UsePathStyle,
	}
}
