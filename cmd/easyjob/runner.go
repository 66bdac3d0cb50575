package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ruslano69/easyjob/pkg/adapters"
	"github.com/ruslano69/easyjob/pkg/adapters/mysql"
	"github.com/ruslano69/easyjob/pkg/audit"
	"github.com/ruslano69/easyjob/pkg/core/failure"
	"github.com/ruslano69/easyjob/pkg/dsn"
	"github.com/ruslano69/easyjob/pkg/etl"
	"github.com/ruslano69/easyjob/pkg/progress"
	"github.com/ruslano69/easyjob/pkg/resultlog"
	"github.com/ruslano69/easyjob/pkg/retry"
	"github.com/ruslano69/easyjob/pkg/storage"
)

// job describes one CLI invocation of an engine entry point.
type job struct {
	op  etl.Operation
	uri string

	// input is read by upload/update/script, output is written by extract.
	// Either may be an s3:// URI.
	input  string
	output string

	// resource is the table (or query) recorded in the audit journal.
	resource string

	// tail is the last part of the log file name.
	tail string

	// query is the statement text kept at audit level "full".
	query string

	run func(ctx context.Context, eng *etl.Engine, local string) (etl.Result, error)
}

// loadConfig resolves the config file and applies command-line overrides.
func loadConfig(c *cli.Context) (*Config, error) {
	cfg, err := ResolveConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("separate") {
		cfg.Transfer.Separator = c.String("separate")
	}
	if c.IsSet("chunk-size") {
		cfg.Transfer.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("log_dir") {
		cfg.Log.Dir = c.String("log_dir")
	}
	if c.Bool("no-progress") {
		cfg.Progress = false
	}
	return cfg, cfg.Validate()
}

// runJob opens the run log, executes the job and records the outcome.
// A failed run renames its log to ERROR_<name> and returns a non-nil error.
func runJob(c *cli.Context, j job) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	now := time.Now()
	logDate := c.String("log_date")
	if logDate == "" {
		logDate = now.Format("20060102")
	}
	rl, err := openRunLog(cfg.Log, logDate, j.tail, now, c.App.Writer)
	if err != nil {
		return err
	}
	logger := rl.Logger

	runID := uuid.NewString()
	logger.Info("run started", "run_id", runID, "operation", string(j.op), "version", version)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, res, runErr := execute(ctx, cfg, j, logger)
	if runErr != nil {
		logger.Error("run failed", "run_id", runID, "kind", string(failure.KindOf(runErr)), "error", runErr)
	}

	record(context.WithoutCancel(ctx), cfg, j, runID, target, res, runErr, logger)

	closeErr := rl.Close(runErr != nil)
	if runErr != nil {
		return fmt.Errorf("%s failed: %w (log: %s)", j.op, runErr, rl.Path())
	}
	return closeErr
}

// execute connects, resolves remote files and runs the engine.
func execute(ctx context.Context, cfg *Config, j job, logger *slog.Logger) (dsn.Target, etl.Result, error) {
	res := etl.Result{Operation: j.op}

	target, err := dsn.Parse(j.uri)
	if err != nil {
		return target, res, err
	}

	var store *storage.Client
	if storage.IsRemote(j.input) || storage.IsRemote(j.output) {
		store, err = storage.New(ctx, cfg.StorageConfig())
		if err != nil {
			return target, res, err
		}
		defer store.Close()
	}

	local := j.input
	switch {
	case store != nil && j.output != "":
		if local, err = store.Output(j.output); err != nil {
			return target, res, err
		}
	case store != nil:
		logger.Info("download input", "file", j.input)
		if local, err = store.Fetch(ctx, j.input); err != nil {
			return target, res, err
		}
	case j.output != "":
		local = j.output
	}

	conn, err := connect(ctx, cfg, target, logger)
	if err != nil {
		return target, res, err
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to close connection", "error", err)
		}
	}()

	opts := cfg.EngineOptions()
	if cfg.Progress {
		opts.Observer = progress.New(os.Stderr)
	}
	eng := etl.New(conn, logger, opts)

	res, err = j.run(ctx, eng, local)
	if err != nil {
		return target, res, err
	}

	if store != nil && j.output != "" {
		logger.Info("upload output", "file", j.output)
		if err := store.Store(ctx, local, j.output); err != nil {
			return target, res, err
		}
	}
	return target, res, nil
}

// connect opens the session, retrying transient failures when enabled.
func connect(ctx context.Context, cfg *Config, target dsn.Target, logger *slog.Logger) (adapters.Adapter, error) {
	policy := cfg.RetryPolicy()
	policy.Retryable = mysql.IsRetryable
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("connect failed, retrying", "attempt", attempt, "delay", delay, "error", err)
	}
	retryer, err := retry.NewRetryer(policy)
	if err != nil {
		return nil, err
	}

	acfg := cfg.ConnectionConfig()
	acfg.Target = target

	var conn adapters.Adapter
	err = retryer.Do(ctx, func(ctx context.Context) error {
		a, err := adapters.New(ctx, acfg)
		if err != nil {
			return err
		}
		conn = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if v, err := conn.GetDatabaseVersion(ctx); err == nil {
		logger.Info("connected", "target", target.String(), "version", v)
	} else {
		logger.Info("connected", "target", target.String())
	}
	return conn, nil
}

// record writes the audit entry and publishes the result; failures are only logged.
func record(ctx context.Context, cfg *Config, j job, runID string, target dsn.Target,
	res etl.Result, runErr error, logger *slog.Logger) {

	if cfg.Audit.Enabled {
		journal, err := openAudit(ctx, cfg.Audit, logger)
		if err != nil {
			logger.Warn("audit journal unavailable", "error", err)
		} else {
			file := j.input
			if j.output != "" {
				file = j.output
			}
			entry := audit.NewEntry(string(j.op)).
				WithRunID(runID).
				WithTarget(target.String()).
				WithResource(j.resource).
				WithFile(file).
				WithCounts(res.Rows, res.Statements, res.Commits).
				WithChecksum(res.Checksum).
				WithDuration(res.Duration).
				WithQuery(j.query).
				WithError(string(failure.KindOf(runErr)), runErr)
			if err := journal.Log(ctx, entry); err != nil {
				logger.Warn("failed to write audit entry", "error", err)
			}
			journal.Close()
		}
	}

	if cfg.ResultLog.Enabled {
		pub := resultlog.NewRedisPublisher(resultlog.Config{
			Name:     cfg.ResultLog.Name,
			Address:  cfg.ResultLog.Address,
			Password: cfg.ResultLog.Password,
			DB:       cfg.ResultLog.DB,
			TTL:      cfg.ResultLog.TTL,
		})
		defer pub.Close()

		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := pub.Publish(pctx, resultlog.NewRunResult(runID, j.resource, res, runErr)); err != nil {
			logger.Warn("failed to publish run result", "error", err)
		}
	}
}

// openAudit builds the journal from the configured appenders.
func openAudit(ctx context.Context, cfg AuditConfig, logger *slog.Logger) (*audit.AuditLogger, error) {
	level, err := audit.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var appenders []audit.Appender
	closeAll := func() {
		for _, a := range appenders {
			a.Close()
		}
	}

	if cfg.File != "" {
		fa, err := audit.NewFileAppender(audit.FileAppenderConfig{
			FilePath: cfg.File,
			MaxSize:  int64(cfg.MaxSize),
			Level:    level,
		})
		if err != nil {
			return nil, err
		}
		appenders = append(appenders, fa)
	}
	if cfg.Database != "" {
		da, err := audit.NewDatabaseAppender(ctx, audit.DatabaseAppenderConfig{Path: cfg.Database, Level: level})
		if err != nil {
			closeAll()
			return nil, err
		}
		appenders = append(appenders, da)
	}
	if cfg.Console {
		appenders = append(appenders, audit.NewWriterAppender(os.Stdout, level))
	}
	if len(appenders) == 0 {
		return nil, fmt.Errorf("audit is enabled but no file, database or console output is configured")
	}

	return audit.NewLogger(audit.LoggerConfig{
		OnError: func(err error) { logger.Warn("audit appender error", "error", err) },
	}, audit.NewMultiAppender(appenders...)), nil
}
