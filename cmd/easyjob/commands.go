package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ruslano69/easyjob/pkg/audit"
	"github.com/ruslano69/easyjob/pkg/core/sqlgen"
	"github.com/ruslano69/easyjob/pkg/etl"
)

// requireArgs returns the positional arguments when their count is within [min, max].
func requireArgs(c *cli.Context, min, max int) ([]string, error) {
	args := c.Args().Slice()
	if len(args) < min || len(args) > max {
		if min == max {
			return nil, fmt.Errorf("%s: expected %d arguments (%s), got %d", c.Command.Name, min, c.Command.ArgsUsage, len(args))
		}
		return nil, fmt.Errorf("%s: expected %d to %d arguments (%s), got %d", c.Command.Name, min, max, c.Command.ArgsUsage, len(args))
	}
	return args, nil
}

// defaultTable derives a table name from a file name: base name up to the first '.'.
func defaultTable(file string) string {
	base := filepath.Base(file)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

func extractAction(c *cli.Context) error {
	args, err := requireArgs(c, 2, 2)
	if err != nil {
		return err
	}
	uri, toFile := args[0], args[1]
	table, query := c.String("table"), c.String("query")

	switch {
	case table == "" && query == "":
		return fmt.Errorf("extract: one of -t <table> or -q <query> is required")
	case table != "" && query != "":
		return fmt.Errorf("extract: -t and -q are mutually exclusive")
	}

	req := etl.ExtractRequest{Table: table, Query: query, Tagged: c.Bool("tagged")}
	j := job{
		op:       etl.OpExtract,
		uri:      uri,
		output:   toFile,
		resource: table,
		tail:     table,
		query:    query,
		run: func(ctx context.Context, eng *etl.Engine, local string) (etl.Result, error) {
			req.ToFile = local
			return eng.Extract(ctx, req)
		},
	}
	if query != "" {
		j.resource = "query"
		j.tail = filepath.Base(toFile)
	}
	return runJob(c, j)
}

func scriptAction(c *cli.Context) error {
	args, err := requireArgs(c, 2, 3)
	if err != nil {
		return err
	}
	uri, fromFile := args[0], args[1]

	params := map[string]string{}
	if len(args) == 3 {
		if params, err = etl.ParseParams(args[2]); err != nil {
			return err
		}
	}

	return runJob(c, job{
		op:       etl.OpScript,
		uri:      uri,
		input:    fromFile,
		resource: filepath.Base(fromFile),
		tail:     filepath.Base(fromFile),
		run: func(ctx context.Context, eng *etl.Engine, local string) (etl.Result, error) {
			return eng.ExecuteScript(ctx, etl.ScriptRequest{FromFile: local, Params: params})
		},
	})
}

func uploadAction(c *cli.Context) error {
	args, err := requireArgs(c, 2, 3)
	if err != nil {
		return err
	}
	uri, fromFile := args[0], args[1]

	mode, err := etl.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	table, tail := defaultTable(fromFile), filepath.Base(fromFile)
	if len(args) == 3 {
		table, tail = args[2], args[2]
	}

	return runJob(c, job{
		op:       etl.OpUpload,
		uri:      uri,
		input:    fromFile,
		resource: table,
		tail:     tail,
		run: func(ctx context.Context, eng *etl.Engine, local string) (etl.Result, error) {
			return eng.Upload(ctx, etl.UploadRequest{FromFile: local, Table: table, Mode: mode})
		},
	})
}

func updateAction(c *cli.Context) error {
	args, err := requireArgs(c, 5, 5)
	if err != nil {
		return err
	}
	uri, fromFile, table := args[0], args[1], args[2]
	req := etl.UpdateRequest{
		Table:        table,
		SetColumns:   sqlgen.SplitColumns(args[3]),
		MatchColumns: sqlgen.SplitColumns(args[4]),
	}

	return runJob(c, job{
		op:       etl.OpUpdate,
		uri:      uri,
		input:    fromFile,
		resource: table,
		tail:     table,
		run: func(ctx context.Context, eng *etl.Engine, local string) (etl.Result, error) {
			req.FromFile = local
			return eng.Update(ctx, req)
		},
	})
}

func historyAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Audit.Database == "" {
		return fmt.Errorf("history: audit.database is not configured")
	}

	store, err := audit.NewDatabaseAppender(c.Context, audit.DatabaseAppenderConfig{Path: cfg.Audit.Database})
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	return printHistory(c, entries)
}

func printHistory(c *cli.Context, entries []*audit.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(c.App.Writer, "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRUN ID\tOPERATION\tRESOURCE\tSTATUS\tROWS\tDURATION\tERROR")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.RunID, e.Operation, e.Resource, e.Status, e.RecordsAffected,
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			e.ErrorKind)
	}
	return w.Flush()
}
