package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file (default: ./" + DefaultConfigFile + " when present)",
		},
		&cli.StringFlag{
			Name:  "log_dir",
			Usage: "Log directory (default: <cwd>/log/<log_date>)",
		},
		&cli.StringFlag{
			Name:  "log_date",
			Usage: "Business date used in the log path, YYYYmmdd (default: today)",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Rows per chunk and statements per commit (overrides config)",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Disable the progress bar",
		},
	}
}

func separateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "separate",
		Usage: "Field separator (overrides config, default \",\")",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "easyjob",
		Usage:   "Bulk transfer between delimited files and MySQL",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "create-config",
				Usage: "Write a sample configuration to the given file and exit",
			},
		},
		Action: func(c *cli.Context) error {
			if path := c.String("create-config"); path != "" {
				if err := SaveConfig(path, CreateSampleConfig()); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "sample configuration written to %s\n", path)
				return nil
			}
			return cli.ShowAppHelp(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Export a table or query result to a file",
				ArgsUsage: "<uri> <to_file>",
				Flags: append(commonFlags(),
					&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Usage: "Table to export"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "SELECT query to export"},
					&cli.BoolFlag{Name: "tagged", Usage: "Write name|TYPE headers (table mode only)"},
					separateFlag(),
				),
				Action: extractAction,
			},
			{
				Name:      "script",
				Usage:     "Execute a SQL file statement by statement",
				ArgsUsage: "<uri> <from_file> [<k1=v1,k2=v2>]",
				Flags:     commonFlags(),
				Action:    scriptAction,
			},
			{
				Name:      "upload",
				Usage:     "Insert file rows into a table",
				ArgsUsage: "<uri> <from_file> [<to_table>]",
				Flags: append(commonFlags(),
					&cli.StringFlag{Name: "mode", Value: "append", Usage: "append or create (drop, infer types, create)"},
					separateFlag(),
				),
				Action: uploadAction,
			},
			{
				Name:      "update",
				Usage:     "Update table rows from a file",
				ArgsUsage: "<uri> <from_file> <to_table> <update_columns> <update_condition_cols>",
				Flags:     append(commonFlags(), separateFlag()),
				Action:    updateAction,
			},
			{
				Name:  "history",
				Usage: "List recent runs from the audit database",
				Flags: append(commonFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Number of runs to show"},
				),
				Action: historyAction,
			},
		},
	}
}

func commandNames(app *cli.App) map[string]bool {
	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
		for _, alias := range cmd.Aliases {
			names[alias] = true
		}
	}
	return names
}

func main() {
	app := newApp()
	if err := app.Run(normalizeArgs(os.Args, commandNames(app))); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
