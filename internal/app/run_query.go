package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bgunnarsson/sqlbind/bridge"
	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/internal/export"
	"github.com/bgunnarsson/sqlbind/internal/print"
)

func (a *App) runNonInteractive() error {
	if a.query == "" {
		// default behaviour: list tables
		return a.withDB(a.listTables)
	}
	return a.withDB(func(d db.DB) error {
		return a.runQuery(d, a.query, nil)
	})
}

func (a *App) withDB(fn func(d db.DB) error) error {
	d, err := a.open()
	if err != nil {
		return err
	}
	defer d.Close()

	return fn(d)
}

func (a *App) render(t *bridge.Table, took time.Duration) error {
	if err := print.Render(a.out, t, a.printOptions()); err != nil {
		return err
	}
	if a.cfg.Format != string(print.FormatMarkdown) {
		fmt.Fprintln(a.out, print.Footer(t, took))
	}
	return nil
}

func (a *App) runQuery(d db.DB, sql string, args []any) error {
	start := time.Now()
	t, err := db.Query(a.ctx, d, sql, args...)
	if err != nil {
		return err
	}
	return a.render(t, time.Since(start))
}

func (a *App) listTables(d db.DB) error {
	start := time.Now()
	names, err := d.ListTables(a.ctx)
	if err != nil {
		return err
	}

	t := &bridge.Table{Columns: []bridge.Column{{Name: "name"}}}
	for _, n := range names {
		t.Rows = append(t.Rows, []any{n})
	}
	return a.render(t, time.Since(start))
}

func stringArgs(args []string) []any {
	out := make([]any, len(args))
	for i, s := range args {
		out[i] = s
	}
	return out
}

func (a *App) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>...",
		Short: "Execute statements, discarding any rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(d db.DB) error {
				for _, sql := range args {
					if err := db.Exec(a.ctx, d, sql); err != nil {
						return err
					}
				}
				fmt.Fprintf(a.out, "ok (%s executed)\n", plural(len(args), "statement"))
				return nil
			})
		},
	}
}

func (a *App) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql> [arg]...",
		Short: "Run a query, binding the remaining arguments to its ? placeholders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(d db.DB) error {
				return a.runQuery(d, args[0], stringArgs(args[1:]))
			})
		},
	}
}

func (a *App) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(a.listTables)
		},
	}
}

func (a *App) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "List the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(d db.DB) error {
				start := time.Now()
				cols, err := d.DescribeTable(a.ctx, args[0])
				if err != nil {
					return err
				}
				if len(cols) == 0 {
					return fmt.Errorf("%s: no such table", args[0])
				}

				t := &bridge.Table{Columns: []bridge.Column{{Name: "column"}, {Name: "type"}}}
				for _, c := range cols {
					t.Rows = append(t.Rows, []any{c.Name, c.Type})
				}
				return a.render(t, time.Since(start))
			})
		},
	}
}

func (a *App) exportCmd() *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "export <sql> <file>",
		Short: "Write the result of a query to a csv or xlsx file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := as
			if format == "" {
				format = export.FormatOf(args[1])
			}

			return a.withDB(func(d db.DB) error {
				t, err := db.Query(a.ctx, d, args[0])
				if err != nil {
					return err
				}
				return a.writeExport(t, format, args[1])
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "file `format`: csv or xlsx (default from the extension)")
	return cmd
}

func (a *App) writeExport(t *bridge.Table, format, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	enc, err := export.New(format, f)
	if err != nil {
		return err
	}
	defer enc.Close()

	if err := export.Table(enc, t); err != nil {
		return err
	}

	log.WithFields(log.Fields{"file": path, "rows": len(t.Rows)}).Info("sqlbind: exported")
	fmt.Fprintf(a.out, "wrote %s to %s\n", plural(len(t.Rows), "row"), path)
	return nil
}

func plural(n int, noun string) string {
	if n != 1 {
		noun += "s"
	}
	return strings.Join([]string{humanize.Comma(int64(n)), noun}, " ")
}
