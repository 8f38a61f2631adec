package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bgunnarsson/sqlbind/internal/config"
	"github.com/bgunnarsson/sqlbind/internal/db"
	"github.com/bgunnarsson/sqlbind/internal/db/mssql"
	"github.com/bgunnarsson/sqlbind/internal/db/mysql"
	"github.com/bgunnarsson/sqlbind/internal/db/postgres"
	"github.com/bgunnarsson/sqlbind/internal/db/sqlite"
	"github.com/bgunnarsson/sqlbind/internal/print"
	"github.com/bgunnarsson/sqlbind/internal/ui"
)

var errNoDSN = errors.New("no database given: pass a dsn argument or --dsn")

type Driver string

const (
	DriverSqlite   Driver = sqlite.Name
	DriverPostgres Driver = postgres.Name
	DriverMssql    Driver = mssql.Name
	DriverMysql    Driver = mysql.Name
)

// central factory
func openDB(ctx context.Context, driver Driver, dsn string) (db.DB, error) {
	logger := log.StandardLogger()

	var (
		d   db.DB
		err error
	)
	switch driver {
	case "", DriverSqlite:
		d, err = opened(sqlite.Open(ctx, dsn, logger))
	case DriverPostgres:
		d, err = opened(postgres.Open(ctx, dsn, logger))
	case DriverMssql:
		d, err = opened(mssql.Open(ctx, dsn, logger))
	case DriverMysql:
		d, err = opened(mysql.Open(ctx, dsn, logger))
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, err
}

// opened keeps a failed open from yielding a non-nil DB holding a nil pointer.
func opened[D db.DB](d D, err error) (db.DB, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}

// App is one run of the command line: its configuration, where it writes
// and how it learns about its environment.
type App struct {
	ctx       context.Context
	cfg       *config.Config
	out       io.Writer
	lookupEnv func(string) (string, bool)
	isTTY     func() bool

	query     string
	logWriter io.WriteCloser
}

// Execute runs sqlbind with the process's arguments.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &App{
		ctx:       ctx,
		cfg:       config.Default(),
		out:       os.Stdout,
		lookupEnv: os.LookupEnv,
		isTTY:     func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
	return a.Command().Execute()
}

// Command builds the command tree for a.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "sqlbind [flags] [dsn]",
		Short: "Query SQL databases through typed statements",
		Long: "sqlbind runs statements against SQLite, PostgreSQL, MySQL or SQL Server.\n" +
			"With a terminal on standard output it opens an interactive console; otherwise\n" +
			"it runs -q or lists the tables.",
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: a.preRun,
		PersistentPostRun: a.postRun,
		RunE:              a.rootRun,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	a.cfg.Flags(root.PersistentFlags())
	root.Flags().StringVarP(&a.query, "query", "q", a.query,
		"SQL query to run in non-interactive mode")

	root.AddCommand(a.execCmd(), a.queryCmd(), a.tablesCmd(), a.describeCmd(), a.exportCmd())
	return root
}

func (a *App) preRun(cmd *cobra.Command, args []string) error {
	if err := a.cfg.Load(cmd.Flags(), a.lookupEnv); err != nil {
		return fmt.Errorf("sqlbind: %s", err)
	}

	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})
	if !a.cfg.LogStderr && a.cfg.LogFile != "" {
		var err error
		a.logWriter, err = os.OpenFile(a.cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			a.logWriter = nil
			return fmt.Errorf("sqlbind: %s", err)
		}
		log.SetOutput(a.logWriter)
	}

	ll, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("sqlbind: %s", err)
	}
	log.SetLevel(ll)

	log.WithFields(log.Fields{
		"pid":    os.Getpid(),
		"driver": a.cfg.Driver,
	}).Info("sqlbind starting")
	return nil
}

func (a *App) postRun(cmd *cobra.Command, args []string) {
	log.WithField("pid", os.Getpid()).Info("sqlbind done")

	if a.logWriter != nil {
		log.SetOutput(os.Stderr)
		a.logWriter.Close()
		a.logWriter = nil
	}
}

func (a *App) open() (db.DB, error) {
	d, err := openDB(a.ctx, Driver(a.cfg.Driver), a.cfg.DSN)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", d.Name()).Debug("sqlbind: database open")
	return d, nil
}

func (a *App) printOptions() print.Options {
	return print.Options{MaxWidth: a.cfg.MaxWidth, Format: print.Format(a.cfg.Format)}
}

func (a *App) rootRun(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		a.cfg.DSN = args[0]
	}
	if a.cfg.DSN == "" {
		cmd.Usage()
		return errNoDSN
	}

	if a.query != "" || !a.isTTY() {
		return a.runNonInteractive()
	}
	return a.runInteractive()
}

func (a *App) runInteractive() error {
	d, err := a.open()
	if err != nil {
		return err
	}
	defer d.Close()

	return ui.Run(a.ctx, d, d.Name())
}
