package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/acksell/carpenter/dynamodb/ddbclient"
	"github.com/acksell/carpenter/dynamodb/ddbconfig"
	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/ddblog"
	"github.com/acksell/carpenter/dynamodb/localrt"
	"github.com/acksell/carpenter/dynamodb/tables"
	"github.com/iancoleman/strcase"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

type app struct {
	stdout io.Writer
	stderr io.Writer

	newLogger  func(verbose bool) (ddblog.ZapLogger, error)
	newRuntime func(binary string, logger ddblog.Logger) localrt.Runtime

	// set by setup before any command runs
	cfg    ddbconfig.Config
	logger ddblog.ZapLogger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		newLogger: ddblog.NewConsole,
		newRuntime: func(binary string, logger ddblog.Logger) localrt.Runtime {
			return localrt.NewDocker(localrt.WithBinary(binary), localrt.WithLogger(logger))
		},
	}
}

// run executes args and returns the process exit code.
func (a *app) run(args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(context.Background())
	if a.logger != (ddblog.ZapLogger{}) {
		_ = a.logger.Sync()
	}
	if err != nil {
		a.printError(err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "carpenter",
		Short:             "Provision and inspect local DynamoDB tables",
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	ddbconfig.RegisterFlags(flags)
	flags.BoolP("verbose", "v", false, "log debug output")
	flags.StringP("table-name", "t", "", "table to operate on")
	flags.String("partition-key", "partition_key", "partition key attribute name")
	flags.String("sort-key", "sort_key", "sort key attribute name")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return ddberr.New(ddberr.InvalidArgument, "carpenter", err)
	})

	root.AddCommand(
		a.createTableCmd(),
		a.deleteTableCmd(),
		a.listTablesCmd(),
		a.scanTableCmd(),
		a.truncateTableCmd(),
		a.dynamoUpCmd(),
		a.dynamoDownCmd(),
	)
	for _, cmd := range root.Commands() {
		cmd.Aliases = append(cmd.Aliases, strcase.ToLowerCamel(cmd.Name()))
	}
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := a.newLogger(verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	cfg, err := ddbconfig.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.File != "" {
		a.logger.Debug("loaded config", "file", cfg.File)
	}
	return nil
}

// withClient opens the configured store for the duration of fn.
func (a *app) withClient(ctx context.Context, fn func(*ddbclient.Handle) error) error {
	h, err := ddbclient.Open(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			a.logger.Warn("closing store", "target", h.Target, "error", err)
		}
	}()
	return fn(h)
}

func (a *app) manager(h *ddbclient.Handle) *tables.Manager {
	return tables.NewManager(h, a.logger)
}

func tableName(cmd *cobra.Command) (string, error) {
	name, _ := cmd.Flags().GetString("table-name")
	if name == "" {
		return "", ddberr.Errorf(ddberr.InvalidArgument, cmd.Name(), "--table-name is required")
	}
	return name, nil
}

// keyAttributes returns the key names given on the command line, or the
// table's own key schema when neither key flag was set.
func (a *app) keyAttributes(ctx context.Context, cmd *cobra.Command, h *ddbclient.Handle, name string) ([]string, error) {
	flags := cmd.Flags()
	pkSet, skSet := flags.Changed("partition-key"), flags.Changed("sort-key")
	pk, _ := flags.GetString("partition-key")
	sk, _ := flags.GetString("sort-key")
	if pkSet && skSet {
		return []string{pk, sk}, nil
	}

	// a key flag left unset is filled from the table, never from its default
	keys, err := a.manager(h).KeyAttributes(ctx, name)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("discovered key schema", "table", name, "keys", keys)
	if pkSet {
		keys[0] = pk
	}
	if skSet {
		keys = append(keys[:1], sk)
	}
	return keys, nil
}

// printError writes "kind: message" to stderr.
func (a *app) printError(err error) {
	var tagged *ddberr.Error
	if errors.As(err, &tagged) && tagged.Err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", tagged.Kind, tagged.Err)
		return
	}
	if errors.As(err, &tagged) {
		fmt.Fprintf(a.stderr, "%s: %s\n", tagged.Kind, tagged.Op)
		return
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
}
