package main

import (
	"fmt"

	"github.com/acksell/carpenter/dynamodb/ddbclient"
	"github.com/acksell/carpenter/dynamodb/schema"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *app) createTableCmd() *cobra.Command {
	var (
		gsis, lsis int
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "create-table",
		Short: "Create a table with generated secondary indexes",
		Long: `Create a table keyed by --partition-key and --sort-key.

The n-th global index is named GSI{n} with keys GSI{n}PK and GSI{n}SK. The
n-th local index is named LSI{n} with sort key LSI{n}SK. A random name is
used when --table-name is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			name, _ := flags.GetString("table-name")
			if name == "" {
				name = uuid.NewString()
			}
			pk, _ := flags.GetString("partition-key")
			sk, _ := flags.GetString("sort-key")

			tbl, err := schema.Build(schema.Params{
				TableName:    name,
				PartitionKey: pk,
				SortKey:      sk,
				GSICount:     gsis,
				LSICount:     lsis,
				Naming:       a.cfg.Naming,
				Throughput:   a.cfg.Throughput,
			})
			if err != nil {
				return err
			}

			if dryRun {
				out, err := tbl.YAML()
				if err != nil {
					return fmt.Errorf("render schema: %w", err)
				}
				_, err = a.stdout.Write(out)
				return err
			}

			return a.withClient(cmd.Context(), func(h *ddbclient.Handle) error {
				if _, err := a.manager(h).Create(cmd.Context(), tbl); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Table %s created\n", name)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&gsis, "gsi", 0, "number of global secondary indexes")
	cmd.Flags().IntVar(&lsis, "lsi", 0, "number of local secondary indexes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the schema instead of creating the table")
	return cmd
}

func (a *app) deleteTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-table",
		Short: "Delete a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := tableName(cmd)
			if err != nil {
				return err
			}
			return a.withClient(cmd.Context(), func(h *ddbclient.Handle) error {
				if err := a.manager(h).Delete(cmd.Context(), name); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Table %s deleted\n", name)
				return nil
			})
		},
	}
}

func (a *app) listTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-tables",
		Short: "List table names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(h *ddbclient.Handle) error {
				names, err := a.manager(h).List(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "Table list")
				for _, name := range names {
					fmt.Fprintln(a.stdout, name)
				}
				return nil
			})
		},
	}
}
