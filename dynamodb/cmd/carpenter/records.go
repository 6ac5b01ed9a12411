package main

import (
	"fmt"

	"github.com/acksell/carpenter/dynamodb/ddbclient"
	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/scan"
	"github.com/acksell/carpenter/dynamodb/truncate"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) scanTableCmd() *cobra.Command {
	var (
		documents     bool
		allAttributes bool
		pageSize      int32
	)
	cmd := &cobra.Command{
		Use:   "scan-table",
		Short: "Count, and optionally print, every record of a table",
		Long: `Scan the whole table following continuation tokens.

Only key attributes are read unless --all-attributes is set. Keys come from
--partition-key/--sort-key when given, otherwise from the table's key schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := tableName(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withClient(ctx, func(h *ddbclient.Handle) error {
				opts := []scan.Option{scan.WithPageSize(pageSize), scan.WithLogger(a.logger)}
				if !allAttributes {
					keys, err := a.keyAttributes(ctx, cmd, h, name)
					if err != nil {
						return err
					}
					opts = append(opts, scan.WithProjection(keys...))
				}

				s := scan.New(h, name, opts...)
				records, err := s.All(ctx)
				if err != nil {
					return err
				}
				a.logger.Debug("scan complete", "table", name, "records", len(records), "reads", s.Reads())
				fmt.Fprintf(a.stdout, "Number of documents found: %d\n", len(records))
				if documents && len(records) > 0 {
					return a.printRecords(records)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&documents, "documents", false, "print the scanned records")
	cmd.Flags().BoolVar(&allAttributes, "all-attributes", false, "read every attribute, not just the keys")
	cmd.Flags().Int32Var(&pageSize, "page-size", 0, "records per Scan request (0 lets the store decide)")
	return cmd
}

func (a *app) printRecords(records []scan.Record) error {
	var docs []map[string]any
	if err := attributevalue.UnmarshalListOfMaps(records, &docs); err != nil {
		return ddberr.New(ddberr.StoreReadFailure, "scan-table", fmt.Errorf("decode records: %w", err))
	}
	out, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("render records: %w", err)
	}
	_, err = a.stdout.Write(out)
	return err
}

func (a *app) truncateTableCmd() *cobra.Command {
	var (
		concurrency int
		pageSize    int32
		batch       bool
	)
	cmd := &cobra.Command{
		Use:   "truncate-table",
		Short: "Delete every record of a table",
		Long: `Scan the table for its keys and delete every record, keeping the table.

Deletes run with at most --concurrency requests in flight. With --batch, keys
are deleted 25 at a time through BatchWriteItem. A failed delete does not stop
the others; every key that could not be deleted is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := tableName(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withClient(ctx, func(h *ddbclient.Handle) error {
				keys, err := a.keyAttributes(ctx, cmd, h, name)
				if err != nil {
					return err
				}
				opts := []truncate.Option{
					truncate.WithConcurrency(concurrency),
					truncate.WithPageSize(pageSize),
					truncate.WithLogger(a.logger),
				}
				if batch {
					opts = append(opts, truncate.WithBatchWrites())
				}

				res, err := truncate.Truncate(ctx, h, name, keys, opts...)
				for _, f := range res.Failures {
					fmt.Fprintf(a.stderr, "failed to delete %s: %v\n", f.Key, f.Err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Table %s truncated (%d records deleted)\n", name, res.Deleted)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", truncate.DefaultConcurrency, "maximum delete requests in flight")
	cmd.Flags().Int32Var(&pageSize, "page-size", 0, "records per Scan request (0 lets the store decide)")
	cmd.Flags().BoolVar(&batch, "batch", false, "delete through BatchWriteItem")
	return cmd
}
