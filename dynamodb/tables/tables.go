// Package tables wraps the single round trip table operations:
// create, delete, list and describe.
package tables

import (
	"context"
	"fmt"

	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/ddbiface"
	"github.com/acksell/carpenter/dynamodb/ddblog"
	"github.com/acksell/carpenter/dynamodb/schema"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB limits per table, checked by Create before the store is called.
const (
	MaxGSIs = 20
	MaxLSIs = 5
)

type Manager struct {
	client ddbiface.TableAdmin
	logger ddblog.Logger
}

func NewManager(client ddbiface.TableAdmin, logger ddblog.Logger) *Manager {
	if logger == nil {
		logger = ddblog.NewNop()
	}
	return &Manager{client: client, logger: logger}
}

// Create submits the schema once. It is not retried.
func (m *Manager) Create(ctx context.Context, t schema.Table) (*types.TableDescription, error) {
	const op = "tables.Create"
	switch {
	case len(t.GSIs) > MaxGSIs:
		return nil, ddberr.Errorf(ddberr.InvalidSchema, op, "table %s: at most %d global secondary indexes are allowed, got %d", t.Name, MaxGSIs, len(t.GSIs))
	case len(t.LSIs) > MaxLSIs:
		return nil, ddberr.Errorf(ddberr.InvalidSchema, op, "table %s: at most %d local secondary indexes are allowed, got %d", t.Name, MaxLSIs, len(t.LSIs))
	}
	out, err := m.client.CreateTable(ctx, t.CreateTableInput())
	if err != nil {
		return nil, ddberr.Classify(op, fmt.Errorf("create table %s: %w", t.Name, err), ddberr.StoreWriteFailure)
	}
	m.logger.Info("created table", "table", t.Name, "gsis", len(t.GSIs), "lsis", len(t.LSIs))
	return out.TableDescription, nil
}

func (m *Manager) Delete(ctx context.Context, name string) error {
	const op = "tables.Delete"
	if name == "" {
		return ddberr.Errorf(ddberr.InvalidArgument, op, "table name is required")
	}
	_, err := m.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		return ddberr.Classify(op, fmt.Errorf("delete table %s: %w", name, err), ddberr.StoreWriteFailure)
	}
	m.logger.Info("deleted table", "table", name)
	return nil
}

// List returns every table name, following pagination until the store
// stops returning a last evaluated table name.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	const op = "tables.List"
	var names []string
	p := dynamodb.NewListTablesPaginator(m.client, &dynamodb.ListTablesInput{})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, ddberr.Classify(op, fmt.Errorf("list tables: %w", err), ddberr.StoreReadFailure)
		}
		names = append(names, out.TableNames...)
	}
	return names, nil
}

func (m *Manager) Describe(ctx context.Context, name string) (*types.TableDescription, error) {
	const op = "tables.Describe"
	if name == "" {
		return nil, ddberr.Errorf(ddberr.InvalidArgument, op, "table name is required")
	}
	out, err := m.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		return nil, ddberr.Classify(op, fmt.Errorf("describe table %s: %w", name, err), ddberr.StoreReadFailure)
	}
	return out.Table, nil
}

// KeyAttributes returns the primary key attribute names of an existing table,
// partition key first.
func (m *Manager) KeyAttributes(ctx context.Context, name string) ([]string, error) {
	desc, err := m.Describe(ctx, name)
	if err != nil {
		return nil, err
	}
	var hash, rng []string
	for _, el := range desc.KeySchema {
		switch el.KeyType {
		case types.KeyTypeHash:
			hash = append(hash, aws.ToString(el.AttributeName))
		case types.KeyTypeRange:
			rng = append(rng, aws.ToString(el.AttributeName))
		}
	}
	if len(hash) != 1 {
		return nil, ddberr.Errorf(ddberr.InvalidSchema, "tables.KeyAttributes", "table %s has no partition key", name)
	}
	return append(hash, rng...), nil
}
