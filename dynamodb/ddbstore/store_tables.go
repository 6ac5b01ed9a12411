package ddbstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acksell/carpenter/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// maxListTables is DynamoDB's page limit for ListTables.
const maxListTables = 100

// CreateTable registers a new table. Indexes are recorded in the table
// description; the store itself only serves the base table.
func (s *Store) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if params == nil {
		return nil, validationError("params is required")
	}
	def, err := definitionFromInput(params)
	if err != nil {
		return nil, err
	}
	entry := catalogEntry{
		Definition: def,
		CreatedAt:  time.Now().UTC(),
	}
	if tp := params.ProvisionedThroughput; tp != nil {
		entry.ReadUnits = aws.ToInt64(tp.ReadCapacityUnits)
		entry.WriteUnits = aws.ToInt64(tp.WriteCapacityUnits)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(catalogKey(def.Name))
		if err == nil {
			return &types.ResourceInUseException{
				Message: aws.String(fmt.Sprintf("Table already exists: %s", def.Name)),
			}
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("read catalog: %w", err)
		}
		return saveTable(txn, entry)
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.CreateTableOutput{TableDescription: describe(entry, 0)}, nil
}

// DeleteTable drops a table and every item in it.
func (s *Store) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	if params == nil {
		return nil, validationError("params is required")
	}
	var entry catalogEntry
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		entry, err = loadTable(txn, params.TableName)
		if err != nil {
			return err
		}
		return txn.Delete(catalogKey(entry.Definition.Name))
	})
	if err != nil {
		return nil, err
	}
	if err := s.dropItems(entry.Definition.Name); err != nil {
		return nil, fmt.Errorf("drop items of %s: %w", entry.Definition.Name, err)
	}
	desc := describe(entry, 0)
	desc.TableStatus = types.TableStatusDeleting
	return &dynamodb.DeleteTableOutput{TableDescription: desc}, nil
}

// ListTables returns table names in ascending order, at most Limit per page.
func (s *Store) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	if params == nil {
		params = &dynamodb.ListTablesInput{}
	}
	limit := maxListTables
	if params.Limit != nil {
		if *params.Limit < 1 || *params.Limit > maxListTables {
			return nil, validationError("limit must be between 1 and %d", maxListTables)
		}
		limit = int(*params.Limit)
	}

	out := &dynamodb.ListTablesOutput{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := catalogScanPrefix()
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		start := prefix
		if params.ExclusiveStartTableName != nil {
			start = catalogKey(*params.ExclusiveStartTableName)
		}
		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if params.ExclusiveStartTableName != nil && bytes.Equal(key, start) {
				continue
			}
			if len(out.TableNames) == limit {
				out.LastEvaluatedTableName = aws.String(out.TableNames[limit-1])
				return nil
			}
			out.TableNames = append(out.TableNames, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if params == nil {
		return nil, validationError("params is required")
	}
	var desc *types.TableDescription
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := loadTable(txn, params.TableName)
		if err != nil {
			return err
		}
		desc = describe(entry, countItems(txn, entry.Definition.Name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: desc}, nil
}

func (s *Store) dropItems(tableName string) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := tablePrefix(tableName)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func countItems(txn *badger.Txn, tableName string) int64 {
	prefix := tablePrefix(tableName)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var n int64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n
}

func definitionFromInput(in *dynamodb.CreateTableInput) (table.TableDefinition, error) {
	name := aws.ToString(in.TableName)
	if len(name) < 3 || len(name) > 255 {
		return table.TableDefinition{}, validationError("table name must be between 3 and 255 characters, got %q", name)
	}
	for _, c := range name {
		if !validTableNameChar(c) {
			return table.TableDefinition{}, validationError("table name %q contains invalid character %q", name, c)
		}
	}

	kinds := make(map[string]table.KeyKind, len(in.AttributeDefinitions))
	for _, ad := range in.AttributeDefinitions {
		kinds[aws.ToString(ad.AttributeName)] = table.KeyKind(ad.AttributeType)
	}
	keys, err := keyDefinition(in.KeySchema, kinds)
	if err != nil {
		return table.TableDefinition{}, err
	}

	def := table.TableDefinition{Name: name, KeyDefinitions: keys}
	for _, gsi := range in.GlobalSecondaryIndexes {
		keys, err := keyDefinition(gsi.KeySchema, kinds)
		if err != nil {
			return table.TableDefinition{}, fmt.Errorf("index %s: %w", aws.ToString(gsi.IndexName), err)
		}
		def.GSIs = append(def.GSIs, table.IndexDefinition{Name: aws.ToString(gsi.IndexName), KeyDefinitions: keys})
	}
	for _, lsi := range in.LocalSecondaryIndexes {
		keys, err := keyDefinition(lsi.KeySchema, kinds)
		if err != nil {
			return table.TableDefinition{}, fmt.Errorf("index %s: %w", aws.ToString(lsi.IndexName), err)
		}
		if keys.PartitionKey != def.KeyDefinitions.PartitionKey {
			return table.TableDefinition{}, validationError("local index %s must use the table partition key", aws.ToString(lsi.IndexName))
		}
		def.LSIs = append(def.LSIs, table.IndexDefinition{Name: aws.ToString(lsi.IndexName), KeyDefinitions: keys})
	}
	return def, nil
}

func validTableNameChar(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.'
}

func keyDefinition(schema []types.KeySchemaElement, kinds map[string]table.KeyKind) (table.PrimaryKeyDefinition, error) {
	var def table.PrimaryKeyDefinition
	for _, el := range schema {
		name := aws.ToString(el.AttributeName)
		kind, ok := kinds[name]
		if !ok {
			return def, validationError("key attribute %q has no attribute definition", name)
		}
		switch kind {
		case table.KeyKindS, table.KeyKindN, table.KeyKindB:
		default:
			return def, validationError("key attribute %q has invalid type %q", name, kind)
		}
		switch el.KeyType {
		case types.KeyTypeHash:
			if def.PartitionKey.Name != "" {
				return def, validationError("key schema has more than one HASH key")
			}
			def.PartitionKey = table.KeyDef{Name: name, Kind: kind}
		case types.KeyTypeRange:
			if def.SortKey.Name != "" {
				return def, validationError("key schema has more than one RANGE key")
			}
			def.SortKey = table.KeyDef{Name: name, Kind: kind}
		default:
			return def, validationError("unknown key type %q", el.KeyType)
		}
	}
	if def.PartitionKey.Name == "" {
		return def, validationError("key schema requires a HASH key")
	}
	if def.PartitionKey.Name == def.SortKey.Name {
		return def, validationError("HASH and RANGE key must differ")
	}
	return def, nil
}

func describe(entry catalogEntry, itemCount int64) *types.TableDescription {
	def := entry.Definition
	desc := &types.TableDescription{
		TableName:        aws.String(def.Name),
		TableStatus:      types.TableStatusActive,
		CreationDateTime: aws.Time(entry.CreatedAt),
		ItemCount:        aws.Int64(itemCount),
		KeySchema:        describeKeys(def.KeyDefinitions),
		ProvisionedThroughput: &types.ProvisionedThroughputDescription{
			ReadCapacityUnits:  aws.Int64(entry.ReadUnits),
			WriteCapacityUnits: aws.Int64(entry.WriteUnits),
		},
	}

	seen := map[string]bool{}
	addAttrs := func(keys table.PrimaryKeyDefinition) {
		for _, kd := range []table.KeyDef{keys.PartitionKey, keys.SortKey} {
			if kd.Name == "" || seen[kd.Name] {
				continue
			}
			seen[kd.Name] = true
			desc.AttributeDefinitions = append(desc.AttributeDefinitions, types.AttributeDefinition{
				AttributeName: aws.String(kd.Name),
				AttributeType: types.ScalarAttributeType(kd.Kind),
			})
		}
	}
	addAttrs(def.KeyDefinitions)
	for _, gsi := range def.GSIs {
		addAttrs(gsi.KeyDefinitions)
		desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
			IndexName:   aws.String(gsi.Name),
			IndexStatus: types.IndexStatusActive,
			KeySchema:   describeKeys(gsi.KeyDefinitions),
			Projection:  &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	for _, lsi := range def.LSIs {
		addAttrs(lsi.KeyDefinitions)
		desc.LocalSecondaryIndexes = append(desc.LocalSecondaryIndexes, types.LocalSecondaryIndexDescription{
			IndexName:  aws.String(lsi.Name),
			KeySchema:  describeKeys(lsi.KeyDefinitions),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return desc
}

func describeKeys(keys table.PrimaryKeyDefinition) []types.KeySchemaElement {
	out := []types.KeySchemaElement{
		{AttributeName: aws.String(keys.PartitionKey.Name), KeyType: types.KeyTypeHash},
	}
	if keys.SortKey.Name != "" {
		out = append(out, types.KeySchemaElement{AttributeName: aws.String(keys.SortKey.Name), KeyType: types.KeyTypeRange})
	}
	return out
}
