package ddbstore

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// Scan reads items of a table in key order.
//
// When Limit items have been read the key of the last one is returned as
// LastEvaluatedKey, even if no items follow, which is what DynamoDB does.
// Only the base table can be scanned and FilterExpression is not supported.
func (s *Store) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if params == nil {
		return nil, validationError("params is required")
	}
	if params.IndexName != nil {
		return nil, validationError("scanning index %s is not supported", *params.IndexName)
	}
	if params.FilterExpression != nil || params.ScanFilter != nil {
		return nil, validationError("scan filters are not supported")
	}
	if params.Limit != nil && *params.Limit < 1 {
		return nil, validationError("limit must be at least 1")
	}
	proj, err := resolveProjection(params)
	if err != nil {
		return nil, err
	}

	out := &dynamodb.ScanOutput{}
	err = s.db.View(func(txn *badger.Txn) error {
		entry, err := loadTable(txn, params.TableName)
		if err != nil {
			return err
		}
		keyDefs := entry.Definition.KeyDefinitions
		prefix := tablePrefix(entry.Definition.Name)

		var start []byte
		if params.ExclusiveStartKey != nil {
			pk, err := keyDefs.ExtractPrimaryKey(params.ExclusiveStartKey)
			if err != nil {
				return validationError("exclusive start key: %v", err)
			}
			start, err = encodeItemKey(entry.Definition.Name, pk)
			if err != nil {
				return validationError("exclusive start key: %v", err)
			}
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(prefix)
		if start != nil {
			it.Seek(start)
		}
		for ; it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if start != nil && bytes.Equal(it.Item().Key(), start) {
				continue
			}
			var item map[string]types.AttributeValue
			err := it.Item().Value(func(val []byte) error {
				var err error
				item, err = decodeItem(val)
				return err
			})
			if err != nil {
				return err
			}

			out.ScannedCount++
			out.Count++
			if params.Select != types.SelectCount {
				out.Items = append(out.Items, proj.apply(item))
			}
			if params.Limit != nil && out.ScannedCount == *params.Limit {
				out.LastEvaluatedKey = keyDefs.KeyAttributes(item)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// projection is a set of top level attribute names, nil meaning all attributes.
type projection []string

func (p projection) apply(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if p == nil {
		return item
	}
	out := make(map[string]types.AttributeValue, len(p))
	for _, name := range p {
		if v, ok := item[name]; ok {
			out[name] = v
		}
	}
	return out
}

// resolveProjection reads ProjectionExpression or the legacy AttributesToGet.
// Expressions may only name top level attributes, directly or as #placeholders.
func resolveProjection(params *dynamodb.ScanInput) (projection, error) {
	if params.ProjectionExpression != nil && len(params.AttributesToGet) > 0 {
		return nil, validationError("can not use both ProjectionExpression and AttributesToGet")
	}
	if len(params.AttributesToGet) > 0 {
		return projection(params.AttributesToGet), nil
	}
	if params.ProjectionExpression == nil {
		if params.Select == types.SelectSpecificAttributes {
			return nil, validationError("select SPECIFIC_ATTRIBUTES requires a projection")
		}
		return nil, nil
	}

	used := make(map[string]bool, len(params.ExpressionAttributeNames))
	var proj projection
	for _, part := range strings.Split(*params.ProjectionExpression, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, validationError("invalid projection expression %q", *params.ProjectionExpression)
		}
		if strings.HasPrefix(name, "#") {
			resolved, ok := params.ExpressionAttributeNames[name]
			if !ok {
				return nil, validationError("unresolved expression attribute name %q", name)
			}
			used[name] = true
			name = resolved
		} else if strings.ContainsAny(name, ".[]") {
			return nil, validationError("nested projection path %q is not supported", name)
		}
		proj = append(proj, name)
	}
	for alias := range params.ExpressionAttributeNames {
		if !used[alias] {
			return nil, validationError("expression attribute name %q is not used", alias)
		}
	}
	return proj, nil
}
