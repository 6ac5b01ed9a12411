package ddbstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// maxBatchWrites is DynamoDB's request limit for BatchWriteItem.
const maxBatchWrites = 25

// PutItem writes an item, replacing any item with the same primary key.
func (s *Store) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if params == nil {
		return nil, validationError("params is required")
	}
	var old map[string]types.AttributeValue
	err := s.db.Update(func(txn *badger.Txn) error {
		entry, err := loadTable(txn, params.TableName)
		if err != nil {
			return err
		}
		old, err = putItem(txn, entry, params.Item)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := &dynamodb.PutItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

// DeleteItem removes an item by its primary key. Deleting a missing item succeeds.
func (s *Store) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if params == nil {
		return nil, validationError("params is required")
	}
	var old map[string]types.AttributeValue
	err := s.db.Update(func(txn *badger.Txn) error {
		entry, err := loadTable(txn, params.TableName)
		if err != nil {
			return err
		}
		old, err = deleteItem(txn, entry, params.Key)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := &dynamodb.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

// BatchWriteItem applies all put and delete requests in one transaction.
// Nothing is ever left unprocessed.
func (s *Store) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if params == nil || len(params.RequestItems) == 0 {
		return nil, validationError("request items are required")
	}
	total := 0
	for _, reqs := range params.RequestItems {
		total += len(reqs)
	}
	if total > maxBatchWrites {
		return nil, validationError("too many items in batch: %d, at most %d allowed", total, maxBatchWrites)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for tableName, reqs := range params.RequestItems {
			entry, err := loadTable(txn, aws.String(tableName))
			if err != nil {
				return err
			}
			for i, req := range reqs {
				switch {
				case req.PutRequest != nil && req.DeleteRequest == nil:
					_, err = putItem(txn, entry, req.PutRequest.Item)
				case req.DeleteRequest != nil && req.PutRequest == nil:
					_, err = deleteItem(txn, entry, req.DeleteRequest.Key)
				default:
					err = validationError("request %d must hold exactly one of put or delete", i)
				}
				if err != nil {
					return fmt.Errorf("%s request %d: %w", tableName, i, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.BatchWriteItemOutput{
		UnprocessedItems: map[string][]types.WriteRequest{},
	}, nil
}

func putItem(txn *badger.Txn, entry catalogEntry, item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	if len(item) == 0 {
		return nil, validationError("item is required")
	}
	pk, err := entry.Definition.ExtractPrimaryKey(item)
	if err != nil {
		return nil, validationError("one or more parameter values were invalid: %v", err)
	}
	key, err := encodeItemKey(entry.Definition.Name, pk)
	if err != nil {
		return nil, validationError("encode key: %v", err)
	}
	old, err := getItem(txn, key)
	if err != nil {
		return nil, err
	}
	val, err := encodeItem(item)
	if err != nil {
		return nil, validationError("%v", err)
	}
	if err := txn.Set(key, val); err != nil {
		return nil, fmt.Errorf("write item: %w", err)
	}
	return old, nil
}

func deleteItem(txn *badger.Txn, entry catalogEntry, keyAttrs map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	keyDefs := entry.Definition.KeyDefinitions
	if len(keyAttrs) != len(keyDefs.AttributeNames()) {
		return nil, validationError("the provided key element does not match the schema, want %v", keyDefs.AttributeNames())
	}
	pk, err := keyDefs.ExtractPrimaryKey(keyAttrs)
	if err != nil {
		return nil, validationError("the provided key element does not match the schema: %v", err)
	}
	key, err := encodeItemKey(entry.Definition.Name, pk)
	if err != nil {
		return nil, validationError("encode key: %v", err)
	}
	old, err := getItem(txn, key)
	if err != nil || old == nil {
		return nil, err
	}
	if err := txn.Delete(key); err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return old, nil
}

// getItem returns nil without error when the key is absent.
func getItem(txn *badger.Txn, key []byte) (map[string]types.AttributeValue, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read item: %w", err)
	}
	var out map[string]types.AttributeValue
	err = item.Value(func(val []byte) error {
		out, err = decodeItem(val)
		return err
	})
	return out, err
}
