package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type TableDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
	GSIs           []IndexDefinition
	LSIs           []IndexDefinition
}

// IndexDefinition represents a secondary index. For local indexes the
// partition key is always the table's partition key.
type IndexDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
}

// ExtractPrimaryKey extracts the table's key values from a document.
func (t TableDefinition) ExtractPrimaryKey(doc map[string]types.AttributeValue) (PrimaryKey, error) {
	return t.KeyDefinitions.ExtractPrimaryKey(doc)
}

// Index looks up a secondary index by name, global indexes first.
func (t TableDefinition) Index(name string) (IndexDefinition, bool) {
	for _, idx := range t.GSIs {
		if idx.Name == name {
			return idx, true
		}
	}
	for _, idx := range t.LSIs {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDefinition{}, false
}

// ExtractPrimaryKey reads the key values of doc. Every key attribute must be
// present with the kind its definition declares.
func (k PrimaryKeyDefinition) ExtractPrimaryKey(doc map[string]types.AttributeValue) (PrimaryKey, error) {
	pk := PrimaryKey{Definition: k}
	var err error
	if pk.Values.PartitionKey, err = keyValue(doc, k.PartitionKey); err != nil {
		return PrimaryKey{}, fmt.Errorf("partition key: %w", err)
	}
	if k.SortKey.Name == "" {
		return pk, nil
	}
	if pk.Values.SortKey, err = keyValue(doc, k.SortKey); err != nil {
		return PrimaryKey{}, fmt.Errorf("sort key: %w", err)
	}
	return pk, nil
}

func keyValue(doc map[string]types.AttributeValue, def KeyDef) (any, error) {
	av, ok := doc[def.Name]
	if !ok {
		return nil, fmt.Errorf("%q missing from document", def.Name)
	}
	if err := attributeMatchesDefinition(def.Kind, av); err != nil {
		return nil, fmt.Errorf("%q: %w", def.Name, err)
	}
	return keyValueFromAV(av)
}

// KeyAttributes returns the subset of item holding the key attributes.
func (k PrimaryKeyDefinition) KeyAttributes(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, 2)
	for _, name := range k.AttributeNames() {
		if v, ok := item[name]; ok {
			result[name] = v
		}
	}
	return result
}
