package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef
	SortKey      KeyDef // Name is empty for partition-key-only tables.
}

// AttributeNames returns the key attribute names, partition key first.
func (k PrimaryKeyDefinition) AttributeNames() []string {
	if k.SortKey.Name == "" {
		return []string{k.PartitionKey.Name}
	}
	return []string{k.PartitionKey.Name, k.SortKey.Name}
}

type KeyDef struct {
	Name string
	Kind KeyKind
}

type KeyKind string

const (
	KeyKindS KeyKind = "S"
	KeyKindN KeyKind = "N"
	KeyKindB KeyKind = "B"
)

// Values hold the Go representation of the key attributes: string for S and N, []byte for B.
type PrimaryKeyValues struct {
	PartitionKey any
	SortKey      any
}

type PrimaryKey struct {
	Definition PrimaryKeyDefinition
	Values     PrimaryKeyValues
}

func attributeMatchesDefinition(want KeyKind, v types.AttributeValue) error {
	got, err := kindOf(v)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("kind %s, want %s", got, want)
	}
	return nil
}

func kindOf(v types.AttributeValue) (KeyKind, error) {
	switch v.(type) {
	case *types.AttributeValueMemberS:
		return KeyKindS, nil
	case *types.AttributeValueMemberN:
		return KeyKindN, nil
	case *types.AttributeValueMemberB:
		return KeyKindB, nil
	default:
		return "", fmt.Errorf("unexpected key attribute type %T", v)
	}
}

func keyValueFromAV(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return v.Value, nil
	case *types.AttributeValueMemberB:
		return v.Value, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value %T for dynamodb keys", v)
	}
}
