package schema

import (
	"github.com/acksell/carpenter/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"gopkg.in/yaml.v3"
)

// CreateTableInput converts the schema to a DynamoDB CreateTable request.
func (t Table) CreateTableInput() *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName:             aws.String(t.Name),
		KeySchema:             keySchema(t.PartitionKey, t.SortKey),
		ProvisionedThroughput: t.Throughput.sdk(),
	}
	for _, def := range t.AttributeDefinitions {
		in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(def.Name),
			AttributeType: types.ScalarAttributeType(def.Kind),
		})
	}
	for _, gsi := range t.GSIs {
		idx := types.GlobalSecondaryIndex{
			IndexName:  aws.String(gsi.Name),
			KeySchema:  keySchema(gsi.PartitionKey, gsi.SortKey),
			Projection: &types.Projection{ProjectionType: types.ProjectionType(gsi.Projection)},
		}
		if gsi.Throughput != nil {
			idx.ProvisionedThroughput = gsi.Throughput.sdk()
		}
		in.GlobalSecondaryIndexes = append(in.GlobalSecondaryIndexes, idx)
	}
	for _, lsi := range t.LSIs {
		in.LocalSecondaryIndexes = append(in.LocalSecondaryIndexes, types.LocalSecondaryIndex{
			IndexName:  aws.String(lsi.Name),
			KeySchema:  keySchema(lsi.PartitionKey, lsi.SortKey),
			Projection: &types.Projection{ProjectionType: types.ProjectionType(lsi.Projection)},
		})
	}
	return in
}

// Definition returns the key layout of the schema as used by the local store.
func (t Table) Definition() table.TableDefinition {
	def := table.TableDefinition{
		Name:           t.Name,
		KeyDefinitions: keyDefinitions(t.PartitionKey, t.SortKey),
	}
	for _, gsi := range t.GSIs {
		def.GSIs = append(def.GSIs, table.IndexDefinition{
			Name:           gsi.Name,
			KeyDefinitions: keyDefinitions(gsi.PartitionKey, gsi.SortKey),
		})
	}
	for _, lsi := range t.LSIs {
		def.LSIs = append(def.LSIs, table.IndexDefinition{
			Name:           lsi.Name,
			KeyDefinitions: keyDefinitions(lsi.PartitionKey, lsi.SortKey),
		})
	}
	return def
}

// KeyAttributes returns the primary key attribute names.
func (t Table) KeyAttributes() []string {
	return []string{t.PartitionKey.Name, t.SortKey.Name}
}

// YAML renders the schema for display.
func (t Table) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}

func keySchema(partition, sort KeyDef) []types.KeySchemaElement {
	return []types.KeySchemaElement{
		{AttributeName: aws.String(partition.Name), KeyType: types.KeyTypeHash},
		{AttributeName: aws.String(sort.Name), KeyType: types.KeyTypeRange},
	}
}

func keyDefinitions(partition, sort KeyDef) table.PrimaryKeyDefinition {
	return table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: partition.Name, Kind: table.KeyKind(partition.Kind)},
		SortKey:      table.KeyDef{Name: sort.Name, Kind: table.KeyKind(sort.Kind)},
	}
}

func (tp Throughput) sdk() *types.ProvisionedThroughput {
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(tp.ReadCapacityUnits),
		WriteCapacityUnits: aws.Int64(tp.WriteCapacityUnits),
	}
}
