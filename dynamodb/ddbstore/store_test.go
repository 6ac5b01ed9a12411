package ddbstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/acksell/carpenter/dynamodb/schema"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bxcodec/faker/v3"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	store, err := New(StoreOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// createTable creates a table keyed by customerId/orderId with one index of each kind.
func createTable(t *testing.T, store *Store, name string) schema.Table {
	t.Helper()
	tbl, err := schema.Build(schema.Params{
		TableName:    name,
		PartitionKey: "customerId",
		SortKey:      "orderId",
		GSICount:     1,
		LSICount:     1,
	})
	require.NoError(t, err)
	_, err = store.CreateTable(context.Background(), tbl.CreateTableInput())
	require.NoError(t, err)
	return tbl
}

type order struct {
	CustomerID string   `dynamodbav:"customerId"`
	OrderID    string   `dynamodbav:"orderId"`
	Email      string   `dynamodbav:"email"`
	Amount     float64  `dynamodbav:"amount"`
	Notes      []string `dynamodbav:"notes"`
	Paid       bool     `dynamodbav:"paid"`
}

func fakeOrder(t *testing.T, customer string, n int) map[string]types.AttributeValue {
	t.Helper()
	var o order
	require.NoError(t, faker.FakeData(&o))
	o.CustomerID = customer
	o.OrderID = fmt.Sprintf("order#%04d", n)
	item, err := attributevalue.MarshalMap(o)
	require.NoError(t, err)
	return item
}

// seed writes n orders spread over three customers.
func seed(t *testing.T, store *Store, tableName string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.PutItem(context.Background(), &dynamodb.PutItemInput{
			TableName: aws.String(tableName),
			Item:      fakeOrder(t, fmt.Sprintf("customer#%d", i%3), i),
		})
		require.NoError(t, err)
	}
}

func keyOf(customer, orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"customerId": &types.AttributeValueMemberS{Value: customer},
		"orderId":    &types.AttributeValueMemberS{Value: orderID},
	}
}
