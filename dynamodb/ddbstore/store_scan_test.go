package ddbstore

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderID(item map[string]types.AttributeValue) string {
	return item["orderId"].(*types.AttributeValueMemberS).Value
}

func TestStore_ScanPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTable(t, store, "orders")
	seed(t, store, "orders", 23)

	for _, limit := range []int32{1, 4, 5, 23, 50} {
		seen := map[string]int{}
		var startKey map[string]types.AttributeValue
		pages := 0
		for {
			out, err := store.Scan(ctx, &dynamodb.ScanInput{
				TableName:         aws.String("orders"),
				Limit:             aws.Int32(limit),
				ExclusiveStartKey: startKey,
			})
			require.NoError(t, err)
			pages++
			assert.LessOrEqual(t, len(out.Items), int(limit))
			for _, item := range out.Items {
				seen[orderID(item)]++
			}
			if out.LastEvaluatedKey == nil {
				break
			}
			assert.Len(t, out.LastEvaluatedKey, 2)
			startKey = out.LastEvaluatedKey
		}
		assert.Len(t, seen, 23, "limit %d", limit)
		for id, n := range seen {
			assert.Equal(t, 1, n, "limit %d: %s seen %d times", limit, id, n)
		}
		// a full last page still carries a key, the next read comes back empty
		wantPages := 23/int(limit) + 1
		assert.Equal(t, wantPages, pages, "limit %d", limit)
	}
}

func TestStore_ScanKeyOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTable(t, store, "orders")
	seed(t, store, "orders", 9)

	out, err := store.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String("orders")})
	require.NoError(t, err)
	require.Len(t, out.Items, 9)
	assert.Equal(t, int32(9), out.Count)

	var got []string
	for _, item := range out.Items {
		got = append(got, item["customerId"].(*types.AttributeValueMemberS).Value+"/"+orderID(item))
	}
	assert.IsIncreasing(t, got)
}

func TestStore_ScanStartKeyOfDeletedItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTable(t, store, "orders")
	seed(t, store, "orders", 6)

	first, err := store.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String("orders"), Limit: aws.Int32(2)})
	require.NoError(t, err)
	_, err = store.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String("orders"), Key: first.LastEvaluatedKey})
	require.NoError(t, err)

	rest, err := store.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String("orders"), ExclusiveStartKey: first.LastEvaluatedKey})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 4)
}

func TestStore_ScanProjection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTable(t, store, "orders")
	seed(t, store, "orders", 3)

	t.Run("expression with names", func(t *testing.T) {
		out, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String("orders"),
			Select:                   types.SelectSpecificAttributes,
			ProjectionExpression:     aws.String("#0, #1"),
			ExpressionAttributeNames: map[string]string{"#0": "customerId", "#1": "orderId"},
		})
		require.NoError(t, err)
		require.Len(t, out.Items, 3)
		for _, item := range out.Items {
			assert.Len(t, item, 2)
			assert.Contains(t, item, "customerId")
			assert.Contains(t, item, "orderId")
		}
	})

	t.Run("plain names", func(t *testing.T) {
		out, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String("orders"),
			ProjectionExpression: aws.String("email,missing"),
		})
		require.NoError(t, err)
		for _, item := range out.Items {
			assert.Len(t, item, 1)
			assert.Contains(t, item, "email")
		}
	})

	t.Run("attributes to get", func(t *testing.T) {
		out, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName:       aws.String("orders"),
			AttributesToGet: []string{"paid"},
		})
		require.NoError(t, err)
		for _, item := range out.Items {
			assert.Len(t, item, 1)
		}
	})

	t.Run("count only", func(t *testing.T) {
		out, err := store.Scan(ctx, &dynamodb.ScanInput{
			TableName: aws.String("orders"),
			Select:    types.SelectCount,
		})
		require.NoError(t, err)
		assert.Empty(t, out.Items)
		assert.Equal(t, int32(3), out.Count)
	})

	invalid := map[string]*dynamodb.ScanInput{
		"unresolved name": {
			TableName:            aws.String("orders"),
			ProjectionExpression: aws.String("#0"),
		},
		"unused name": {
			TableName:                aws.String("orders"),
			ProjectionExpression:     aws.String("email"),
			ExpressionAttributeNames: map[string]string{"#x": "paid"},
		},
		"nested path": {
			TableName:            aws.String("orders"),
			ProjectionExpression: aws.String("notes[0]"),
		},
		"both projection forms": {
			TableName:            aws.String("orders"),
			ProjectionExpression: aws.String("email"),
			AttributesToGet:      []string{"paid"},
		},
		"specific attributes without projection": {
			TableName: aws.String("orders"),
			Select:    types.SelectSpecificAttributes,
		},
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := store.Scan(ctx, in)
			var apiErr smithy.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "ValidationException", apiErr.ErrorCode())
		})
	}
}

func TestStore_ScanUnknownTable(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Scan(context.Background(), &dynamodb.ScanInput{TableName: aws.String("nope")})
	var notFound *types.ResourceNotFoundException
	require.ErrorAs(t, err, &notFound)
}
