package scan

import (
	"context"
	"fmt"
	"testing"

	"github.com/acksell/carpenter/dynamodb/ddbstore"
	"github.com/acksell/carpenter/dynamodb/schema"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/bxcodec/faker/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	PK      string `dynamodbav:"pk"`
	SK      string `dynamodbav:"sk"`
	Name    string `dynamodbav:"name"`
	Country string `dynamodbav:"country"`
	Visits  int    `dynamodbav:"visits"`
}

func TestScanner_AgainstStore(t *testing.T) {
	ctx := context.Background()
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tbl, err := schema.Build(schema.Params{TableName: "profiles", PartitionKey: "pk", SortKey: "sk", LSICount: 1})
	require.NoError(t, err)
	_, err = store.CreateTable(ctx, tbl.CreateTableInput())
	require.NoError(t, err)

	const n = 31
	for i := 0; i < n; i++ {
		var p profile
		require.NoError(t, faker.FakeData(&p))
		p.PK, p.SK = fmt.Sprintf("user#%02d", i), "profile"
		item, err := attributevalue.MarshalMap(p)
		require.NoError(t, err)
		_, err = store.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String("profiles"), Item: item})
		require.NoError(t, err)
	}

	t.Run("keys only", func(t *testing.T) {
		s := New(store, "profiles", WithProjection(tbl.KeyAttributes()...), WithPageSize(4))
		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, n)
		seen := map[string]bool{}
		for _, r := range all {
			assert.Len(t, r, 2)
			var p profile
			require.NoError(t, attributevalue.UnmarshalMap(r, &p))
			assert.False(t, seen[p.PK], "%s returned twice", p.PK)
			seen[p.PK] = true
		}
		// 7 full pages, then a final page of 3
		assert.Equal(t, 8, s.Reads())
	})

	t.Run("full documents", func(t *testing.T) {
		var profiles []profile
		for r, err := range New(store, "profiles", WithPageSize(10)).Records(ctx) {
			require.NoError(t, err)
			var p profile
			require.NoError(t, attributevalue.UnmarshalMap(r, &p))
			profiles = append(profiles, p)
		}
		require.Len(t, profiles, n)
		assert.NotEmpty(t, profiles[0].Name)
	})
}
