package truncate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/acksell/carpenter/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// MaxBatchSize is the BatchWriteItem limit on requests per call.
	MaxBatchSize = 25
	// DefaultMaxBatchRetries is how often unprocessed batch items are resent.
	DefaultMaxBatchRetries = 5
)

// BackoffFunc returns the wait before retry attempt n, starting at 0.
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff grows base by multiplier per attempt up to cap, with full jitter.
func ExponentialBackoff(base time.Duration, multiplier float64, cap time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		factor := 1.0
		for i := 0; i < attempt; i++ {
			factor *= multiplier
		}
		backoff := time.Duration(float64(base) * factor)
		if backoff > cap {
			backoff = cap
		}
		if backoff <= 0 {
			return 0
		}
		return time.Duration(rand.Int64N(int64(backoff)))
	}
}

// DefaultBackoff is [ExponentialBackoff] with 50ms base, 2x multiplier, 5s cap.
var DefaultBackoff = ExponentialBackoff(50*time.Millisecond, 2.0, 5*time.Second)

func (t *truncator) deleteBatched(ctx context.Context, keys []table.RecordKey) {
	chunks := slices.Collect(slices.Chunk(keys, MaxBatchSize))
	bounded(ctx, t.opts.concurrency, chunks, t.deleteChunk, func(chunk []table.RecordKey, err error) {
		for _, key := range chunk {
			t.fail(key, err)
		}
	})
}

// deleteChunk sends one batch and resends whatever the store leaves
// unprocessed until it is empty or retries run out.
func (t *truncator) deleteChunk(ctx context.Context, chunk []table.RecordKey) {
	pending := make([]types.WriteRequest, len(chunk))
	for i, key := range chunk {
		pending[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}}
	}

	for attempt := 0; ; attempt++ {
		out, err := t.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{t.tableName: pending},
		})
		if err != nil {
			t.failAll(pending, err)
			return
		}
		unprocessed := out.UnprocessedItems[t.tableName]
		t.deleted.Add(int64(len(pending) - len(unprocessed)))
		if len(unprocessed) == 0 {
			return
		}
		if attempt >= t.opts.maxBatchRetries {
			t.failAll(unprocessed, fmt.Errorf("still unprocessed after %d retries", attempt))
			return
		}
		t.opts.logger.Debug("retrying unprocessed deletes",
			"table", t.tableName,
			"unprocessed", len(unprocessed),
			"attempt", attempt+1)
		pending = unprocessed

		select {
		case <-ctx.Done():
			t.failAll(pending, ctx.Err())
			return
		case <-time.After(t.opts.backoff(attempt)):
		}
	}
}

func (t *truncator) failAll(reqs []types.WriteRequest, err error) {
	for _, req := range reqs {
		if req.DeleteRequest == nil {
			continue
		}
		t.fail(table.RecordKey(req.DeleteRequest.Key), err)
	}
}
