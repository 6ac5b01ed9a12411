// Package truncate deletes every record of a table without dropping the table.
//
// Truncate scans the table projecting only the key attributes, then deletes
// each record by key on a bounded worker pool. Every delete is attempted and
// awaited before the outcome is reported, a single failure never cancels the
// others.
package truncate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/ddbiface"
	"github.com/acksell/carpenter/dynamodb/ddblog"
	"github.com/acksell/carpenter/dynamodb/scan"
	"github.com/acksell/carpenter/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of deletes in flight at once.
const DefaultConcurrency = 16

type Client interface {
	ddbiface.Scanner
	ddbiface.Deleter
	ddbiface.BatchWriter
}

// KeyFailure is a record that could not be deleted.
type KeyFailure struct {
	Key table.RecordKey
	Err error
}

type Result struct {
	// Scanned is the number of records found by the scan.
	Scanned int
	// Deleted is the number of records whose delete succeeded.
	Deleted int
	// Failures lists every record whose delete failed, sorted by key.
	Failures []KeyFailure
}

type options struct {
	concurrency     int
	pageSize        int32
	batch           bool
	maxBatchRetries int
	backoff         BackoffFunc
	logger          ddblog.Logger
}

type Option func(*options)

// WithConcurrency bounds the number of concurrent delete requests.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithPageSize sets the page size of the key scan.
func WithPageSize(n int32) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithBatchWrites deletes keys in chunks of MaxBatchSize through BatchWriteItem
// instead of one DeleteItem per record.
func WithBatchWrites() Option {
	return func(o *options) {
		o.batch = true
	}
}

// WithMaxBatchRetries sets how often unprocessed batch items are resent.
func WithMaxBatchRetries(n int) Option {
	return func(o *options) {
		o.maxBatchRetries = n
	}
}

// WithBackoff overrides the wait between batch retries.
func WithBackoff(fn BackoffFunc) Option {
	return func(o *options) {
		o.backoff = fn
	}
}

func WithLogger(l ddblog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Truncate deletes every record of tableName. keyAttrs names the table's key
// attributes; records are scanned projecting exactly those and deleted by them.
//
// A failed scan aborts before any delete is issued. If any delete fails the
// returned error is ddberr.PartialTruncateFailure wrapping one
// ddberr.StoreWriteFailure per failed key, and Result lists the failed keys.
// The table is then not guaranteed to be empty.
func Truncate(ctx context.Context, client Client, tableName string, keyAttrs []string, opts ...Option) (Result, error) {
	const op = "truncate.Truncate"
	o := options{
		concurrency:     DefaultConcurrency,
		maxBatchRetries: DefaultMaxBatchRetries,
		backoff:         DefaultBackoff,
		logger:          ddblog.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case tableName == "":
		return Result{}, ddberr.Errorf(ddberr.InvalidArgument, op, "table name is required")
	case len(keyAttrs) == 0:
		return Result{}, ddberr.Errorf(ddberr.InvalidArgument, op, "key attributes are required")
	case o.concurrency < 1:
		return Result{}, ddberr.Errorf(ddberr.InvalidArgument, op, "concurrency must be positive, got %d", o.concurrency)
	}

	records, err := scan.New(client, tableName,
		scan.WithProjection(keyAttrs...),
		scan.WithPageSize(o.pageSize),
		scan.WithLogger(o.logger),
	).All(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Scanned: len(records)}
	if len(records) == 0 {
		o.logger.Info("table already empty", "table", tableName)
		return res, nil
	}

	keys := make([]table.RecordKey, len(records))
	for i, r := range records {
		keys[i], err = table.ProjectKey(r, keyAttrs)
		if err != nil {
			return res, ddberr.New(ddberr.InvalidArgument, op, fmt.Errorf("record %d of %s: %w", i, tableName, err))
		}
	}

	t := &truncator{
		client:    client,
		tableName: tableName,
		opts:      o,
	}
	if o.batch {
		t.deleteBatched(ctx, keys)
	} else {
		t.deleteEach(ctx, keys)
	}

	res.Deleted = int(t.deleted.Load())
	res.Failures = t.sortedFailures()
	o.logger.Info("truncated table",
		"table", tableName,
		"scanned", res.Scanned,
		"deleted", res.Deleted,
		"failed", len(res.Failures))

	if len(res.Failures) > 0 {
		var errs error
		for _, f := range res.Failures {
			errs = multierr.Append(errs, f.Err)
		}
		return res, ddberr.New(ddberr.PartialTruncateFailure, op,
			fmt.Errorf("%d of %d deletes failed: %w", len(res.Failures), res.Scanned, errs))
	}
	return res, nil
}

type truncator struct {
	client    Client
	tableName string
	opts      options

	deleted atomic.Int64

	mu       sync.Mutex
	failures []KeyFailure
}

func (t *truncator) deleteEach(ctx context.Context, keys []table.RecordKey) {
	bounded(ctx, t.opts.concurrency, keys, t.deleteOne, t.fail)
}

func (t *truncator) deleteOne(ctx context.Context, key table.RecordKey) {
	_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(t.tableName),
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		t.fail(key, err)
		return
	}
	t.deleted.Inc()
}

// bounded calls work for every item with at most limit calls in flight and
// returns once all of them are done. No call cancels another. Items that
// never start because ctx ended are handed to skipped with the context error.
func bounded[T any](ctx context.Context, limit int, items []T, work func(context.Context, T), skipped func(T, error)) {
	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup
	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			skipped(item, err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			work(ctx, item)
		}()
	}
	wg.Wait()
}

func (t *truncator) fail(key table.RecordKey, err error) {
	t.opts.logger.Warn("delete failed", "table", t.tableName, "key", key.String(), "error", err)
	werr := ddberr.New(ddberr.StoreWriteFailure, "truncate.DeleteItem", fmt.Errorf("key %s: %w", key, err))
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, KeyFailure{Key: key, Err: werr})
}

func (t *truncator) sortedFailures() []KeyFailure {
	t.mu.Lock()
	defer t.mu.Unlock()
	sort.Slice(t.failures, func(i, j int) bool {
		return t.failures[i].Key.String() < t.failures[j].Key.String()
	})
	return t.failures
}
