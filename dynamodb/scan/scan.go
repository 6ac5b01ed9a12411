// Package scan enumerates every record of a table through the page limited Scan API.
//
// A [Scanner] carries the continuation token between bounded reads. Reads are
// strictly sequential since each one starts where the previous one stopped.
// The scanner stops when the store returns a page without a continuation
// token and imposes no page limit of its own.
package scan

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/acksell/carpenter/dynamodb/ddberr"
	"github.com/acksell/carpenter/dynamodb/ddbiface"
	"github.com/acksell/carpenter/dynamodb/ddblog"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Record is a single item as returned by the store.
type Record = map[string]types.AttributeValue

// Page is the result of one bounded read.
type Page struct {
	Records []Record
	// Token is the continuation cursor, nil on the last page.
	Token map[string]types.AttributeValue
}

// ErrDone is returned by Next once the last page has been read.
var ErrDone = errors.New("scan: no more pages")

type Scanner struct {
	client    ddbiface.Scanner
	tableName string
	opts      options

	// built on the first read
	expr *expression.Expression

	cursor map[string]types.AttributeValue
	reads  int
	done   bool
	err    error
}

type options struct {
	projection []string
	pageSize   int32
	logger     ddblog.Logger
}

type Option func(*options)

// WithProjection limits the attributes returned for each record.
// Without it full records are returned.
func WithProjection(attrs ...string) Option {
	return func(o *options) {
		o.projection = attrs
	}
}

// WithPageSize caps the number of records per bounded read.
// Zero leaves the page size to the store.
func WithPageSize(n int32) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

func WithLogger(l ddblog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a scanner over tableName. Each scanner reads the table once;
// create a new one to start over.
func New(client ddbiface.Scanner, tableName string, opts ...Option) *Scanner {
	s := &Scanner{
		client:    client,
		tableName: tableName,
		opts:      options{logger: ddblog.NewNop()},
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// Next issues one bounded read starting at the current cursor.
// A failed read is final: the scanner keeps returning the same error.
// Read failures are ddberr.StoreReadFailure unless the store reports a
// missing table (ddberr.TableNotFound) or can't be reached (ddberr.StoreUnavailable).
func (s *Scanner) Next(ctx context.Context) (Page, error) {
	const op = "scan.Next"
	if s.err != nil {
		return Page{}, s.err
	}
	if s.done {
		return Page{}, ErrDone
	}

	input, err := s.input()
	if err != nil {
		s.err = ddberr.New(ddberr.InvalidArgument, op, err)
		return Page{}, s.err
	}
	input.ExclusiveStartKey = s.cursor

	s.reads++
	out, err := s.client.Scan(ctx, input)
	if err != nil {
		s.err = ddberr.Classify(op, fmt.Errorf("table %s page %d: %w", s.tableName, s.reads, err), ddberr.StoreReadFailure)
		return Page{}, s.err
	}

	s.cursor = out.LastEvaluatedKey
	s.done = len(out.LastEvaluatedKey) == 0
	s.opts.logger.Debug("scanned page",
		"table", s.tableName,
		"page", s.reads,
		"records", len(out.Items),
		"more", !s.done)

	return Page{Records: out.Items, Token: out.LastEvaluatedKey}, nil
}

// Done reports whether the last page has been read.
func (s *Scanner) Done() bool {
	return s.done
}

// Reads returns the number of bounded reads issued so far.
func (s *Scanner) Reads() int {
	return s.reads
}

// All reads the remaining pages and returns their records in store order.
// Any failed read aborts the whole scan without a partial result.
func (s *Scanner) All(ctx context.Context) ([]Record, error) {
	var all []Record
	for !s.done {
		page, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
	}
	return all, nil
}

// Records returns the remaining records as a lazy sequence. Pages are only
// read when the consumer reaches them. A failed read is yielded once as
// the final element.
func (s *Scanner) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for !s.done {
			page, err := s.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, r := range page.Records {
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

func (s *Scanner) input() (*dynamodb.ScanInput, error) {
	in := &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	}
	if s.opts.pageSize > 0 {
		in.Limit = aws.Int32(s.opts.pageSize)
	}
	if len(s.opts.projection) == 0 {
		return in, nil
	}
	if s.expr == nil {
		expr, err := projectionExpression(s.opts.projection)
		if err != nil {
			return nil, err
		}
		s.expr = &expr
	}
	in.Select = types.SelectSpecificAttributes
	in.ProjectionExpression = s.expr.Projection()
	in.ExpressionAttributeNames = s.expr.Names()
	return in, nil
}

func projectionExpression(attrs []string) (expression.Expression, error) {
	var proj expression.ProjectionBuilder
	for i, attr := range attrs {
		if i == 0 {
			proj = expression.NamesList(expression.Name(attr))
		} else {
			proj = proj.AddNames(expression.Name(attr))
		}
	}
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build projection expression: %w", err)
	}
	return expr, nil
}
