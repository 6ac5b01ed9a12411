package ddbstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/acksell/carpenter/dynamodb/ddbiface"
	"github.com/acksell/carpenter/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/dgraph-io/badger/v4"
	"gopkg.in/yaml.v3"
)

// Store is a DynamoDB-compatible store backed by BadgerDB.
// Tables are created and dropped at runtime; their definitions live in a
// catalog inside the same database so an on-disk store survives restarts.
type Store struct {
	db *badger.DB
}

var _ ddbiface.Client = &Store{}

// StoreOptions configures the BadgerDB store.
type StoreOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// New opens a BadgerDB-backed DynamoDB store.
func New(opts StoreOptions) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// catalogEntry is the persisted form of a table.
type catalogEntry struct {
	Definition table.TableDefinition `yaml:"definition"`
	ReadUnits  int64                 `yaml:"read_units,omitempty"`
	WriteUnits int64                 `yaml:"write_units,omitempty"`
	CreatedAt  time.Time             `yaml:"created_at"`
}

// The catalog lives under a prefix no valid table name can start with.
const catalogPrefix = "$catalog"

func catalogKey(tableName string) []byte {
	return append([]byte(catalogPrefix+string(keySeparator)), tableName...)
}

func catalogScanPrefix() []byte {
	return []byte(catalogPrefix + string(keySeparator))
}

func loadTable(txn *badger.Txn, tableName *string) (catalogEntry, error) {
	if tableName == nil || *tableName == "" {
		return catalogEntry{}, validationError("table name is required")
	}
	item, err := txn.Get(catalogKey(*tableName))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return catalogEntry{}, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Cannot do operations on a non-existent table: %s", *tableName)),
		}
	}
	if err != nil {
		return catalogEntry{}, fmt.Errorf("read catalog: %w", err)
	}
	var entry catalogEntry
	err = item.Value(func(val []byte) error {
		return yaml.Unmarshal(val, &entry)
	})
	if err != nil {
		return catalogEntry{}, fmt.Errorf("decode catalog entry %s: %w", *tableName, err)
	}
	return entry, nil
}

func saveTable(txn *badger.Txn, entry catalogEntry) error {
	val, err := yaml.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode catalog entry: %w", err)
	}
	return txn.Set(catalogKey(entry.Definition.Name), val)
}

func validationError(format string, args ...any) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: fmt.Sprintf(format, args...),
		Fault:   smithy.FaultClient,
	}
}
