// Package ddberr defines the error kinds surfaced by carpenter operations.
//
// Every error returned from the schema, scan, truncate and tables packages
// carries a [Kind]. Callers test for a kind with errors.Is:
//
//	if errors.Is(err, ddberr.TableNotFound) {
//		...
//	}
package ddberr

import (
	"errors"
	"fmt"
)

// Kind tags an error with its place in the taxonomy.
// A Kind is itself an error so it can be used as an errors.Is target.
type Kind int

const (
	Unknown Kind = iota
	InvalidArgument
	InvalidSchema
	TableAlreadyExists
	TableNotFound
	StoreUnavailable
	StoreReadFailure
	StoreWriteFailure
	PartialTruncateFailure
)

var kindNames = map[Kind]string{
	Unknown:                "Unknown",
	InvalidArgument:        "InvalidArgument",
	InvalidSchema:          "InvalidSchema",
	TableAlreadyExists:     "TableAlreadyExists",
	TableNotFound:          "TableNotFound",
	StoreUnavailable:       "StoreUnavailable",
	StoreReadFailure:       "StoreReadFailure",
	StoreWriteFailure:      "StoreWriteFailure",
	PartialTruncateFailure: "PartialTruncateFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Error() string {
	return k.String()
}

// Error is a tagged error: kind, the operation that failed and the cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New returns an error of the given kind wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf returns an error of the given kind with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost tagged error in err's chain,
// or Unknown when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
