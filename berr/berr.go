// Package berr is the error taxonomy: every documented failure mode of
// the layer is one of five typed errors callers can branch on, each
// carrying the failed operation and the originating cause. Failures
// the taxonomy does not recognize become a *Defect, which is meant to
// be logged or crashed on, not matched: it signals a broken invariant
// in this layer or the engine, not a domain error.
package berr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// OpenError: connecting to a database failed, including a failed
// migration step during the version upgrade.
type OpenError struct {
	Name  string
	Op    string
	Cause error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %q: %s: %v", e.Name, e.Op, e.Cause)
}

func (e *OpenError) Unwrap() error { return e.Cause }

// SchemaChangeError: creating or deleting a store or index failed
// during migration.
type SchemaChangeError struct {
	Store string
	Op    string
	Cause error
}

func (e *SchemaChangeError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Store, e.Cause)
}

func (e *SchemaChangeError) Unwrap() error { return e.Cause }

// TransactionError: opening a native transaction failed, or a store
// was used that is not part of the active transaction's scope.
type TransactionError struct {
	Op    string
	Store string
	Cause error
}

func (e *TransactionError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("transaction: %s %q: %v", e.Op, e.Store, e.Cause)
	}
	return fmt.Sprintf("transaction: %s: %v", e.Op, e.Cause)
}

func (e *TransactionError) Unwrap() error { return e.Cause }

// OperationError: a store read/write/delete/clear call failed.
type OperationError struct {
	Store string
	Op    string
	Cause error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("store %q: %s: %v", e.Store, e.Op, e.Cause)
}

func (e *OperationError) Unwrap() error { return e.Cause }

// IndexOperationError: an index lookup or count failed.
type IndexOperationError struct {
	Store string
	Index string
	Op    string
	Cause error
}

func (e *IndexOperationError) Error() string {
	return fmt.Sprintf("index %q of %q: %s: %v", e.Index, e.Store, e.Op, e.Cause)
}

func (e *IndexOperationError) Unwrap() error { return e.Cause }

// Defect wraps an unrecognized failure, with the stack captured where
// classification gave up on it.
type Defect struct {
	Cause error
}

func NewDefect(cause error) *Defect {
	return &Defect{Cause: errors.WithStack(cause)}
}

func Defectf(format string, args ...any) *Defect {
	return &Defect{Cause: errors.Errorf(format, args...)}
}

func (e *Defect) Error() string { return "defect: " + e.Cause.Error() }

func (e *Defect) Unwrap() error { return e.Cause }

func IsOpenError(err error) bool {
	var e *OpenError
	return stderrors.As(err, &e)
}

func IsSchemaChangeError(err error) bool {
	var e *SchemaChangeError
	return stderrors.As(err, &e)
}

func IsTransactionError(err error) bool {
	var e *TransactionError
	return stderrors.As(err, &e)
}

func IsOperationError(err error) bool {
	var e *OperationError
	return stderrors.As(err, &e)
}

func IsIndexOperationError(err error) bool {
	var e *IndexOperationError
	return stderrors.As(err, &e)
}

func IsDefect(err error) bool {
	var e *Defect
	return stderrors.As(err, &e)
}
