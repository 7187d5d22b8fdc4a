package berr

import (
	stderrors "errors"

	"burrow/engine"
)

// Recognized failure kinds per operation. A kind missing from an
// operation's row means the engine is not documented to raise it
// there, so it classifies as a defect.
var (
	openKinds = []engine.Kind{
		engine.VersionError,
		engine.AbortError,
		engine.QuotaExceededError,
		engine.InvalidStateError,
		engine.UnknownError,
	}

	txKinds = map[string][]engine.Kind{
		"transaction": {
			engine.InvalidStateError,
			engine.NotFoundError,
			engine.InvalidAccessError,
		},
		"objectStore": {
			engine.NotFoundError,
			engine.InvalidStateError,
			engine.TransactionInactiveError,
		},
		"commit": {
			engine.InvalidStateError,
			engine.TransactionInactiveError,
			engine.QuotaExceededError,
			engine.AbortError,
		},
		"abort": {
			engine.InvalidStateError,
			engine.TransactionInactiveError,
		},
	}

	writeKinds = []engine.Kind{
		engine.ConstraintError,
		engine.DataError,
		engine.DataCloneError,
		engine.TransactionInactiveError,
		engine.ReadOnlyError,
		engine.InvalidStateError,
		engine.QuotaExceededError,
	}

	readKinds = []engine.Kind{
		engine.DataError,
		engine.TransactionInactiveError,
		engine.InvalidStateError,
	}

	storeOpKinds = map[string][]engine.Kind{
		"add":        writeKinds,
		"put":        writeKinds,
		"get":        readKinds,
		"getAll":     readKinds,
		"getAllKeys": readKinds,
		"count":      readKinds,
		"delete": {
			engine.DataError,
			engine.TransactionInactiveError,
			engine.ReadOnlyError,
			engine.InvalidStateError,
		},
		"clear": {
			engine.TransactionInactiveError,
			engine.ReadOnlyError,
			engine.InvalidStateError,
		},
		"index": {
			engine.NotFoundError,
			engine.InvalidStateError,
			engine.TransactionInactiveError,
		},
	}

	indexOpKinds = map[string][]engine.Kind{
		"get":        readKinds,
		"getKey":     readKinds,
		"getAll":     readKinds,
		"getAllKeys": readKinds,
		"count":      readKinds,
	}

	schemaOpKinds = map[string][]engine.Kind{
		"createObjectStore": {
			engine.ConstraintError,
			engine.InvalidAccessError,
			engine.SyntaxError,
			engine.TransactionInactiveError,
			engine.InvalidStateError,
		},
		"deleteObjectStore": {
			engine.NotFoundError,
			engine.TransactionInactiveError,
			engine.InvalidStateError,
		},
		"createIndex": {
			engine.ConstraintError,
			engine.InvalidAccessError,
			engine.SyntaxError,
			engine.TransactionInactiveError,
			engine.InvalidStateError,
		},
		"deleteIndex": {
			engine.NotFoundError,
			engine.TransactionInactiveError,
			engine.InvalidStateError,
		},
	}
)

// match reports whether err is an engine failure of one of the given
// kinds.
func match(err error, kinds []engine.Kind) bool {
	var f *engine.Failure
	if !stderrors.As(err, &f) {
		return false
	}
	for _, k := range kinds {
		if f.Kind == k {
			return true
		}
	}
	return false
}

// ClassifyOpen turns a factory-level open failure into an OpenError,
// or a Defect if the failure kind is not documented for open.
func ClassifyOpen(name, op string, err error) error {
	if err == nil {
		return nil
	}
	if match(err, openKinds) {
		return &OpenError{Name: name, Op: op, Cause: err}
	}
	return NewDefect(err)
}

// ClassifyTransaction covers opening transactions, resolving stores
// within them, and finalization.
func ClassifyTransaction(op, store string, err error) error {
	if err == nil {
		return nil
	}
	if match(err, txKinds[op]) {
		return &TransactionError{Op: op, Store: store, Cause: err}
	}
	return NewDefect(err)
}

func ClassifyOperation(store, op string, err error) error {
	if err == nil {
		return nil
	}
	if match(err, storeOpKinds[op]) {
		return &OperationError{Store: store, Op: op, Cause: err}
	}
	return NewDefect(err)
}

func ClassifyIndexOperation(store, index, op string, err error) error {
	if err == nil {
		return nil
	}
	if match(err, indexOpKinds[op]) {
		return &IndexOperationError{Store: store, Index: index, Op: op, Cause: err}
	}
	return NewDefect(err)
}

func ClassifySchemaChange(store, op string, err error) error {
	if err == nil {
		return nil
	}
	if match(err, schemaOpKinds[op]) {
		return &SchemaChangeError{Store: store, Op: op, Cause: err}
	}
	return NewDefect(err)
}
