// Package scope is the transaction registry: one Scope per logical
// unit of work. Store proxies created within a scope register their
// store names; the first actual access opens a single native
// transaction covering the whole accumulated set, and every later
// access within the scope reuses it. Scopes never share transactions.
package scope

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"burrow/berr"
	"burrow/engine"
)

type Scope struct {
	mu    sync.Mutex
	conn  engine.Conn
	mode  engine.Mode
	names []string
	tx    engine.Tx

	// a bound scope rides an externally owned transaction (the
	// upgrade transaction) instead of opening one
	bound bool

	log *slog.Logger
}

func New(conn engine.Conn, mode engine.Mode, log *slog.Logger) *Scope {
	if log == nil {
		log = slog.Default()
	}
	return &Scope{conn: conn, mode: mode, log: log}
}

// Bound wraps an already-open transaction, typically the upgrade
// transaction: store access resolves against it directly and
// registration becomes a no-op.
func Bound(tx engine.Tx, log *slog.Logger) *Scope {
	if log == nil {
		log = slog.Default()
	}
	return &Scope{mode: engine.ReadWrite, tx: tx, bound: true, log: log}
}

func (s *Scope) Mode() engine.Mode { return s.mode }

// AddStore registers a store name with the scope, idempotently. Once
// the native transaction exists the store set is fixed: registering
// after that point is a hard usage error, not a silent no-op.
func (s *Scope) AddStore(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bound {
		return nil
	}
	for _, n := range s.names {
		if n == name {
			return nil
		}
	}
	if s.tx != nil {
		return &berr.TransactionError{
			Op:    "addStore",
			Store: name,
			Cause: errors.New("store registered after the native transaction was created"),
		}
	}
	s.names = append(s.names, name)
	return nil
}

// Store returns a proxy for the named store, registering the name.
func (s *Scope) Store(name string) (*ObjectStore, error) {
	if err := s.AddStore(name); err != nil {
		return nil, err
	}
	return &ObjectStore{name: name, sc: s}, nil
}

// ensure lazily opens the native transaction over the accumulated
// store set and memoizes it for the rest of the scope's life.
func (s *Scope) ensure() (engine.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return s.tx, nil
	}
	s.log.Debug("opening native transaction", "mode", string(s.mode), "stores", s.names)
	tx, err := s.conn.Transaction(s.names, s.mode)
	if err != nil {
		return nil, berr.ClassifyTransaction("transaction", "", err)
	}
	s.tx = tx
	return tx, nil
}

// useStore resolves a registered name to the native store, opening the
// transaction if this is the scope's first access.
func (s *Scope) useStore(name string) (engine.Store, error) {
	tx, err := s.ensure()
	if err != nil {
		return nil, err
	}
	st, err := tx.Store(name)
	if err != nil {
		return nil, berr.ClassifyTransaction("objectStore", name, err)
	}
	return st, nil
}

// Finish finalizes the scope: on a nil body error the native
// transaction (if one was ever opened) commits, otherwise it aborts
// and the body error wins. Bound scopes are finalized by their owner.
func (s *Scope) Finish(bodyErr error) error {
	s.mu.Lock()
	tx := s.tx
	bound := s.bound
	s.mu.Unlock()

	if tx == nil || bound {
		return bodyErr
	}
	if bodyErr != nil {
		_ = tx.Abort()
		return bodyErr
	}
	if err := tx.Commit(); err != nil {
		return berr.ClassifyTransaction("commit", "", err)
	}
	return nil
}
