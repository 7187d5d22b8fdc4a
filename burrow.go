// Package burrow layers structured transactions and schema migrations
// over a native versioned object-store engine. Opening a database runs
// the migration plan inside the engine's single upgrade transaction;
// afterwards each unit of work gets its own scope, whose store proxies
// share one lazily opened native transaction. Failures surface as the
// typed errors of package berr.
package burrow

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samber/mo"

	"burrow/berr"
	"burrow/engine"
	"burrow/migrate"
	"burrow/schema"
	"burrow/scope"
)

type Config struct {
	// Name of the database to open.
	Name string

	// Version to open at. None means the current version, or 1 for a
	// database that does not exist yet.
	Version mo.Option[uint64]

	// Schema drives auto-reconciliation for versions without an
	// explicit migration step. An empty schema disables it.
	Schema schema.Schema

	// Plan holds the explicit per-version migration steps.
	Plan migrate.Plan

	Logger *slog.Logger
}

// DB owns one connection for as long as the caller keeps it; Close
// releases it. Independent Opens of the same name are independent
// handles.
type DB struct {
	conn engine.Conn
	log  *slog.Logger
}

// Open connects to the named database, upgrading it first when the
// requested version is above the current one. The whole migration run
// is one unit: any failed step aborts the upgrade transaction, the
// engine rolls back every structural and data change it saw, and Open
// fails with an OpenError wrapping the step's error. Factory-level
// failures classify against the open operation's documented kinds;
// anything unrecognized is a defect.
func Open(eng engine.Engine, cfg Config) (*DB, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	if cfg.Name == "" {
		return nil, &berr.OpenError{Op: "open", Cause: errors.New("empty database name")}
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, &berr.OpenError{Name: cfg.Name, Op: "open", Cause: err}
	}

	// the upgrade callback cannot report back through the effect
	// graph directly; its outcome is captured here and decides how
	// the open failure is classified
	var upgradeErr error
	onUpgrade := func(utx engine.UpgradeTx, oldVersion, newVersion uint64) error {
		log.Info("upgrading database",
			"name", cfg.Name, "from", oldVersion, "to", newVersion)
		runner := migrate.NewRunner(cfg.Plan, cfg.Schema, log)
		if err := runner.Run(utx, oldVersion, newVersion); err != nil {
			upgradeErr = err
			return err
		}
		return nil
	}

	conn, err := eng.Open(cfg.Name, cfg.Version.OrElse(0), onUpgrade)
	if err != nil {
		if upgradeErr != nil {
			return nil, &berr.OpenError{Name: cfg.Name, Op: "upgrade", Cause: upgradeErr}
		}
		return nil, berr.ClassifyOpen(cfg.Name, "open", err)
	}

	log.Debug("database open", "name", conn.Name(), "version", conn.Version())
	return &DB{conn: conn, log: log}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) Name() string { return db.conn.Name() }

func (db *DB) Version() uint64 { return db.conn.Version() }

func (db *DB) StoreNames() []string { return db.conn.StoreNames() }

// Tx runs body inside a fresh scope. Store proxies obtained from the
// scope share one native transaction, opened on first access and
// covering every store registered before that point. A nil body error
// commits; an error aborts the transaction and is returned as is.
func (db *DB) Tx(mode engine.Mode, body func(*scope.Scope) error) error {
	sc := scope.New(db.conn, mode, db.log)
	return sc.Finish(body(sc))
}

// View runs body in a readonly scope.
func (db *DB) View(body func(*scope.Scope) error) error {
	return db.Tx(engine.ReadOnly, body)
}

// Update runs body in a readwrite scope.
func (db *DB) Update(body func(*scope.Scope) error) error {
	return db.Tx(engine.ReadWrite, body)
}
