// Package migrate runs version upgrades: an ordered plan of
// per-version steps executed against the single native upgrade
// transaction, with declarative schema reconciliation filling the
// versions that have no explicit step.
package migrate

import (
	"log/slog"

	"burrow/engine"
	"burrow/schema"
)

// A Step is one version's upgrade, run inside the upgrade transaction.
// Returning an error fails the whole upgrade; the engine rolls every
// change back.
type Step func(*Tx) error

// Plan maps target versions to their steps. A version with no step
// falls back to schema auto-reconciliation when a schema is declared,
// and is a no-op otherwise.
type Plan map[uint64]Step

type Runner struct {
	plan Plan
	decl schema.Schema
	log  *slog.Logger
}

func NewRunner(plan Plan, decl schema.Schema, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{plan: plan, decl: decl, log: log}
}

// Run executes versions oldVersion+1 through newVersion strictly in
// order. The engine permits exactly one upgrade transaction, so there
// is nothing to parallelize: a failed version stops the run and fails
// the surrounding open.
func (r *Runner) Run(utx engine.UpgradeTx, oldVersion, newVersion uint64) error {
	for v := oldVersion + 1; v <= newVersion; v++ {
		tx := newTx(utx, r.decl, r.log)

		step, ok := r.plan[v]
		switch {
		case ok:
			r.log.Debug("running migration step", "version", v)
			if err := step(tx); err != nil {
				r.log.Error("migration step failed", "version", v, "err", err)
				return err
			}
		case !r.decl.IsZero():
			r.log.Debug("auto-reconciling schema", "version", v)
			if err := tx.AutoGenerateObjectStores(); err != nil {
				r.log.Error("schema reconciliation failed", "version", v, "err", err)
				return err
			}
		default:
			r.log.Debug("no migration step", "version", v)
		}
	}
	return nil
}
