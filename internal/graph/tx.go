package graph

import "context"

// Outcome tells Resolve how to conclude the current transaction.
type Outcome int

const (
	// Success commits the transaction.
	Success Outcome = iota
	// Failure rolls the transaction back.
	Failure
)

// withTx returns the open transaction, beginning one on the session first if
// none is active. The transaction stays open until Commit or Rollback.
func (g *Graph) withTx(ctx context.Context) (TransactionRunner, error) {
	if g.tx != nil {
		return g.tx, nil
	}
	tx, err := g.session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	g.tx = tx
	return tx, nil
}

// Commit commits and closes the current transaction. A no-op when none is
// open. The active slot is cleared even when the commit fails, so the Graph
// never holds a reference to a closed transaction.
func (g *Graph) Commit(ctx context.Context) error {
	tx := g.tx
	if tx == nil {
		return nil
	}
	g.tx = nil
	return tx.Commit(ctx)
}

// Rollback discards and closes the current transaction. A no-op when none is
// open; the active slot is always cleared.
func (g *Graph) Rollback(ctx context.Context) error {
	tx := g.tx
	if tx == nil {
		return nil
	}
	g.tx = nil
	return tx.Rollback(ctx)
}

// Resolve concludes the current transaction according to outcome.
func (g *Graph) Resolve(ctx context.Context, outcome Outcome) error {
	if outcome == Failure {
		return g.Rollback(ctx)
	}
	return g.Commit(ctx)
}

// InTransaction reports whether a transaction is currently open.
func (g *Graph) InTransaction() bool {
	return g.tx != nil
}
