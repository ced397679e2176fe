package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// ResultStream abstracts the record stream returned by a statement run.
type ResultStream interface {
	Next(ctx context.Context) bool
	Record() *db.Record
	Err() error
	Collect(ctx context.Context) ([]*db.Record, error)
	Single(ctx context.Context) (*db.Record, error)
}

// TransactionRunner abstracts neo4j.ExplicitTransaction.
type TransactionRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (ResultStream, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SessionRunner abstracts neo4j.SessionWithContext.
type SessionRunner interface {
	BeginTransaction(ctx context.Context) (TransactionRunner, error)
	Run(ctx context.Context, cypher string, params map[string]any) (ResultStream, error)
	Close(ctx context.Context) error
}

// DriverSessioner abstracts neo4j.DriverWithContext.
type DriverSessioner interface {
	NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner
	Close(ctx context.Context) error
}

type boltDriver struct {
	driver neo4j.DriverWithContext
}

// WrapDriver adapts a neo4j driver to the DriverSessioner interface.
func WrapDriver(driver neo4j.DriverWithContext) DriverSessioner {
	return &boltDriver{driver: driver}
}

func (d *boltDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner {
	return &boltSession{session: d.driver.NewSession(ctx, config)}
}

func (d *boltDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

type boltSession struct {
	session neo4j.SessionWithContext
}

func (s *boltSession) BeginTransaction(ctx context.Context) (TransactionRunner, error) {
	tx, err := s.session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &boltTransaction{tx: tx}, nil
}

func (s *boltSession) Run(ctx context.Context, cypher string, params map[string]any) (ResultStream, error) {
	return s.session.Run(ctx, cypher, params)
}

func (s *boltSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type boltTransaction struct {
	tx neo4j.ExplicitTransaction
}

func (t *boltTransaction) Run(ctx context.Context, cypher string, params map[string]any) (ResultStream, error) {
	return t.tx.Run(ctx, cypher, params)
}

func (t *boltTransaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *boltTransaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
