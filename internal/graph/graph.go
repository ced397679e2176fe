// Package graph exposes a property-graph facade over a Bolt session. Every
// operation is translated into a parameterized Cypher statement and executed
// inside an implicit transaction that stays open until the caller commits or
// rolls back.
//
// A Graph owns exactly one session and at most one open transaction. It
// carries no internal locking: callers invoking one Graph from multiple
// goroutines must serialize access themselves.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// VertexLabel is the reserved label applied to every vertex. Key indices are
// created under this same label.
const VertexLabel = "INDEXED"

var (
	// ErrNilID is returned by lookups invoked with a nil identifier.
	ErrNilID = errors.New("id must not be nil")
	// ErrEmptyLabel is returned by AddEdge when the edge label is missing.
	ErrEmptyLabel = errors.New("edge label must not be empty")
)

// IndexStore persists the set of indexed property keys across Graph
// instances. Implementations live outside this package; a nil store keeps
// the registry purely in memory.
type IndexStore interface {
	AddKey(ctx context.Context, key string) error
	RemoveKey(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Graph is the query-translation facade. Construct with Open or New, release
// with Close.
type Graph struct {
	driver  DriverSessioner
	session SessionRunner
	tx      TransactionRunner // nil when no transaction is open

	vertexWrapper VertexWrapper
	edgeWrapper   EdgeWrapper

	indexKeys  map[string]struct{}
	indexStore IndexStore
}

// Option customizes Graph construction.
type Option func(*Graph)

// WithVertexWrapper installs a custom vertex wrapping strategy.
func WithVertexWrapper(w VertexWrapper) Option {
	return func(g *Graph) { g.vertexWrapper = w }
}

// WithEdgeWrapper installs a custom edge wrapping strategy.
func WithEdgeWrapper(w EdgeWrapper) Option {
	return func(g *Graph) { g.edgeWrapper = w }
}

// WithIndexStore persists index-key bookkeeping to store and seeds the
// in-memory registry from it at construction time.
func WithIndexStore(store IndexStore) Option {
	return func(g *Graph) { g.indexStore = store }
}

// Open connects to the configured Bolt endpoint and returns a ready Graph.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Graph, error) {
	cfg = cfg.withDefaults()
	driver, err := cfg.newDriver()
	if err != nil {
		return nil, fmt.Errorf("open graph driver: %w", err)
	}
	return New(ctx, WrapDriver(driver), neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: cfg.Database,
	}, opts...)
}

// New builds a Graph on an existing driver, opening its single session.
func New(ctx context.Context, driver DriverSessioner, sessionCfg neo4j.SessionConfig, opts ...Option) (*Graph, error) {
	g := &Graph{
		driver:    driver,
		session:   driver.NewSession(ctx, sessionCfg),
		indexKeys: make(map[string]struct{}),
	}
	g.vertexWrapper = defaultVertexWrapper(g)
	g.edgeWrapper = defaultEdgeWrapper(g)
	for _, opt := range opts {
		opt(g)
	}
	if g.indexStore != nil {
		keys, err := g.indexStore.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed index registry: %w", err)
		}
		for _, key := range keys {
			g.indexKeys[key] = struct{}{}
		}
	}
	return g, nil
}

// Session exposes the raw session for statements outside the facade's
// operation set.
func (g *Graph) Session() SessionRunner {
	return g.session
}

// AddVertex creates a vertex under the reserved label and returns it.
func (g *Graph) AddVertex(ctx context.Context) (*Vertex, error) {
	label, err := escapeIdentifier(VertexLabel)
	if err != nil {
		return nil, err
	}
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, err
	}
	result, err := tx.Run(ctx, fmt.Sprintf("create (n:%s) return n", label), nil)
	if err != nil {
		return nil, err
	}
	node, err := singleNode(ctx, result)
	if err != nil {
		return nil, err
	}
	return g.vertexWrapper(node), nil
}

// GetVertex looks a vertex up by backend identity. The second return value
// reports whether a vertex was found.
func (g *Graph) GetVertex(ctx context.Context, id any) (*Vertex, bool, error) {
	if id == nil {
		return nil, false, ErrNilID
	}
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, false, err
	}
	result, err := tx.Run(ctx, "match (n) where id(n) = $id return n", map[string]any{"id": id})
	if err != nil {
		return nil, false, err
	}
	if !result.Next(ctx) {
		return nil, false, result.Err()
	}
	node, err := recordNode(result.Record())
	if err != nil {
		return nil, false, err
	}
	return g.vertexWrapper(node), true, nil
}

// RemoveVertex deletes the vertex and every incident edge.
func (g *Graph) RemoveVertex(ctx context.Context, v *Vertex) error {
	tx, err := g.withTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Run(ctx, "match (n) where id(n) = $id detach delete n", map[string]any{"id": v.ID()})
	return err
}

// Vertices returns every vertex in the graph.
func (g *Graph) Vertices(ctx context.Context) (*VertexIterable, error) {
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, err
	}
	result, err := tx.Run(ctx, "match (n) return n", nil)
	if err != nil {
		return nil, err
	}
	nodes, err := collectNodes(ctx, result)
	if err != nil {
		return nil, err
	}
	return newVertexIterable(nodes, g.vertexWrapper), nil
}

// VerticesWithProperty returns the vertices under the reserved label whose
// key property equals value.
func (g *Graph) VerticesWithProperty(ctx context.Context, key string, value any) (*VertexIterable, error) {
	label, err := escapeIdentifier(VertexLabel)
	if err != nil {
		return nil, err
	}
	prop, err := escapeIdentifier(key)
	if err != nil {
		return nil, err
	}
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, err
	}
	statement := fmt.Sprintf("match (n:%s) where n.%s = $value return n", label, prop)
	result, err := tx.Run(ctx, statement, map[string]any{"value": value})
	if err != nil {
		return nil, err
	}
	nodes, err := collectNodes(ctx, result)
	if err != nil {
		return nil, err
	}
	return newVertexIterable(nodes, g.vertexWrapper), nil
}

// AddEdge creates a labeled edge from out to in and returns it.
func (g *Graph) AddEdge(ctx context.Context, out, in *Vertex, label string) (*Edge, error) {
	if label == "" {
		return nil, ErrEmptyLabel
	}
	relType, err := escapeIdentifier(label)
	if err != nil {
		return nil, err
	}
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, err
	}
	statement := fmt.Sprintf(
		"match (a), (b) where id(a) = $ida and id(b) = $idb create (a)-[r:%s]->(b) return r",
		relType,
	)
	result, err := tx.Run(ctx, statement, map[string]any{"ida": out.ID(), "idb": in.ID()})
	if err != nil {
		return nil, err
	}
	rel, err := singleRelationship(ctx, result)
	if err != nil {
		return nil, err
	}
	return g.edgeWrapper(rel), nil
}

// GetEdge looks an edge up by backend identity. The second return value
// reports whether an edge was found.
func (g *Graph) GetEdge(ctx context.Context, id any) (*Edge, bool, error) {
	if id == nil {
		return nil, false, ErrNilID
	}
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, false, err
	}
	result, err := tx.Run(ctx, "match ()-[r]->() where id(r) = $id return r", map[string]any{"id": id})
	if err != nil {
		return nil, false, err
	}
	if !result.Next(ctx) {
		return nil, false, result.Err()
	}
	rel, err := recordRelationship(result.Record())
	if err != nil {
		return nil, false, err
	}
	return g.edgeWrapper(rel), true, nil
}

// RemoveEdge deletes the edge.
func (g *Graph) RemoveEdge(ctx context.Context, e *Edge) error {
	tx, err := g.withTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Run(ctx, "match ()-[r]->() where id(r) = $id delete r", map[string]any{"id": e.ID()})
	return err
}

// Edges returns every edge in the graph.
func (g *Graph) Edges(ctx context.Context) (*EdgeIterable, error) {
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, err
	}
	result, err := tx.Run(ctx, "match ()-[r]-() return r", nil)
	if err != nil {
		return nil, err
	}
	rels, err := collectRelationships(ctx, result)
	if err != nil {
		return nil, err
	}
	return newEdgeIterable(rels, g.edgeWrapper), nil
}

// EdgesWithProperty returns the edges whose key property equals value.
func (g *Graph) EdgesWithProperty(ctx context.Context, key string, value any) (*EdgeIterable, error) {
	prop, err := escapeIdentifier(key)
	if err != nil {
		return nil, err
	}
	tx, err := g.withTx(ctx)
	if err != nil {
		return nil, err
	}
	statement := fmt.Sprintf("match ()-[r]-() where r.%s = $value return r", prop)
	result, err := tx.Run(ctx, statement, map[string]any{"value": value})
	if err != nil {
		return nil, err
	}
	rels, err := collectRelationships(ctx, result)
	if err != nil {
		return nil, err
	}
	return newEdgeIterable(rels, g.edgeWrapper), nil
}

// Close resolves any pending transaction, then releases the session and the
// driver. Each step runs even if an earlier one failed; the first failure is
// returned.
func (g *Graph) Close(ctx context.Context) error {
	var first error
	if err := g.Commit(ctx); err != nil {
		log.Printf("graph close: commit pending transaction: %v", err)
		first = err
	}
	if g.session != nil {
		if err := g.session.Close(ctx); err != nil {
			log.Printf("graph close: session close: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	if g.driver != nil {
		if err := g.driver.Close(ctx); err != nil {
			log.Printf("graph close: driver close: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
