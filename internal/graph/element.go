package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Vertex wraps a raw node together with the Graph that produced it, so
// property mutations route through the same session and transaction.
type Vertex struct {
	node  neo4j.Node
	graph *Graph
}

// NewVertex binds a raw node to its owning graph. It is the default vertex
// wrapping strategy; custom wrappers may delegate to it.
func NewVertex(node neo4j.Node, g *Graph) *Vertex {
	return &Vertex{node: node, graph: g}
}

// ID returns the backend-assigned identity.
func (v *Vertex) ID() int64 {
	return v.node.Id
}

// ElementID returns the backend's element identifier string.
func (v *Vertex) ElementID() string {
	return v.node.ElementId
}

// Labels returns the node's labels.
func (v *Vertex) Labels() []string {
	labels := make([]string, len(v.node.Labels))
	copy(labels, v.node.Labels)
	return labels
}

// Property returns the named property and whether it is present.
func (v *Vertex) Property(key string) (any, bool) {
	value, ok := v.node.Props[key]
	return value, ok
}

// Properties returns a copy of the node's property map.
func (v *Vertex) Properties() map[string]any {
	props := make(map[string]any, len(v.node.Props))
	for key, value := range v.node.Props {
		props[key] = value
	}
	return props
}

// SetProperty writes a property on the vertex through the graph's current
// transaction.
func (v *Vertex) SetProperty(ctx context.Context, key string, value any) error {
	prop, err := escapeIdentifier(key)
	if err != nil {
		return err
	}
	tx, err := v.graph.withTx(ctx)
	if err != nil {
		return err
	}
	statement := fmt.Sprintf("match (n) where id(n) = $id set n.%s = $value", prop)
	if _, err := tx.Run(ctx, statement, map[string]any{"id": v.ID(), "value": value}); err != nil {
		return err
	}
	if v.node.Props == nil {
		v.node.Props = make(map[string]any)
	}
	v.node.Props[key] = value
	return nil
}

// RemoveProperty deletes a property from the vertex through the graph's
// current transaction.
func (v *Vertex) RemoveProperty(ctx context.Context, key string) error {
	prop, err := escapeIdentifier(key)
	if err != nil {
		return err
	}
	tx, err := v.graph.withTx(ctx)
	if err != nil {
		return err
	}
	statement := fmt.Sprintf("match (n) where id(n) = $id remove n.%s", prop)
	if _, err := tx.Run(ctx, statement, map[string]any{"id": v.ID()}); err != nil {
		return err
	}
	delete(v.node.Props, key)
	return nil
}

// Edge wraps a raw relationship together with the Graph that produced it.
type Edge struct {
	rel   neo4j.Relationship
	graph *Graph
}

// NewEdge binds a raw relationship to its owning graph. It is the default
// edge wrapping strategy.
func NewEdge(rel neo4j.Relationship, g *Graph) *Edge {
	return &Edge{rel: rel, graph: g}
}

// ID returns the backend-assigned identity.
func (e *Edge) ID() int64 {
	return e.rel.Id
}

// ElementID returns the backend's element identifier string.
func (e *Edge) ElementID() string {
	return e.rel.ElementId
}

// Label returns the edge type.
func (e *Edge) Label() string {
	return e.rel.Type
}

// OutID returns the identity of the vertex the edge starts at.
func (e *Edge) OutID() int64 {
	return e.rel.StartId
}

// InID returns the identity of the vertex the edge points to.
func (e *Edge) InID() int64 {
	return e.rel.EndId
}

// Property returns the named property and whether it is present.
func (e *Edge) Property(key string) (any, bool) {
	value, ok := e.rel.Props[key]
	return value, ok
}

// Properties returns a copy of the relationship's property map.
func (e *Edge) Properties() map[string]any {
	props := make(map[string]any, len(e.rel.Props))
	for key, value := range e.rel.Props {
		props[key] = value
	}
	return props
}

// SetProperty writes a property on the edge through the graph's current
// transaction.
func (e *Edge) SetProperty(ctx context.Context, key string, value any) error {
	prop, err := escapeIdentifier(key)
	if err != nil {
		return err
	}
	tx, err := e.graph.withTx(ctx)
	if err != nil {
		return err
	}
	statement := fmt.Sprintf("match ()-[r]->() where id(r) = $id set r.%s = $value", prop)
	if _, err := tx.Run(ctx, statement, map[string]any{"id": e.ID(), "value": value}); err != nil {
		return err
	}
	if e.rel.Props == nil {
		e.rel.Props = make(map[string]any)
	}
	e.rel.Props[key] = value
	return nil
}

// RemoveProperty deletes a property from the edge through the graph's
// current transaction.
func (e *Edge) RemoveProperty(ctx context.Context, key string) error {
	prop, err := escapeIdentifier(key)
	if err != nil {
		return err
	}
	tx, err := e.graph.withTx(ctx)
	if err != nil {
		return err
	}
	statement := fmt.Sprintf("match ()-[r]->() where id(r) = $id remove r.%s", prop)
	if _, err := tx.Run(ctx, statement, map[string]any{"id": e.ID()}); err != nil {
		return err
	}
	delete(e.rel.Props, key)
	return nil
}
