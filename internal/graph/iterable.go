package graph

import (
	"iter"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// VertexIterable exposes a materialized list of raw nodes as a restartable
// sequence of wrapped vertices. Wrapping happens lazily per traversal, so an
// abandoned iteration never pays for entities it did not visit.
type VertexIterable struct {
	nodes []neo4j.Node
	wrap  VertexWrapper
}

func newVertexIterable(nodes []neo4j.Node, wrap VertexWrapper) *VertexIterable {
	return &VertexIterable{nodes: nodes, wrap: wrap}
}

// Len returns the number of vertices in the result.
func (it *VertexIterable) Len() int {
	return len(it.nodes)
}

// All returns a restartable iterator over the wrapped vertices.
func (it *VertexIterable) All() iter.Seq[*Vertex] {
	return func(yield func(*Vertex) bool) {
		for _, node := range it.nodes {
			if !yield(it.wrap(node)) {
				return
			}
		}
	}
}

// Slice materializes the whole sequence.
func (it *VertexIterable) Slice() []*Vertex {
	vertices := make([]*Vertex, 0, len(it.nodes))
	for v := range it.All() {
		vertices = append(vertices, v)
	}
	return vertices
}

// EdgeIterable exposes a materialized list of raw relationships as a
// restartable sequence of wrapped edges.
type EdgeIterable struct {
	rels []neo4j.Relationship
	wrap EdgeWrapper
}

func newEdgeIterable(rels []neo4j.Relationship, wrap EdgeWrapper) *EdgeIterable {
	return &EdgeIterable{rels: rels, wrap: wrap}
}

// Len returns the number of edges in the result.
func (it *EdgeIterable) Len() int {
	return len(it.rels)
}

// All returns a restartable iterator over the wrapped edges.
func (it *EdgeIterable) All() iter.Seq[*Edge] {
	return func(yield func(*Edge) bool) {
		for _, rel := range it.rels {
			if !yield(it.wrap(rel)) {
				return
			}
		}
	}
}

// Slice materializes the whole sequence.
func (it *EdgeIterable) Slice() []*Edge {
	edges := make([]*Edge, 0, len(it.rels))
	for e := range it.All() {
		edges = append(edges, e)
	}
	return edges
}
