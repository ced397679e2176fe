package graph

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

// VertexWrapper lifts a raw node into a Vertex. The Graph's installed
// wrapper is applied to every node coming back from a statement, so a custom
// wrapper can decorate vertices (caching, projections) without touching the
// facade. Compose with NewVertex to keep the graph back-reference.
type VertexWrapper func(node neo4j.Node) *Vertex

// EdgeWrapper lifts a raw relationship into an Edge.
type EdgeWrapper func(rel neo4j.Relationship) *Edge

func defaultVertexWrapper(g *Graph) VertexWrapper {
	return func(node neo4j.Node) *Vertex {
		return NewVertex(node, g)
	}
}

func defaultEdgeWrapper(g *Graph) EdgeWrapper {
	return func(rel neo4j.Relationship) *Edge {
		return NewEdge(rel, g)
	}
}

// SetVertexWrapper replaces the vertex wrapping strategy.
func (g *Graph) SetVertexWrapper(w VertexWrapper) {
	g.vertexWrapper = w
}

// SetEdgeWrapper replaces the edge wrapping strategy.
func (g *Graph) SetEdgeWrapper(w EdgeWrapper) {
	g.edgeWrapper = w
}
