package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestVertexSetProperty(t *testing.T) {
	g, session, tx := newTestGraph(t)
	v := NewVertex(neo4j.Node{Id: 4, Props: map[string]any{}}, g)

	if err := v.SetProperty(context.Background(), "name", "alice"); err != nil {
		t.Fatalf("SetProperty returned error: %v", err)
	}
	if tx.runs[0].cypher != "match (n) where id(n) = $id set n.`name` = $value" {
		t.Fatalf("unexpected statement: %s", tx.runs[0].cypher)
	}
	if tx.runs[0].params["id"] != int64(4) || tx.runs[0].params["value"] != "alice" {
		t.Fatalf("unexpected params: %+v", tx.runs[0].params)
	}
	if value, ok := v.Property("name"); !ok || value != "alice" {
		t.Fatalf("expected local property updated, got %v", value)
	}
	if session.begins != 1 {
		t.Fatalf("expected property write inside the shared transaction, begins=%d", session.begins)
	}
}

func TestVertexRemoveProperty(t *testing.T) {
	g, _, tx := newTestGraph(t)
	v := NewVertex(neo4j.Node{Id: 4, Props: map[string]any{"name": "alice"}}, g)

	if err := v.RemoveProperty(context.Background(), "name"); err != nil {
		t.Fatalf("RemoveProperty returned error: %v", err)
	}
	if tx.runs[0].cypher != "match (n) where id(n) = $id remove n.`name`" {
		t.Fatalf("unexpected statement: %s", tx.runs[0].cypher)
	}
	if _, ok := v.Property("name"); ok {
		t.Fatal("expected local property removed")
	}
}

func TestEdgePropertyStatements(t *testing.T) {
	g, _, tx := newTestGraph(t)
	e := NewEdge(neo4j.Relationship{Id: 9, Props: map[string]any{}}, g)

	if err := e.SetProperty(context.Background(), "weight", int64(2)); err != nil {
		t.Fatalf("SetProperty returned error: %v", err)
	}
	if tx.runs[0].cypher != "match ()-[r]->() where id(r) = $id set r.`weight` = $value" {
		t.Fatalf("unexpected statement: %s", tx.runs[0].cypher)
	}
	if err := e.RemoveProperty(context.Background(), "weight"); err != nil {
		t.Fatalf("RemoveProperty returned error: %v", err)
	}
	if tx.runs[1].cypher != "match ()-[r]->() where id(r) = $id remove r.`weight`" {
		t.Fatalf("unexpected statement: %s", tx.runs[1].cypher)
	}
}

func TestSetPropertyUnsafeKey(t *testing.T) {
	g, session, tx := newTestGraph(t)
	v := NewVertex(neo4j.Node{Id: 4}, g)

	err := v.SetProperty(context.Background(), "na`me", "x")
	if !errors.Is(err, ErrUnsafeIdentifier) {
		t.Fatalf("expected ErrUnsafeIdentifier, got %v", err)
	}
	if session.begins != 0 || len(tx.runs) != 0 {
		t.Fatal("expected no backend contact on unsafe key")
	}
}

func TestPropertiesReturnsCopy(t *testing.T) {
	v := NewVertex(neo4j.Node{Id: 1, Props: map[string]any{"name": "alice"}}, nil)

	props := v.Properties()
	props["name"] = "mallory"
	if value, _ := v.Property("name"); value != "alice" {
		t.Fatalf("expected original property untouched, got %v", value)
	}
}
