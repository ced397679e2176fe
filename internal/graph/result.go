package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// Each statement in the operation table returns at most one entity per row,
// always in the first column.

func recordNode(record *db.Record) (neo4j.Node, error) {
	if record == nil || len(record.Values) == 0 {
		return neo4j.Node{}, fmt.Errorf("empty record in node result")
	}
	node, ok := record.Values[0].(neo4j.Node)
	if !ok {
		return neo4j.Node{}, fmt.Errorf("expected node, got %T", record.Values[0])
	}
	return node, nil
}

func recordRelationship(record *db.Record) (neo4j.Relationship, error) {
	if record == nil || len(record.Values) == 0 {
		return neo4j.Relationship{}, fmt.Errorf("empty record in relationship result")
	}
	rel, ok := record.Values[0].(neo4j.Relationship)
	if !ok {
		return neo4j.Relationship{}, fmt.Errorf("expected relationship, got %T", record.Values[0])
	}
	return rel, nil
}

func singleNode(ctx context.Context, result ResultStream) (neo4j.Node, error) {
	record, err := result.Single(ctx)
	if err != nil {
		return neo4j.Node{}, err
	}
	return recordNode(record)
}

func singleRelationship(ctx context.Context, result ResultStream) (neo4j.Relationship, error) {
	record, err := result.Single(ctx)
	if err != nil {
		return neo4j.Relationship{}, err
	}
	return recordRelationship(record)
}

func collectNodes(ctx context.Context, result ResultStream) ([]neo4j.Node, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make([]neo4j.Node, 0, len(records))
	for _, record := range records {
		node, err := recordNode(record)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func collectRelationships(ctx context.Context, result ResultStream) ([]neo4j.Relationship, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rels := make([]neo4j.Relationship, 0, len(records))
	for _, record := range records {
		rel, err := recordRelationship(record)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, nil
}
