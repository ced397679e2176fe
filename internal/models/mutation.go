package models

import "time"

// MutationOp names a graph mutation carried over the stream.
type MutationOp string

const (
	OpAddVertex      MutationOp = "add_vertex"
	OpRemoveVertex   MutationOp = "remove_vertex"
	OpSetVertexProp  MutationOp = "set_vertex_property"
	OpAddEdge        MutationOp = "add_edge"
	OpRemoveEdge     MutationOp = "remove_edge"
	OpSetEdgeProp    MutationOp = "set_edge_property"
	OpCreateKeyIndex MutationOp = "create_key_index"
	OpDropKeyIndex   MutationOp = "drop_key_index"
)

// Mutation is one streamed graph change. ID is the producer-assigned
// idempotency key; replays with a seen ID are skipped by the applier.
type Mutation struct {
	ID        string     `json:"id"`
	Op        MutationOp `json:"op"`
	VertexID  int64      `json:"vertex_id,omitempty"`
	EdgeID    int64      `json:"edge_id,omitempty"`
	OutID     int64      `json:"out_id,omitempty"`
	InID      int64      `json:"in_id,omitempty"`
	Label     string     `json:"label,omitempty"`
	Key       string     `json:"key,omitempty"`
	Value     any        `json:"value,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
