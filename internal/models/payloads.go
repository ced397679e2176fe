package models

// VertexPayload is the wire representation of a vertex served by the API.
type VertexPayload struct {
	ID         int64          `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// EdgePayload is the wire representation of an edge served by the API.
type EdgePayload struct {
	ID         int64          `json:"id"`
	Out        int64          `json:"out"`
	In         int64          `json:"in"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// IndexPayload lists the indexed vertex property keys.
type IndexPayload struct {
	Keys []string `json:"keys"`
}
