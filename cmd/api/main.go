package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"boltgraph/common"
	"boltgraph/internal/graph"
	"boltgraph/internal/kafka"
	"boltgraph/internal/models"
	"boltgraph/internal/store"
)

var (
	// Counters exposed on /metrics.
	apiVerticesCreated   uint64
	apiVerticesDeleted   uint64
	apiEdgesCreated      uint64
	apiEdgesDeleted      uint64
	apiMutationsEnqueued uint64
	apiBackendErrors     uint64
)

type server struct {
	// The Graph carries no internal locking; all handlers serialize on mu.
	mu    sync.Mutex
	graph *graph.Graph
	prod  kafka.MutationProducer
}

func newServer(g *graph.Graph, prod kafka.MutationProducer) *server {
	return &server{graph: g, prod: prod}
}

func main() {
	neo4jURI := common.GetEnv("NEO4J_URI", "bolt://localhost:7687")
	neo4jUser := common.GetEnv("NEO4J_USER", "neo4j")
	neo4jPassword := common.GetEnv("NEO4J_PASSWORD", "neo4j")
	neo4jDatabase := common.GetEnv("NEO4J_DATABASE", "")
	certFile := common.GetEnv("NEO4J_CERT_FILE", "")
	redisAddr := common.GetEnv("REDIS_ADDR", "localhost:6379")
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topic := common.GetEnv("KAFKA_MUTATIONS_TOPIC", "boltgraph.mutations")
	addr := common.GetEnv("API_ADDR", ":8080")

	indexStore := store.NewRedisIndexStore(redisAddr, neo4jDatabase)
	defer func() {
		if err := indexStore.Close(); err != nil {
			log.Printf("failed to close index store: %v", err)
		}
	}()

	ctx := context.Background()
	g, err := graph.Open(ctx, graph.Config{
		URL:      neo4jURI,
		Username: neo4jUser,
		Password: neo4jPassword,
		Database: neo4jDatabase,
		CertFile: certFile,
	}, graph.WithIndexStore(indexStore))
	if err != nil {
		log.Fatalf("graph open error: %v", err)
	}
	defer func() {
		if err := g.Close(context.Background()); err != nil {
			log.Printf("graph close error: %v", err)
		}
	}()

	prod := kafka.NewProducer(broker, topic)
	defer func() {
		if err := prod.Close(); err != nil {
			log.Printf("failed to close producer: %v", err)
		}
	}()

	srv := newServer(g, prod)

	mux := http.NewServeMux()
	mux.HandleFunc("/vertices", srv.handleVertices)
	mux.HandleFunc("/vertices/", srv.handleVertexByID)
	mux.HandleFunc("/edges", srv.handleEdges)
	mux.HandleFunc("/edges/", srv.handleEdgeByID)
	mux.HandleFunc("/indexes", srv.handleIndexes)
	mux.HandleFunc("/indexes/", srv.handleIndexByKey)
	mux.HandleFunc("/mutations", srv.handleMutations)
	mux.HandleFunc("/tx/commit", srv.handleCommit)
	mux.HandleFunc("/tx/rollback", srv.handleRollback)
	mux.HandleFunc("/metrics", srv.handleMetrics)

	log.Printf("api listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

// handleVertices creates a vertex or lists vertices.
//
// POST /vertices         body: {"properties": {...}}  -> 201 VertexPayload
// GET  /vertices?key=&value=                          -> 200 [VertexPayload]
func (s *server) handleVertices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createVertex(w, r)
	case http.MethodGet:
		s.listVertices(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) createVertex(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Properties map[string]any `json:"properties"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()

	v, err := s.graph.AddVertex(ctx)
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	for key, value := range body.Properties {
		if err := v.SetProperty(ctx, key, value); err != nil {
			s.fail(w, ctx, err)
			return
		}
	}
	if err := s.graph.Commit(ctx); err != nil {
		s.fail(w, ctx, err)
		return
	}

	atomic.AddUint64(&apiVerticesCreated, 1)
	writeJSON(w, vertexPayload(v), http.StatusCreated)
}

func (s *server) listVertices(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	value := r.URL.Query().Get("value")

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()

	var (
		vertices *graph.VertexIterable
		err      error
	)
	if key != "" {
		vertices, err = s.graph.VerticesWithProperty(ctx, key, value)
	} else {
		vertices, err = s.graph.Vertices(ctx)
	}
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	if err := s.graph.Commit(ctx); err != nil {
		s.fail(w, ctx, err)
		return
	}

	payload := make([]models.VertexPayload, 0, vertices.Len())
	for v := range vertices.All() {
		payload = append(payload, vertexPayload(v))
	}
	writeJSON(w, payload, http.StatusOK)
}

// handleVertexByID fetches or deletes a single vertex.
//
// GET    /vertices/{id} -> 200 VertexPayload | 404
// DELETE /vertices/{id} -> 204 | 404
func (s *server) handleVertexByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r.URL.Path, "/vertices/")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()

	v, found, err := s.graph.GetVertex(ctx, id)
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	if !found {
		s.rollbackQuietly(ctx)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if err := s.graph.Commit(ctx); err != nil {
			s.fail(w, ctx, err)
			return
		}
		writeJSON(w, vertexPayload(v), http.StatusOK)
	case http.MethodDelete:
		if err := s.graph.RemoveVertex(ctx, v); err != nil {
			s.fail(w, ctx, err)
			return
		}
		if err := s.graph.Commit(ctx); err != nil {
			s.fail(w, ctx, err)
			return
		}
		atomic.AddUint64(&apiVerticesDeleted, 1)
		w.WriteHeader(http.StatusNoContent)
	default:
		s.rollbackQuietly(ctx)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleEdges creates an edge or lists edges.
//
// POST /edges        body: {"out": 1, "in": 2, "label": "KNOWS"} -> 201 EdgePayload
// GET  /edges?key=&value=                                        -> 200 [EdgePayload]
func (s *server) handleEdges(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createEdge(w, r)
	case http.MethodGet:
		s.listEdges(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) createEdge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Out        int64          `json:"out"`
		In         int64          `json:"in"`
		Label      string         `json:"label"`
		Properties map[string]any `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Label == "" {
		http.Error(w, "missing label", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()

	out, found, err := s.graph.GetVertex(ctx, body.Out)
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	if !found {
		s.rollbackQuietly(ctx)
		http.Error(w, "out vertex not found", http.StatusNotFound)
		return
	}
	in, found, err := s.graph.GetVertex(ctx, body.In)
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	if !found {
		s.rollbackQuietly(ctx)
		http.Error(w, "in vertex not found", http.StatusNotFound)
		return
	}

	e, err := s.graph.AddEdge(ctx, out, in, body.Label)
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	for key, value := range body.Properties {
		if err := e.SetProperty(ctx, key, value); err != nil {
			s.fail(w, ctx, err)
			return
		}
	}
	if err := s.graph.Commit(ctx); err != nil {
		s.fail(w, ctx, err)
		return
	}

	atomic.AddUint64(&apiEdgesCreated, 1)
	writeJSON(w, edgePayload(e), http.StatusCreated)
}

func (s *server) listEdges(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	value := r.URL.Query().Get("value")

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()

	var (
		edges *graph.EdgeIterable
		err   error
	)
	if key != "" {
		edges, err = s.graph.EdgesWithProperty(ctx, key, value)
	} else {
		edges, err = s.graph.Edges(ctx)
	}
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	if err := s.graph.Commit(ctx); err != nil {
		s.fail(w, ctx, err)
		return
	}

	payload := make([]models.EdgePayload, 0, edges.Len())
	for e := range edges.All() {
		payload = append(payload, edgePayload(e))
	}
	writeJSON(w, payload, http.StatusOK)
}

// handleEdgeByID fetches or deletes a single edge.
//
// GET    /edges/{id} -> 200 EdgePayload | 404
// DELETE /edges/{id} -> 204 | 404
func (s *server) handleEdgeByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r.URL.Path, "/edges/")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()

	e, found, err := s.graph.GetEdge(ctx, id)
	if err != nil {
		s.fail(w, ctx, err)
		return
	}
	if !found {
		s.rollbackQuietly(ctx)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if err := s.graph.Commit(ctx); err != nil {
			s.fail(w, ctx, err)
			return
		}
		writeJSON(w, edgePayload(e), http.StatusOK)
	case http.MethodDelete:
		if err := s.graph.RemoveEdge(ctx, e); err != nil {
			s.fail(w, ctx, err)
			return
		}
		if err := s.graph.Commit(ctx); err != nil {
			s.fail(w, ctx, err)
			return
		}
		atomic.AddUint64(&apiEdgesDeleted, 1)
		w.WriteHeader(http.StatusNoContent)
	default:
		s.rollbackQuietly(ctx)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleIndexes lists the indexed vertex keys.
//
// GET /indexes -> 200 IndexPayload
func (s *server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, models.IndexPayload{Keys: s.graph.IndexedKeys(graph.VertexKind)}, http.StatusOK)
}

// handleIndexByKey creates or drops a key index.
//
// POST   /indexes/{key} -> 201
// DELETE /indexes/{key} -> 204
func (s *server) handleIndexByKey(w http.ResponseWriter, r *http.Request) {
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/indexes/"), "/")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		if err := s.graph.CreateKeyIndex(ctx, key, graph.VertexKind); err != nil {
			s.fail(w, ctx, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		if err := s.graph.DropKeyIndex(ctx, key, graph.VertexKind); err != nil {
			s.fail(w, ctx, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMutations enqueues an asynchronous mutation for the applier.
//
// POST /mutations  body: models.Mutation -> 202 with assigned ID
func (s *server) handleMutations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var m models.Mutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if m.Op == "" {
		http.Error(w, "missing op", http.StatusBadRequest)
		return
	}
	if m.ID == "" {
		m.ID = newMutationID()
	}
	m.CreatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.prod.WriteMutation(ctx, m); err != nil {
		http.Error(w, "failed to enqueue mutation", http.StatusBadGateway)
		return
	}

	atomic.AddUint64(&apiMutationsEnqueued, 1)
	writeJSON(w, m, http.StatusAccepted)
}

// handleCommit commits any open transaction. Mutating handlers resolve their
// own transactions, so this mostly answers operational probes, but it also
// closes out a transaction left open by a failed handler shutdown.
//
// POST /tx/commit -> 204
func (s *server) handleCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.Commit(r.Context()); err != nil {
		atomic.AddUint64(&apiBackendErrors, 1)
		http.Error(w, "commit failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRollback rolls back any open transaction.
//
// POST /tx/rollback -> 204
func (s *server) handleRollback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.Rollback(r.Context()); err != nil {
		atomic.AddUint64(&apiBackendErrors, 1)
		http.Error(w, "rollback failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMetrics exposes a minimal Prometheus-compatible endpoint.
func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	body := "boltgraph_api_up 1\n" +
		"boltgraph_api_vertices_created_total " + strconv.FormatUint(atomic.LoadUint64(&apiVerticesCreated), 10) + "\n" +
		"boltgraph_api_vertices_deleted_total " + strconv.FormatUint(atomic.LoadUint64(&apiVerticesDeleted), 10) + "\n" +
		"boltgraph_api_edges_created_total " + strconv.FormatUint(atomic.LoadUint64(&apiEdgesCreated), 10) + "\n" +
		"boltgraph_api_edges_deleted_total " + strconv.FormatUint(atomic.LoadUint64(&apiEdgesDeleted), 10) + "\n" +
		"boltgraph_api_mutations_enqueued_total " + strconv.FormatUint(atomic.LoadUint64(&apiMutationsEnqueued), 10) + "\n" +
		"boltgraph_api_backend_errors_total " + strconv.FormatUint(atomic.LoadUint64(&apiBackendErrors), 10) + "\n"
	_, _ = w.Write([]byte(body))
}

// fail maps an operation failure to an HTTP status and rolls the open
// transaction back so the next request starts clean.
func (s *server) fail(w http.ResponseWriter, ctx context.Context, err error) {
	s.rollbackQuietly(ctx)
	switch {
	case errors.Is(err, graph.ErrNilID),
		errors.Is(err, graph.ErrEmptyLabel),
		errors.Is(err, graph.ErrUnsafeIdentifier),
		errors.Is(err, graph.ErrUnsupportedKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		atomic.AddUint64(&apiBackendErrors, 1)
		http.Error(w, "graph operation failed", http.StatusBadGateway)
	}
}

func (s *server) rollbackQuietly(ctx context.Context) {
	if err := s.graph.Rollback(ctx); err != nil {
		log.Printf("rollback error: %v", err)
	}
}

func pathID(w http.ResponseWriter, path, prefix string) (int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if raw == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func vertexPayload(v *graph.Vertex) models.VertexPayload {
	return models.VertexPayload{
		ID:         v.ID(),
		Labels:     v.Labels(),
		Properties: v.Properties(),
	}
}

func edgePayload(e *graph.Edge) models.EdgePayload {
	return models.EdgePayload{
		ID:         e.ID(),
		Out:        e.OutID(),
		In:         e.InID(),
		Label:      e.Label(),
		Properties: e.Properties(),
	}
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func newMutationID() string {
	return strings.ReplaceAll(time.Now().UTC().Format("20060102150405.000000000"), ".", "")
}
