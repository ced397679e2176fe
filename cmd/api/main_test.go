package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"boltgraph/internal/graph"
	"boltgraph/internal/models"
	"boltgraph/mocks"
)

type fakeResult struct {
	records []*db.Record
	pos     int
}

func (f *fakeResult) Next(_ context.Context) bool {
	if f.pos < len(f.records) {
		f.pos++
		return true
	}
	return false
}

func (f *fakeResult) Record() *db.Record { return f.records[f.pos-1] }
func (f *fakeResult) Err() error         { return nil }

func (f *fakeResult) Collect(_ context.Context) ([]*db.Record, error) {
	return f.records, nil
}

func (f *fakeResult) Single(_ context.Context) (*db.Record, error) {
	if len(f.records) != 1 {
		return nil, errors.New("result does not contain exactly one record")
	}
	return f.records[0], nil
}

type fakeTx struct {
	queries   []string
	results   []*fakeResult
	commits   int
	rollbacks int
}

func (f *fakeTx) Run(_ context.Context, cypher string, _ map[string]any) (graph.ResultStream, error) {
	f.queries = append(f.queries, cypher)
	if len(f.results) == 0 {
		return &fakeResult{}, nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result, nil
}

func (f *fakeTx) Commit(_ context.Context) error {
	f.commits++
	return nil
}

func (f *fakeTx) Rollback(_ context.Context) error {
	f.rollbacks++
	return nil
}

type fakeSession struct {
	tx *fakeTx
}

func (s *fakeSession) BeginTransaction(_ context.Context) (graph.TransactionRunner, error) {
	return s.tx, nil
}

func (s *fakeSession) Run(_ context.Context, cypher string, _ map[string]any) (graph.ResultStream, error) {
	return &fakeResult{}, nil
}

func (s *fakeSession) Close(_ context.Context) error { return nil }

type fakeDriver struct {
	session *fakeSession
}

func (d *fakeDriver) NewSession(_ context.Context, _ neo4j.SessionConfig) graph.SessionRunner {
	return d.session
}

func (d *fakeDriver) Close(_ context.Context) error { return nil }

func newTestServer(t *testing.T) (*server, *fakeTx, *mocks.MockMutationProducer) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	tx := &fakeTx{}
	driver := &fakeDriver{session: &fakeSession{tx: tx}}
	g, err := graph.New(context.Background(), driver, neo4j.SessionConfig{})
	if err != nil {
		t.Fatalf("graph.New returned error: %v", err)
	}

	prod := mocks.NewMockMutationProducer(ctrl)
	return newServer(g, prod), tx, prod
}

func nodeRecord(node neo4j.Node) *db.Record {
	return &db.Record{Keys: []string{"n"}, Values: []any{node}}
}

func TestCreateVertex(t *testing.T) {
	srv, tx, _ := newTestServer(t)
	tx.results = []*fakeResult{{records: []*db.Record{nodeRecord(neo4j.Node{Id: 7, Labels: []string{graph.VertexLabel}})}}}

	req := httptest.NewRequest(http.MethodPost, "/vertices", strings.NewReader(`{"properties":{"name":"alice"}}`))
	rec := httptest.NewRecorder()
	srv.handleVertices(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var payload models.VertexPayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.ID != 7 {
		t.Fatalf("unexpected vertex id: %d", payload.ID)
	}
	if tx.queries[0] != "create (n:`INDEXED`) return n" {
		t.Fatalf("unexpected statement: %s", tx.queries[0])
	}
	if !strings.Contains(tx.queries[1], "set n.`name`") {
		t.Fatalf("expected property write, got: %s", tx.queries[1])
	}
}

func TestGetVertexNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/vertices/42", nil)
	rec := httptest.NewRecorder()
	srv.handleVertexByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGetVertexInvalidID(t *testing.T) {
	srv, tx, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/vertices/not-a-number", nil)
	rec := httptest.NewRecorder()
	srv.handleVertexByID(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if len(tx.queries) != 0 {
		t.Fatal("expected no statements for an invalid id")
	}
}

func TestCreateEdgeMissingLabel(t *testing.T) {
	srv, tx, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/edges", strings.NewReader(`{"out":1,"in":2}`))
	rec := httptest.NewRecorder()
	srv.handleEdges(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if len(tx.queries) != 0 {
		t.Fatal("expected no statements for a missing label")
	}
}

func TestCreateEdge(t *testing.T) {
	srv, tx, _ := newTestServer(t)
	tx.results = []*fakeResult{
		{records: []*db.Record{nodeRecord(neo4j.Node{Id: 1})}},
		{records: []*db.Record{nodeRecord(neo4j.Node{Id: 2})}},
		{records: []*db.Record{{Keys: []string{"r"}, Values: []any{neo4j.Relationship{Id: 9, StartId: 1, EndId: 2, Type: "KNOWS"}}}}},
	}

	req := httptest.NewRequest(http.MethodPost, "/edges", strings.NewReader(`{"out":1,"in":2,"label":"KNOWS"}`))
	rec := httptest.NewRecorder()
	srv.handleEdges(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var payload models.EdgePayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.ID != 9 || payload.Label != "KNOWS" || payload.Out != 1 || payload.In != 2 {
		t.Fatalf("unexpected edge payload: %+v", payload)
	}
}

func TestEnqueueMutation(t *testing.T) {
	srv, _, prod := newTestServer(t)
	prod.EXPECT().WriteMutation(gomock.Any(), gomock.Any()).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/mutations", strings.NewReader(`{"op":"add_vertex"}`))
	rec := httptest.NewRecorder()
	srv.handleMutations(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rec.Code)
	}

	var payload models.Mutation
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.ID == "" {
		t.Fatal("expected mutation id to be assigned")
	}
}

func TestEnqueueMutationMissingOp(t *testing.T) {
	srv, _, prod := newTestServer(t)
	prod.EXPECT().WriteMutation(gomock.Any(), gomock.Any()).Times(0)

	req := httptest.NewRequest(http.MethodPost, "/mutations", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.handleMutations(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.handleMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "boltgraph_api_up 1") {
		t.Fatalf("unexpected metrics body: %s", rec.Body.String())
	}
}

func TestCommitClosesOpenTransaction(t *testing.T) {
	srv, tx, _ := newTestServer(t)
	tx.results = []*fakeResult{{records: []*db.Record{nodeRecord(neo4j.Node{Id: 1})}}}

	// Open a transaction outside the handlers.
	if _, err := srv.graph.AddVertex(context.Background()); err != nil {
		t.Fatalf("AddVertex returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/tx/commit", nil)
	rec := httptest.NewRecorder()
	srv.handleCommit(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if tx.commits != 1 {
		t.Fatalf("expected 1 commit, got %d", tx.commits)
	}
}

func TestRollbackWithoutTransactionIsNoOp(t *testing.T) {
	srv, tx, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/tx/rollback", nil)
	rec := httptest.NewRecorder()
	srv.handleRollback(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if tx.rollbacks != 0 {
		t.Fatalf("expected no rollbacks, got %d", tx.rollbacks)
	}
}
