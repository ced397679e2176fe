package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"boltgraph/common"
	"boltgraph/internal/graph"
	bkafka "boltgraph/internal/kafka"
	"boltgraph/internal/models"
)

var (
	// Counters for applier throughput and failures exposed on /metrics.
	applierMutationsReceived uint64
	applierMutationsApplied  uint64
	applierMutationsFailed   uint64
	applierMutationsSkipped  uint64
)

// applierGraph is the slice of the graph facade the applier drives.
type applierGraph interface {
	AddVertex(ctx context.Context) (*graph.Vertex, error)
	GetVertex(ctx context.Context, id any) (*graph.Vertex, bool, error)
	RemoveVertex(ctx context.Context, v *graph.Vertex) error
	AddEdge(ctx context.Context, out, in *graph.Vertex, label string) (*graph.Edge, error)
	GetEdge(ctx context.Context, id any) (*graph.Edge, bool, error)
	RemoveEdge(ctx context.Context, e *graph.Edge) error
	CreateKeyIndex(ctx context.Context, key string, kind graph.ElementKind) error
	DropKeyIndex(ctx context.Context, key string, kind graph.ElementKind) error
	Resolve(ctx context.Context, outcome graph.Outcome) error
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Close() error
}

type redisStore struct {
	client *redis.Client
}

func newRedisStore(addr string) *redisStore {
	return &redisStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *redisStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

type applier struct {
	graph  applierGraph
	dedupe dedupeStore
	ttl    time.Duration
}

func main() {
	broker := common.GetEnv("KAFKA_BROKER", "localhost:9092")
	topic := common.GetEnv("KAFKA_MUTATIONS_TOPIC", "boltgraph.mutations")
	group := common.GetEnv("KAFKA_MUTATIONS_GROUP", "boltgraph-applier")
	redisAddr := common.GetEnv("REDIS_ADDR", "localhost:6379")
	metricsAddr := common.GetEnv("METRICS_ADDR", ":9091")
	dedupeTTL := common.ParseDuration(common.GetEnv("DEDUPE_TTL", "24h"), 24*time.Hour)
	maxBytes := common.ParseInt(common.GetEnv("KAFKA_MAX_BYTES", "1048576"), 1048576)

	neo4jURI := common.GetEnv("NEO4J_URI", "bolt://localhost:7687")
	neo4jUser := common.GetEnv("NEO4J_USER", "neo4j")
	neo4jPassword := common.GetEnv("NEO4J_PASSWORD", "neo4j")
	neo4jDatabase := common.GetEnv("NEO4J_DATABASE", "")
	certFile := common.GetEnv("NEO4J_CERT_FILE", "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := graph.Open(ctx, graph.Config{
		URL:      neo4jURI,
		Username: neo4jUser,
		Password: neo4jPassword,
		Database: neo4jDatabase,
		CertFile: certFile,
	})
	if err != nil {
		log.Fatalf("graph open error: %v", err)
	}
	defer func() {
		if err := g.Close(context.Background()); err != nil {
			log.Printf("graph close error: %v", err)
		}
	}()

	dedupe := newRedisStore(redisAddr)
	defer func() {
		if err := dedupe.Close(); err != nil {
			log.Printf("dedupe store close error: %v", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  group,
		MaxBytes: maxBytes,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("reader close error: %v", err)
		}
	}()

	if metricsAddr != "" {
		startMetricsServer(ctx, metricsAddr)
	}

	a := &applier{graph: g, dedupe: dedupe, ttl: dedupeTTL}
	consume(ctx, reader, a)
}

func startMetricsServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", handleMetrics)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown error: %v", err)
		}
	}()

	go func() {
		log.Printf("metrics listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	body := fmt.Sprintf(
		"boltgraph_applier_up 1\n"+
			"boltgraph_applier_mutations_received_total %d\n"+
			"boltgraph_applier_mutations_applied_total %d\n"+
			"boltgraph_applier_mutations_failed_total %d\n"+
			"boltgraph_applier_mutations_skipped_total %d\n",
		atomic.LoadUint64(&applierMutationsReceived),
		atomic.LoadUint64(&applierMutationsApplied),
		atomic.LoadUint64(&applierMutationsFailed),
		atomic.LoadUint64(&applierMutationsSkipped),
	)
	_, _ = w.Write([]byte(body))
}

func consume(ctx context.Context, reader bkafka.MessageReader, a *applier) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("fetch error: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		atomic.AddUint64(&applierMutationsReceived, 1)
		applied, err := a.applyMutation(ctx, msg.Value)
		switch {
		case err != nil:
			atomic.AddUint64(&applierMutationsFailed, 1)
			log.Printf("apply error: %v", err)
		case applied:
			atomic.AddUint64(&applierMutationsApplied, 1)
		default:
			atomic.AddUint64(&applierMutationsSkipped, 1)
		}
		if err != nil {
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("commit error: %v", err)
		}
	}
}

// applyMutation decodes and applies a single streamed mutation inside its
// own transaction. Replayed mutation IDs are skipped via the dedupe store.
// Returns (false, nil) when a mutation was deliberately skipped.
func (a *applier) applyMutation(ctx context.Context, payload []byte) (bool, error) {
	var m models.Mutation
	if err := json.Unmarshal(payload, &m); err != nil {
		return false, err
	}

	if m.ID != "" && a.dedupe != nil {
		fresh, err := a.dedupe.SetNX(ctx, "graph:mutation:"+m.ID, "1", a.ttl)
		if err != nil {
			return false, err
		}
		if !fresh {
			return false, nil
		}
	}

	applied, err := a.apply(ctx, m)
	if err != nil {
		if rbErr := a.graph.Resolve(ctx, graph.Failure); rbErr != nil {
			log.Printf("rollback error: %v", rbErr)
		}
		return false, err
	}
	if err := a.graph.Resolve(ctx, graph.Success); err != nil {
		return false, err
	}
	return applied, nil
}

func (a *applier) apply(ctx context.Context, m models.Mutation) (bool, error) {
	switch m.Op {
	case models.OpAddVertex:
		v, err := a.graph.AddVertex(ctx)
		if err != nil {
			return false, err
		}
		if m.Key != "" && m.Value != nil {
			if err := v.SetProperty(ctx, m.Key, m.Value); err != nil {
				return false, err
			}
		}
		return true, nil
	case models.OpRemoveVertex:
		v, found, err := a.graph.GetVertex(ctx, m.VertexID)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		return true, a.graph.RemoveVertex(ctx, v)
	case models.OpSetVertexProp:
		v, found, err := a.graph.GetVertex(ctx, m.VertexID)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		return true, v.SetProperty(ctx, m.Key, m.Value)
	case models.OpAddEdge:
		out, found, err := a.graph.GetVertex(ctx, m.OutID)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		in, found, err := a.graph.GetVertex(ctx, m.InID)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		_, err = a.graph.AddEdge(ctx, out, in, m.Label)
		return err == nil, err
	case models.OpRemoveEdge:
		e, found, err := a.graph.GetEdge(ctx, m.EdgeID)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		return true, a.graph.RemoveEdge(ctx, e)
	case models.OpSetEdgeProp:
		e, found, err := a.graph.GetEdge(ctx, m.EdgeID)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		return true, e.SetProperty(ctx, m.Key, m.Value)
	case models.OpCreateKeyIndex:
		return true, a.graph.CreateKeyIndex(ctx, m.Key, graph.VertexKind)
	case models.OpDropKeyIndex:
		return true, a.graph.DropKeyIndex(ctx, m.Key, graph.VertexKind)
	default:
		return false, fmt.Errorf("unknown mutation op %q", m.Op)
	}
}
