package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// VertexSpec describes one vertex to create.
type VertexSpec struct {
	Properties map[string]any `json:"properties"`
}

// EdgeSpec links two vertices by their position in the Vertices list.
type EdgeSpec struct {
	Out   int    `json:"out"`
	In    int    `json:"in"`
	Label string `json:"label"`
}

// Config holds the graph to submit to the API.
type Config struct {
	Vertices []VertexSpec `json:"vertices"`
	Edges    []EdgeSpec   `json:"edges"`
}

func main() {
	configPath := flag.String("config", "graph.json", "Path to JSON config file with vertices and edges")
	apiBase := flag.String("api", "http://localhost:8080", "API base URL")
	flag.Parse()

	if err := run(*configPath, *apiBase, nil); err != nil {
		log.Fatal(err)
	}
}

// run loads config from configPath, creates all vertices concurrently, then
// creates the edges between them. If client is nil, a default HTTP client
// (30s timeout) is used.
func run(configPath, apiBase string, client *http.Client) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	baseURL, err := url.Parse(apiBase)
	if err != nil {
		return err
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	ids := make([]int64, len(cfg.Vertices))
	var wg sync.WaitGroup
	for i, spec := range cfg.Vertices {
		wg.Add(1)
		go func(idx int, s VertexSpec) {
			defer wg.Done()
			ids[idx] = submitVertex(client, baseURL, idx, s)
		}(i, spec)
	}
	wg.Wait()

	created := 0
	for _, spec := range cfg.Edges {
		if spec.Out < 0 || spec.Out >= len(ids) || spec.In < 0 || spec.In >= len(ids) {
			log.Printf("edge %+v references unknown vertex, skipping", spec)
			continue
		}
		if submitEdge(client, baseURL, ids[spec.Out], ids[spec.In], spec.Label) {
			created++
		}
	}

	log.Printf("submitted %d vertices and %d edges", len(cfg.Vertices), created)
	return nil
}

// loadConfig reads and parses the JSON config file.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Vertices) == 0 {
		return cfg, errNoVertices
	}
	return cfg, nil
}

var errNoVertices = fmt.Errorf("config has no vertices")

func submitVertex(client *http.Client, base *url.URL, idx int, spec VertexSpec) int64 {
	u := *base
	u.Path = "/vertices"

	body, err := json.Marshal(map[string]any{"properties": spec.Properties})
	if err != nil {
		log.Printf("[%d] marshal err=%v", idx, err)
		return -1
	}

	resp, err := client.Post(u.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[%d] vertex err=%v", idx, err)
		return -1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Printf("[%d] vertex status=%d", idx, resp.StatusCode)
		return -1
	}

	var payload struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("[%d] vertex decode err=%v", idx, err)
		return -1
	}
	log.Printf("[%d] vertex id=%d created", idx, payload.ID)
	return payload.ID
}

func submitEdge(client *http.Client, base *url.URL, out, in int64, label string) bool {
	if out < 0 || in < 0 {
		return false
	}
	u := *base
	u.Path = "/edges"

	body, err := json.Marshal(map[string]any{"out": out, "in": in, "label": label})
	if err != nil {
		log.Printf("edge marshal err=%v", err)
		return false
	}

	resp, err := client.Post(u.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("edge %d->%d err=%v", out, in, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Printf("edge %d->%d status=%d", out, in, resp.StatusCode)
		return false
	}
	log.Printf("edge %d->%d (%s) created", out, in, label)
	return true
}
