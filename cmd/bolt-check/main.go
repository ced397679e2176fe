package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"boltgraph/common"
)

func main() {
	uri := common.GetEnv("NEO4J_URI", "bolt://localhost:7687")
	user := common.GetEnv("NEO4J_USER", "neo4j")
	password := common.GetEnv("NEO4J_PASSWORD", "neo4j")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build driver for %s: %v\n", uri, err)
		os.Exit(1)
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to %s: %v\n", uri, err)
		os.Exit(1)
	}

	fmt.Printf("connected to %s\n", uri)
}
