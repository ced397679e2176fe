package graph

import (
	"crypto/x509"
	"log"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds the connection settings for a Graph.
type Config struct {
	// URL is the Bolt endpoint, e.g. "bolt://localhost:7687".
	URL      string
	Username string
	Password string
	// Database selects the target database; empty uses the server default.
	Database string
	// CertFile optionally points at a PEM bundle used as trust material.
	// An unreadable file is logged and ignored, not a construction failure.
	CertFile string
}

// DefaultConfig returns the stock local-instance settings.
func DefaultConfig() Config {
	return Config{
		URL:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "neo4j",
	}
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = "bolt://localhost:7687"
	}
	if c.Username == "" {
		c.Username = "neo4j"
	}
	if c.Password == "" {
		c.Password = "neo4j"
	}
	return c
}

// trustMaterial loads the cert pool from c.CertFile. Failure to read or parse
// the file downgrades to a warning and returns nil.
func (c Config) trustMaterial() *x509.CertPool {
	if c.CertFile == "" {
		return nil
	}
	pem, err := os.ReadFile(c.CertFile)
	if err != nil {
		log.Printf("unable to read cert file %s: %v", c.CertFile, err)
		return nil
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		log.Printf("no certificates parsed from %s", c.CertFile)
		return nil
	}
	return pool
}

func (c Config) newDriver() (neo4j.DriverWithContext, error) {
	pool := c.trustMaterial()
	auth := neo4j.BasicAuth(c.Username, c.Password, "")
	return neo4j.NewDriverWithContext(c.URL, auth, func(config *neo4j.Config) {
		if pool != nil {
			config.RootCAs = pool
		}
	})
}
