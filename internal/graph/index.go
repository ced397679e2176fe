package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode"
)

// ElementKind selects vertices or edges in index operations.
type ElementKind int

const (
	VertexKind ElementKind = iota
	EdgeKind
)

func (k ElementKind) String() string {
	switch k {
	case VertexKind:
		return "vertex"
	case EdgeKind:
		return "edge"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

var (
	// ErrUnsupportedKind is returned by index operations on anything but
	// vertices.
	ErrUnsupportedKind = errors.New("unsupported element kind")
	// ErrUnsafeIdentifier is returned when a label or property key falls
	// outside the safe identifier charset.
	ErrUnsafeIdentifier = errors.New("unsafe identifier")
)

// escapeIdentifier backtick-quotes a structural identifier (label, edge type
// or property key). Labels and keys cannot be bound as parameters, so they
// are restricted to letters, digits and underscores before interpolation.
func escapeIdentifier(ident string) (string, error) {
	if ident == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrUnsafeIdentifier)
	}
	for _, r := range ident {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fmt.Errorf("%w: %q", ErrUnsafeIdentifier, ident)
		}
	}
	return "`" + ident + "`", nil
}

// CreateKeyIndex creates a property index for key under the reserved vertex
// label and records it in the registry. Only VertexKind is supported. Index
// DDL runs directly on the session: it is not subject to the transaction's
// rollback semantics.
func (g *Graph) CreateKeyIndex(ctx context.Context, key string, kind ElementKind) error {
	if kind != VertexKind {
		return fmt.Errorf("%w: cannot create index for %s", ErrUnsupportedKind, kind)
	}
	statement, err := indexStatement("create", key)
	if err != nil {
		return err
	}
	if _, err := g.session.Run(ctx, statement, nil); err != nil {
		return err
	}
	g.indexKeys[key] = struct{}{}
	if g.indexStore != nil {
		if err := g.indexStore.AddKey(ctx, key); err != nil {
			return fmt.Errorf("persist index key %q: %w", key, err)
		}
	}
	return nil
}

// DropKeyIndex drops the property index for key and removes it from the
// registry. Only VertexKind is supported.
func (g *Graph) DropKeyIndex(ctx context.Context, key string, kind ElementKind) error {
	if kind != VertexKind {
		return fmt.Errorf("%w: cannot drop index for %s", ErrUnsupportedKind, kind)
	}
	statement, err := indexStatement("drop", key)
	if err != nil {
		return err
	}
	if _, err := g.session.Run(ctx, statement, nil); err != nil {
		return err
	}
	delete(g.indexKeys, key)
	if g.indexStore != nil {
		if err := g.indexStore.RemoveKey(ctx, key); err != nil {
			return fmt.Errorf("unpersist index key %q: %w", key, err)
		}
	}
	return nil
}

// IndexedKeys returns a sorted snapshot of the indexed property keys for the
// given kind. Edges carry no key indices, so EdgeKind yields an empty slice.
// The returned slice is a copy; mutating it does not touch the registry.
func (g *Graph) IndexedKeys(kind ElementKind) []string {
	if kind != VertexKind {
		return nil
	}
	keys := make([]string, 0, len(g.indexKeys))
	for key := range g.indexKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func indexStatement(verb, key string) (string, error) {
	label, err := escapeIdentifier(VertexLabel)
	if err != nil {
		return "", err
	}
	prop, err := escapeIdentifier(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s index on :%s(%s)", verb, label, prop), nil
}
