// Package ledger persists the set of listing ids that have already been
// notified. The ledger only ever grows; entries are never removed.
package ledger

import (
	"context"
	"fmt"
	"sort"
)

// Set is the in-memory form of the ledger.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id string) { s[id] = struct{}{} }

// IDs returns the members sorted, for deterministic persistence.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Store is the durable backend. Load returns an empty set when nothing has
// been persisted yet; Save replaces the stored set wholesale. The watcher
// reads and writes once per cycle, never incrementally.
type Store interface {
	Load(ctx context.Context) (Set, error)
	Save(ctx context.Context, s Set) error
	Close() error
}

// Config selects and parameterizes a ledger backend.
type Config struct {
	Type string `toml:"type" mapstructure:"type"` // "file" (default) or "sqlite"
	Path string `toml:"path" mapstructure:"path"`
}

// New builds a Store from config.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "", "file", "json":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported ledger type %q", cfg.Type)
	}
}
