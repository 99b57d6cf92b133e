package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the ledger as a pretty-printed JSON array of id strings in
// a single file. A missing file is an empty ledger, not an error.
type FileStore struct {
	path string
}

const defaultFilePath = "seen.json"

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = defaultFilePath
	}
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (Set, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("decode ledger file %s: %w", f.path, err)
	}
	return NewSet(ids...), nil
}

func (f *FileStore) Save(_ context.Context, s Set) error {
	b, err := json.MarshalIndent(s.IDs(), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, b, 0o600); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
