// Package file implements the default epic.Store: a single YAML file on
// disk, per spec.md §6 ("written to a host-chosen file, default .epic.yml").
package file

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/polka-codes/agentflow/epic"
)

// DefaultPath is used when Store.Path is empty.
const DefaultPath = ".epic.yml"

// Store persists an epic.Context to a YAML file.
type Store struct {
	// Path is the file to read/write. Empty means DefaultPath.
	Path string
}

// New returns a Store rooted at path. An empty path means DefaultPath.
func New(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) path() string {
	if s.Path == "" {
		return DefaultPath
	}
	return s.Path
}

// Load reads the context file. A missing file is not an error: it reports
// (zero Context, false, nil) so callers can distinguish "nothing saved yet"
// from a read failure.
func (s *Store) Load(ctx context.Context) (epic.Context, bool, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return epic.Context{}, false, nil
	}
	if err != nil {
		return epic.Context{}, false, err
	}
	var c epic.Context
	if err := yaml.Unmarshal(data, &c); err != nil {
		return epic.Context{}, false, err
	}
	return c, true, nil
}

// Save writes c to the context file, overwriting any prior content.
func (s *Store) Save(ctx context.Context, c epic.Context) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0o644)
}
