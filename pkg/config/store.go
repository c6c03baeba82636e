package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/levenlabs/go-lflag"
)

// Store loads the raw configuration document from wherever it lives. Load
// returns the document bytes and a source name whose extension selects the
// parse format.
type Store interface {
	Load(ctx context.Context) (data []byte, name string, err error)
	Close() error
}

// Configured sets up the configuration store based on flags.
func Configured() Store {
	provider := lflag.String("config-store", "file", "Configuration store to use (available: file, firestore)")
	path := lflag.String("config-file", defaultConfigPath(), "Path to the usage configuration document")

	fs := configuredFirestore()

	var s struct{ Store }

	lflag.Do(func() {
		switch *provider {
		case "file":
			s.Store = &FileStore{Path: *path}
		case "firestore":
			if err := fs.validate(); err != nil {
				panic(fmt.Sprintf("firestore config store validation failed: %v", err))
			}
			s.Store = fs
		default:
			panic(fmt.Sprintf("unknown config store: %s", *provider))
		}
	})

	return &s
}

// defaultConfigPath honours the USAGE_CONFIG environment variable used by
// container deployments.
func defaultConfigPath() string {
	if path := os.Getenv("USAGE_CONFIG"); path != "" {
		return path
	}
	return "usage.json"
}

// FileStore reads the configuration document from the local filesystem.
type FileStore struct {
	Path string
}

// Load implements Store.
func (f *FileStore) Load(ctx context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config file %s: %w", f.Path, err)
	}
	return data, filepath.Base(f.Path), nil
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }
