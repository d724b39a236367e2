package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/ctbkit/ctbkit/pkg/token/types"
)

// FileStore implements file-based token record storage.
type FileStore struct {
	path string
}

// NewFileStore creates a new file-based store.
func NewFileStore(config *types.StorageConfig, appName string) (*FileStore, error) {
	path := config.Path
	if path == "" {
		// Use XDG-compliant default path
		stateDir := filepath.Join(xdg.StateHome, appName)
		path = filepath.Join(stateDir, "ctb-token")
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	return &FileStore{
		path: path,
	}, nil
}

// Save writes the token record to the file with restricted permissions.
func (f *FileStore) Save(ctx context.Context, token *types.Token) error {
	if token == nil {
		return fmt.Errorf("token is nil")
	}

	if err := os.WriteFile(f.path, []byte(EncodeRecord(token)), 0600); err != nil {
		return fmt.Errorf("failed to write token record: %w", err)
	}

	return nil
}

// Load reads the token record from the file.
func (f *FileStore) Load(ctx context.Context) (*types.Token, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token record: %w", err)
	}

	return DecodeRecord(string(data))
}

// Delete removes the token record file.
func (f *FileStore) Delete(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token record: %w", err)
	}
	return nil
}

// GetPath returns the path to the token record file.
func (f *FileStore) GetPath() string {
	return f.path
}
