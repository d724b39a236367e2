// Package storage provides persistence backends for the purchase token record.
//
// A stored record is a single string of the form "value|expiryEpochMs": the
// opaque token value followed by its absolute expiry in epoch milliseconds.
// The record format is an external contract shared with other consumers of
// the persisted token and must not change.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ctbkit/ctbkit/pkg/token/types"
)

// ErrNotFound is returned when no token record has been persisted.
var ErrNotFound = errors.New("token record not found")

// ErrMalformed is returned when a persisted record cannot be decoded.
// Callers treat a malformed record the same as an expired one.
var ErrMalformed = errors.New("token record malformed")

// Store is an interface for persisting the single token record.
type Store interface {
	// Save persists the token record, replacing any prior one.
	Save(ctx context.Context, token *types.Token) error
	// Load retrieves the persisted token record.
	Load(ctx context.Context) (*types.Token, error)
	// Delete removes the persisted token record.
	Delete(ctx context.Context) error
}

// Factory creates token stores based on configuration.
type Factory struct{}

// NewFactory creates a new store factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a token store instance based on the configuration.
func (f *Factory) Create(config *types.StorageConfig, appName string) (Store, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	switch config.Type {
	case types.StorageTypeFile:
		return NewFileStore(config, appName)
	case types.StorageTypeKeyring:
		return NewKeyringStore(config)
	case types.StorageTypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// EncodeRecord serializes a token into the persisted wire form.
func EncodeRecord(token *types.Token) string {
	return token.RawValue + "|" + strconv.FormatInt(token.ExpiresAt.UnixMilli(), 10)
}

// DecodeRecord parses a persisted record back into a token.
func DecodeRecord(record string) (*types.Token, error) {
	parts := strings.Split(record, "|")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected value|expiry, got %d parts", ErrMalformed, len(parts))
	}

	expiryMs, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad expiry: %v", ErrMalformed, err)
	}

	return &types.Token{
		RawValue:  parts[0],
		ExpiresAt: time.UnixMilli(expiryMs),
	}, nil
}
