package storage

import (
	"context"
	"fmt"

	"github.com/ctbkit/ctbkit/pkg/token/types"
	"github.com/zalando/go-keyring"
)

// KeyringStore implements OS keyring-based token record storage.
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore creates a new keyring-based store.
func NewKeyringStore(config *types.StorageConfig) (*KeyringStore, error) {
	service := config.KeyringService
	if service == "" {
		return nil, fmt.Errorf("keyring_service is required for keyring storage")
	}

	user := config.KeyringUser
	if user == "" {
		user = "default"
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Save stores the token record in the OS keyring.
func (k *KeyringStore) Save(ctx context.Context, token *types.Token) error {
	if token == nil {
		return fmt.Errorf("token is nil")
	}

	if err := keyring.Set(k.service, k.user, EncodeRecord(token)); err != nil {
		return fmt.Errorf("failed to store token record in keyring: %w", err)
	}

	return nil
}

// Load retrieves the token record from the OS keyring.
func (k *KeyringStore) Load(ctx context.Context) (*types.Token, error) {
	record, err := keyring.Get(k.service, k.user)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve token record from keyring: %w", err)
	}

	return DecodeRecord(record)
}

// Delete removes the token record from the OS keyring.
func (k *KeyringStore) Delete(ctx context.Context) error {
	if err := keyring.Delete(k.service, k.user); err != nil {
		if err == keyring.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete token record from keyring: %w", err)
	}
	return nil
}

// GetService returns the keyring service name.
func (k *KeyringStore) GetService() string {
	return k.service
}

// GetUser returns the keyring user name.
func (k *KeyringStore) GetUser() string {
	return k.user
}
