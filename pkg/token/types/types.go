// Package types defines common types used across the token packages.
package types

import (
	"time"
)

// DefaultTTL is the absolute lifetime a freshly persisted token is given.
const DefaultTTL = 25 * time.Minute

// Token represents a purchase-authorization token.
//
// RawValue is an opaque URL carrying the authorization as embedded query
// parameters (token, refreshToken). ExpiresAt is the absolute instant after
// which the token must not be used without a renewal.
type Token struct {
	// RawValue is the purchase URL with embedded credential parameters.
	RawValue string `json:"raw_value"`
	// ExpiresAt is when the token expires.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the token has expired.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !time.Now().Before(t.ExpiresAt)
}

// IsValid returns true if the token carries a value and has not expired.
func (t *Token) IsValid() bool {
	return t.RawValue != "" && !t.IsExpired()
}

// TTL returns the remaining lifetime of the token. Expired tokens
// return zero, never a negative duration.
func (t *Token) TTL() time.Duration {
	remaining := time.Until(t.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StorageConfig represents token record storage configuration.
type StorageConfig struct {
	// Type is the storage backend type.
	Type StorageType `yaml:"type" json:"type" mapstructure:"type"`
	// Path is the file path for file-based storage.
	Path string `yaml:"path,omitempty" json:"path,omitempty" mapstructure:"path"`
	// KeyringService is the service name for keyring storage.
	KeyringService string `yaml:"keyring_service,omitempty" json:"keyring_service,omitempty" mapstructure:"keyring_service"`
	// KeyringUser is the user name for keyring storage.
	KeyringUser string `yaml:"keyring_user,omitempty" json:"keyring_user,omitempty" mapstructure:"keyring_user"`
}

// StorageType represents the type of token record storage.
type StorageType string

const (
	// StorageTypeFile uses file-based storage.
	StorageTypeFile StorageType = "file"
	// StorageTypeKeyring uses OS keyring storage.
	StorageTypeKeyring StorageType = "keyring"
	// StorageTypeMemory uses in-memory storage.
	StorageTypeMemory StorageType = "memory"
)
