// Package config handles loading and validation of toolkit configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ctbkit/ctbkit/pkg/token/types"
)

// AppName names the toolkit in XDG paths and the environment prefix.
const AppName = "ctbkit"

// Config is the full toolkit configuration.
type Config struct {
	// RestRoot is the base URL of the host application's endpoints.
	RestRoot string `yaml:"rest_root" mapstructure:"rest_root"`

	// EventEndpoint receives analytics events.
	EventEndpoint string `yaml:"event_endpoint" mapstructure:"event_endpoint"`

	// CSRFToken is sent as the anti-forgery header on every request.
	CSRFToken string `yaml:"csrf_token" mapstructure:"csrf_token"`

	// TrustedOrigin is the partner host substring accepted by the bridge.
	TrustedOrigin string `yaml:"trusted_origin" mapstructure:"trusted_origin"`

	// Locale is appended to every frame URL. Defaults to en_US.
	Locale string `yaml:"locale" mapstructure:"locale"`

	// Brand and Page describe the embedding surface for analytics.
	Brand string `yaml:"brand" mapstructure:"brand"`
	Page  string `yaml:"page" mapstructure:"page"`

	// TokenTTL is the absolute lifetime of a persisted token.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`

	// Storage selects the token record backend.
	Storage types.StorageConfig `yaml:"storage" mapstructure:"storage"`

	Gate   GateConfig   `yaml:"gate" mapstructure:"gate"`
	Bridge BridgeConfig `yaml:"bridge" mapstructure:"bridge"`
}

// GateConfig holds the capability gate settings.
type GateConfig struct {
	// Expression is the boolean gate condition. Empty always passes.
	Expression string `yaml:"expression" mapstructure:"expression"`
}

// BridgeConfig holds the frame message relay settings.
type BridgeConfig struct {
	// Endpoint is the relay websocket URL.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// Loader reads configuration from file, environment, and flags.
// Priority: Flag > ENV > User Config > Default.
type Loader struct {
	v         *viper.Viper
	envPrefix string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	envPrefix := strings.ToUpper(strings.ReplaceAll(AppName, "-", "_"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Every key is registered so environment overrides reach Unmarshal.
	v.SetDefault("rest_root", "")
	v.SetDefault("event_endpoint", "")
	v.SetDefault("csrf_token", "")
	v.SetDefault("trusted_origin", "")
	v.SetDefault("locale", "en_US")
	v.SetDefault("brand", "")
	v.SetDefault("page", "")
	v.SetDefault("token_ttl", types.DefaultTTL)
	v.SetDefault("storage.type", string(types.StorageTypeFile))
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.keyring_service", "")
	v.SetDefault("storage.keyring_user", "")
	v.SetDefault("gate.expression", "")
	v.SetDefault("bridge.endpoint", "")

	return &Loader{v: v, envPrefix: envPrefix}
}

// SetConfigFile pins the loader to an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// BindFlags registers command-line flags as the highest-priority source.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	return l.v.BindPFlags(fs)
}

// Load reads and decodes the configuration. A missing config file is not an
// error; defaults, environment, and flags still apply.
func (l *Loader) Load() (*Config, error) {
	if l.v.ConfigFileUsed() == "" {
		l.v.AddConfigPath(l.userConfigDir())
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Locale == "" {
		cfg.Locale = "en_US"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = types.DefaultTTL
	}

	return &cfg, nil
}

// userConfigDir returns the XDG-compliant config directory, honoring the
// CTBKIT_CONFIG_DIR environment override.
func (l *Loader) userConfigDir() string {
	if custom := os.Getenv(l.envPrefix + "_CONFIG_DIR"); custom != "" {
		return custom
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// GetStateDir returns the XDG-compliant state directory used for token records.
func (l *Loader) GetStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// Validate checks the fields every networked flow needs.
func (c *Config) Validate() error {
	if c.RestRoot == "" {
		return fmt.Errorf("rest_root is required")
	}
	if c.EventEndpoint == "" {
		return fmt.Errorf("event_endpoint is required")
	}
	return nil
}

// String renders the effective configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<config marshal error: %v>", err)
	}
	return string(data)
}
