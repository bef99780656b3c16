// Package config loads and validates the service configuration. Chains,
// contracts, and Gateway settings come from a YAML file; private keys and the
// Gateway API key come from the environment and never appear in the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Environment variable names for secrets.
const (
	EnvPrivateKey    = "PROMPTMINT_PRIVATE_KEY"
	EnvGatewayAPIKey = "PROMPTMINT_GATEWAY_API_KEY"
	EnvAdminKey      = "PROMPTMINT_ADMIN_KEY"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Gateway GatewayConfig `yaml:"gateway"`
	Chains  []ChainConfig `yaml:"chains"`
	MetaTx  MetaTxConfig  `yaml:"metaTx"`

	// Secrets, populated from the environment by Load.
	PrivateKey    string `yaml:"-"`
	GatewayAPIKey string `yaml:"-"`
	AdminKey      string `yaml:"-"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listenAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// GatewayConfig configures the authorization Gateway client.
type GatewayConfig struct {
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
}

// ChainConfig describes one supported chain and its deployed contracts.
// ForwarderContract is optional; a chain without one supports the direct and
// operator modes only.
type ChainConfig struct {
	Name              string `yaml:"name"`
	ChainID           uint64 `yaml:"chainId"`
	RPCURL            string `yaml:"rpcUrl"`
	TokenContract     string `yaml:"tokenContract"`
	ForwarderContract string `yaml:"forwarderContract"`
}

// MetaTxConfig tunes the meta-transaction flow.
type MetaTxConfig struct {
	Validity time.Duration `yaml:"validity"`
}

// Load reads the YAML file at path, applies defaults, pulls secrets from the
// environment, and validates the result. Any validation failure is fatal to
// startup; a service running with a half-valid config is worse than one that
// refuses to start.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.PrivateKey = os.Getenv(EnvPrivateKey)
	config.GatewayAPIKey = os.Getenv(EnvGatewayAPIKey)
	config.AdminKey = os.Getenv(EnvAdminKey)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = 10 * time.Second
	}
	if c.MetaTx.Validity <= 0 {
		c.MetaTx.Validity = time.Hour
	}
}

// Validate checks structural invariants: every chain needs an RPC endpoint
// and a valid token contract, chain IDs must be unique, and the secrets must
// be present.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("config: gateway.url is required")
	}
	if len(c.Chains) == 0 {
		return fmt.Errorf("config: at least one chain is required")
	}

	seen := make(map[uint64]string, len(c.Chains))
	for _, chain := range c.Chains {
		if chain.ChainID == 0 {
			return fmt.Errorf("config: chain %q has no chainId", chain.Name)
		}
		if prev, dup := seen[chain.ChainID]; dup {
			return fmt.Errorf("config: chains %q and %q share chainId %d", prev, chain.Name, chain.ChainID)
		}
		seen[chain.ChainID] = chain.Name

		if chain.RPCURL == "" {
			return fmt.Errorf("config: chain %q has no rpcUrl", chain.Name)
		}
		if !common.IsHexAddress(chain.TokenContract) {
			return fmt.Errorf("config: chain %q has invalid tokenContract %q", chain.Name, chain.TokenContract)
		}
		if chain.ForwarderContract != "" && !common.IsHexAddress(chain.ForwarderContract) {
			return fmt.Errorf("config: chain %q has invalid forwarderContract %q", chain.Name, chain.ForwarderContract)
		}
	}

	if c.PrivateKey == "" {
		return fmt.Errorf("config: %s must be set", EnvPrivateKey)
	}
	if c.GatewayAPIKey == "" {
		return fmt.Errorf("config: %s must be set", EnvGatewayAPIKey)
	}
	return nil
}
