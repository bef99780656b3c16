package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  listenAddr: ":9090"
gateway:
  url: https://gateway.example.com
  maxAttempts: 5
chains:
  - name: base-sepolia
    chainId: 84532
    rpcUrl: https://sepolia.base.org
    tokenContract: "0x1111111111111111111111111111111111111111"
    forwarderContract: "0x2222222222222222222222222222222222222222"
  - name: base
    chainId: 8453
    rpcUrl: https://mainnet.base.org
    tokenContract: "0x3333333333333333333333333333333333333333"
metaTx:
  validity: 30m
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv(EnvPrivateKey, "4c0883a69102937d6231471b5dbb6204fe512961708279f1d2b1e6f1b1c1b1c1")
	t.Setenv(EnvGatewayAPIKey, "test-api-key")
	t.Setenv(EnvAdminKey, "test-admin-key")
}

func TestLoad(t *testing.T) {
	setSecrets(t)
	config, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", config.Server.ListenAddr)
	assert.Equal(t, "https://gateway.example.com", config.Gateway.URL)
	assert.Equal(t, 5, config.Gateway.MaxAttempts)
	assert.Equal(t, 30*time.Minute, config.MetaTx.Validity)

	require.Len(t, config.Chains, 2)
	assert.Equal(t, uint64(84532), config.Chains[0].ChainID)
	assert.Empty(t, config.Chains[1].ForwarderContract)

	// Secrets come from the environment, never the file
	assert.Equal(t, "test-api-key", config.GatewayAPIKey)
	assert.Equal(t, "test-admin-key", config.AdminKey)
	assert.NotEmpty(t, config.PrivateKey)
}

func TestLoadDefaults(t *testing.T) {
	setSecrets(t)
	config, err := Load(writeConfig(t, `
gateway:
  url: https://gateway.example.com
chains:
  - name: base-sepolia
    chainId: 84532
    rpcUrl: https://sepolia.base.org
    tokenContract: "0x1111111111111111111111111111111111111111"
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.ListenAddr)
	assert.Equal(t, 10*time.Second, config.Gateway.Timeout)
	assert.Equal(t, time.Hour, config.MetaTx.Validity)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing gateway url", func(c *Config) { c.Gateway.URL = "" }, "gateway.url"},
		{"no chains", func(c *Config) { c.Chains = nil }, "at least one chain"},
		{"zero chain id", func(c *Config) { c.Chains[0].ChainID = 0 }, "no chainId"},
		{"duplicate chain id", func(c *Config) { c.Chains[1].ChainID = c.Chains[0].ChainID }, "share chainId"},
		{"missing rpc url", func(c *Config) { c.Chains[0].RPCURL = "" }, "no rpcUrl"},
		{"bad token contract", func(c *Config) { c.Chains[0].TokenContract = "nope" }, "invalid tokenContract"},
		{"bad forwarder contract", func(c *Config) { c.Chains[0].ForwarderContract = "nope" }, "invalid forwarderContract"},
		{"missing private key", func(c *Config) { c.PrivateKey = "" }, EnvPrivateKey},
		{"missing api key", func(c *Config) { c.GatewayAPIKey = "" }, EnvGatewayAPIKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSecrets(t)
			config, err := Load(writeConfig(t, validYAML))
			require.NoError(t, err)

			tt.mutate(config)
			err = config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
