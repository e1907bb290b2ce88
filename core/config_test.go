package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

const testConfigType = "/relayer.core.test.ChainConfig"

type testChainConfig struct {
	ChainID string `json:"chain_id"`
	Nodes   int    `json:"nodes,omitempty"`
}

func (c *testChainConfig) Build() (Chain, error) {
	return &testChain{id: c.ChainID}, nil
}

func (c *testChainConfig) Validate() error {
	if c.ChainID == "" {
		return errors.New("chain_id is empty")
	}
	return nil
}

type testChain struct {
	id string
}

func (c *testChain) ChainID() string                              { return c.id }
func (c *testChain) Init(_ string, _ time.Duration, _ bool) error { return nil }
func (c *testChain) Reconnect(_ context.Context) error            { return nil }

func init() {
	RegisterChainConfig(testConfigType, func() ChainConfig { return &testChainConfig{} })
}

func TestRegisterChainConfigTwice(t *testing.T) {
	require.Panics(t, func() {
		RegisterChainConfig(testConfigType, func() ChainConfig { return &testChainConfig{} })
	})
	require.Contains(t, RegisteredChainConfigTypes(), testConfigType)
}

func TestAnyChainConfigJSON(t *testing.T) {
	cc, err := NewAnyChainConfig(testConfigType, &testChainConfig{ChainID: "rialto", Nodes: 3})
	require.NoError(t, err)

	bz, err := json.Marshal(cc)
	require.NoError(t, err)
	require.JSONEq(t, `{"@type":"/relayer.core.test.ChainConfig","chain_id":"rialto","nodes":3}`, string(bz))

	var decoded AnyChainConfig
	require.NoError(t, json.Unmarshal(bz, &decoded))
	require.Equal(t, testConfigType, decoded.TypeURL())

	_, err = decoded.GetChainConfig()
	require.Error(t, err, "the config is not initialized before Init")

	require.NoError(t, decoded.Init())
	config, err := decoded.GetChainConfig()
	require.NoError(t, err)
	require.Equal(t, &testChainConfig{ChainID: "rialto", Nodes: 3}, config)

	chain, err := decoded.Build()
	require.NoError(t, err)
	require.Equal(t, "rialto", chain.ChainID())
}

func TestAnyChainConfigErrors(t *testing.T) {
	tests := []struct {
		name          string
		json          string
		wantDecodeErr bool
		wantInitErr   string
	}{
		{
			name:          "missing type",
			json:          `{"chain_id":"rialto"}`,
			wantDecodeErr: true,
		},
		{
			name:          "non string type",
			json:          `{"@type":1,"chain_id":"rialto"}`,
			wantDecodeErr: true,
		},
		{
			name:        "unknown type",
			json:        `{"@type":"/unknown","chain_id":"rialto"}`,
			wantInitErr: "unknown chain config type",
		},
		{
			name:        "invalid config",
			json:        `{"@type":"/relayer.core.test.ChainConfig"}`,
			wantInitErr: "invalid chain config",
		},
		{
			name:        "mistyped field",
			json:        `{"@type":"/relayer.core.test.ChainConfig","chain_id":"rialto","nodes":"many"}`,
			wantInitErr: "failed to unmarshal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cc AnyChainConfig
			err := json.Unmarshal([]byte(tt.json), &cc)
			if tt.wantDecodeErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.ErrorContains(t, cc.Init(), tt.wantInitErr)
		})
	}
}
