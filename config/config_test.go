package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/hyperledger-labs/yui-bridge-relayer/chains/mock"
	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/stretchr/testify/require"
)

func init() {
	mock.RegisterChainConfig()
}

const testConfig = `{
  "global": {
    "timeout": "10s",
    "log_level": "INFO",
    "log_format": "json",
    "log_output": "stderr",
    "restart_delay": "1s",
    "restart_attempts": 3
  },
  "chains": [
    {
      "@type": "/relayer.chains.mock.config.ChainConfig",
      "chain_id": "rialto",
      "block_time": "1s",
      "lanes": [{"id": "00000000", "peer": "millau", "messages_per_block": 1}],
      "authorities": ["alice", "bob"]
    },
    {
      "@type": "/relayer.chains.mock.config.ChainConfig",
      "chain_id": "millau",
      "block_time": "2s",
      "finality_lag": 1
    }
  ],
  "relays": [
    {
      "name": "rialto-millau-messages",
      "type": "messages",
      "source": "rialto",
      "target": "millau",
      "lane": "00000000",
      "params": {"max_messages_in_batch": 8, "max_unconfirmed_nonces_at_target": 16, "poll_interval": "3s"}
    },
    {
      "name": "rialto-millau-headers",
      "type": "headers",
      "source": "rialto",
      "target": "millau",
      "params": {"tick": "2s", "max_headers_in_single_submit": 4}
    },
    {
      "name": "rialto-millau-equivocation",
      "type": "equivocation",
      "source": "rialto",
      "target": "millau",
      "params": {}
    }
  ]
}`

func loadConfig(t *testing.T, bz string) (*config.Config, error) {
	t.Helper()
	var c config.Config
	require.NoError(t, config.UnmarshalJSON([]byte(bz), &c))
	return &c, c.InitChains(t.TempDir(), false)
}

func TestInitChains(t *testing.T) {
	c, err := loadConfig(t, testConfig)
	require.NoError(t, err)

	require.Len(t, c.GetChains(), 2)
	chain, err := c.GetChain("millau")
	require.NoError(t, err)
	require.Equal(t, "millau", chain.ChainID())
	_, err = c.GetChain("unknown")
	require.Error(t, err)

	r, err := c.GetRelay("rialto-millau-messages")
	require.NoError(t, err)
	require.Equal(t, uint64(16), r.Params.MaxUnconfirmedNoncesAtTarget)

	r, err = c.GetRelay("rialto-millau-headers")
	require.NoError(t, err)
	require.Equal(t, 4, r.Params.MaxHeadersInSingleSubmit)
	require.Equal(t, "2s", r.Params.Tick)

	params, err := c.Global.ServiceParams()
	require.NoError(t, err)
	require.Equal(t, core.ServiceParams{RestartAttempts: 3, RestartDelay: time.Second}, params)
}

func TestInitChainsErrors(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		wantErr string
	}{
		{
			name:    "duplicated chain",
			replace: [2]string{`"chain_id": "millau"`, `"chain_id": "rialto"`},
			wantErr: "is duplicated",
		},
		{
			name: "unknown chain type",
			replace: [2]string{`"@type": "/relayer.chains.mock.config.ChainConfig",
      "chain_id": "millau"`, `"@type": "/unknown",
      "chain_id": "millau"`},
			wantErr: "unknown chain config type",
		},
		{
			name:    "invalid chain config",
			replace: [2]string{`"block_time": "2s"`, `"block_time": "soon"`},
			wantErr: "\"block_time\" is invalid",
		},
		{
			name: "relay to unknown chain",
			replace: [2]string{`"type": "headers",
      "source": "rialto",
      "target": "millau"`, `"type": "headers",
      "source": "rialto",
      "target": "westend"`},
			wantErr: "westend is not configured",
		},
		{
			name:    "messages relay without lane",
			replace: [2]string{`"lane": "00000000",`, ``},
			wantErr: "needs a lane",
		},
		{
			name:    "unknown relay type",
			replace: [2]string{`"type": "equivocation"`, `"type": "parachains"`},
			wantErr: "unknown relay type",
		},
		{
			name:    "duplicated relay",
			replace: [2]string{`"name": "rialto-millau-headers"`, `"name": "rialto-millau-messages"`},
			wantErr: "relay rialto-millau-messages is duplicated",
		},
		{
			name:    "invalid duration",
			replace: [2]string{`"poll_interval": "3s"`, `"poll_interval": "-3s"`},
			wantErr: "invalid poll_interval",
		},
		{
			name: "relay to itself",
			replace: [2]string{`"type": "equivocation",
      "source": "rialto",
      "target": "millau"`, `"type": "equivocation",
      "source": "rialto",
      "target": "rialto"`},
			wantErr: "are the same chain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bz := strings.Replace(testConfig, tt.replace[0], tt.replace[1], 1)
			require.NotEqual(t, testConfig, bz)
			_, err := loadConfig(t, bz)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestBuildRelays(t *testing.T) {
	c, err := loadConfig(t, testConfig)
	require.NoError(t, err)

	relays, err := c.BuildRelays()
	require.NoError(t, err)
	var names []string
	for _, r := range relays {
		names = append(names, r.Name())
	}
	require.Equal(t, []string{"rialto-millau-messages", "rialto-millau-headers", "rialto-millau-equivocation"}, names)

	relays, err = c.BuildRelays("rialto-millau-headers")
	require.NoError(t, err)
	require.Len(t, relays, 1)

	_, err = c.BuildRelays("unknown")
	require.ErrorContains(t, err, "relay 'unknown' not found")
}

func TestMessageLane(t *testing.T) {
	c, err := loadConfig(t, testConfig)
	require.NoError(t, err)

	source, target, err := c.MessageLane("rialto-millau-messages")
	require.NoError(t, err)
	require.Equal(t, "rialto", source.ChainID())
	require.Equal(t, "millau", target.ChainID())

	_, _, err = c.MessageLane("rialto-millau-headers")
	require.ErrorContains(t, err, "is not a messages relay")
}

func TestAddChain(t *testing.T) {
	c, err := loadConfig(t, testConfig)
	require.NoError(t, err)

	require.NoError(t, c.AddChain(mock.TypeURL, &mock.ChainConfig{ChainID: "westend"}, t.TempDir(), false))
	require.Len(t, c.Chains, 3)
	require.Len(t, c.GetChains(), 3)

	err = c.AddChain(mock.TypeURL, &mock.ChainConfig{ChainID: "westend"}, t.TempDir(), false)
	require.ErrorContains(t, err, "already exists")
}

func TestMarshalConfig(t *testing.T) {
	c, err := loadConfig(t, testConfig)
	require.NoError(t, err)

	bz, err := config.MarshalJSON(*c)
	require.NoError(t, err)

	var decoded config.Config
	require.NoError(t, config.UnmarshalJSON(bz, &decoded))
	require.NoError(t, decoded.InitChains(t.TempDir(), false))
	require.Equal(t, c.Relays, decoded.Relays)
	require.Equal(t, c.Global, decoded.Global)
	for i := range c.Chains {
		require.Equal(t, c.Chains[i].TypeURL(), decoded.Chains[i].TypeURL())
	}

	yml, err := config.MarshalYAML(c)
	require.NoError(t, err)
	require.Contains(t, string(yml), "@type")
	require.Contains(t, string(yml), mock.TypeURL)
	require.Contains(t, string(yml), "chain_id: millau")
}

func TestDefaultConfig(t *testing.T) {
	c := config.DefaultConfig("/tmp/config.json")
	require.Equal(t, "/tmp/config.json", c.ConfigPath)
	require.NoError(t, c.InitChains(t.TempDir(), false))

	params, err := c.Global.ServiceParams()
	require.NoError(t, err)
	require.Equal(t, core.ServiceParams{RestartAttempts: core.DefaultRestartAttempts, RestartDelay: core.DefaultRestartDelay}, params)
}
