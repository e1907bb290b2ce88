package mock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChainConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ChainConfig
		wantErr string
	}{
		{
			name:   "minimal",
			config: ChainConfig{ChainID: "rialto"},
		},
		{
			name: "full",
			config: ChainConfig{
				ChainID:         "rialto",
				BlockTime:       "2s",
				GenesisTime:     "2024-01-01T00:00:00Z",
				FinalityLag:     2,
				Lanes:           []LaneConfig{{ID: "00000000", Peer: "millau", MessagesPerBlock: 1}},
				Authorities:     []string{"alice"},
				EquivocateEvery: 5,
			},
		},
		{
			name:    "empty chain id",
			config:  ChainConfig{},
			wantErr: "\"chain_id\" is empty",
		},
		{
			name:    "invalid block time",
			config:  ChainConfig{ChainID: "rialto", BlockTime: "fast"},
			wantErr: "\"block_time\" is invalid",
		},
		{
			name:    "zero block time",
			config:  ChainConfig{ChainID: "rialto", BlockTime: "0s"},
			wantErr: "\"block_time\" must be positive",
		},
		{
			name:    "invalid genesis time",
			config:  ChainConfig{ChainID: "rialto", GenesisTime: "yesterday"},
			wantErr: "\"genesis_time\" is invalid",
		},
		{
			name:    "lane without peer",
			config:  ChainConfig{ChainID: "rialto", Lanes: []LaneConfig{{ID: "00000000"}}},
			wantErr: "needs an id and a peer",
		},
		{
			name:    "lane to itself",
			config:  ChainConfig{ChainID: "rialto", Lanes: []LaneConfig{{ID: "00000000", Peer: "rialto"}}},
			wantErr: "must not point to the chain itself",
		},
		{
			name: "duplicated lane",
			config: ChainConfig{ChainID: "rialto", Lanes: []LaneConfig{
				{ID: "00000000", Peer: "millau"},
				{ID: "00000000", Peer: "millau"},
			}},
			wantErr: "is duplicated",
		},
		{
			name:    "equivocations without authorities",
			config:  ChainConfig{ChainID: "rialto", EquivocateEvery: 1},
			wantErr: "needs at least one authority",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestChainConfigBlockTime(t *testing.T) {
	require.Equal(t, defaultBlockTime, ChainConfig{}.blockTime())
	require.Equal(t, 2*time.Second, ChainConfig{BlockTime: "2s"}.blockTime())
}
