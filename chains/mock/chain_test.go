package mock

import (
	"context"
	"testing"
	"time"

	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/stretchr/testify/require"
)

var testGenesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestChain initializes a chain whose clock is stopped in the middle of the given block
func newTestChain(t *testing.T, config ChainConfig, best uint64) *Chain {
	t.Helper()
	c, err := NewChain(config)
	require.NoError(t, err)
	require.NoError(t, c.Init(t.TempDir(), time.Second, false))
	c.genesis = testGenesis
	now := c.timeOf(best).Add(c.blockTime / 2)
	c.now = func() time.Time { return now }
	return c
}

// newLiveChain initializes a chain producing blocks in real time
func newLiveChain(t *testing.T, config ChainConfig) *Chain {
	t.Helper()
	c, err := NewChain(config)
	require.NoError(t, err)
	require.NoError(t, c.Init(t.TempDir(), time.Second, false))
	return c
}

func TestChainNumbers(t *testing.T) {
	c := newTestChain(t, ChainConfig{ChainID: "numbers", BlockTime: "6s", FinalityLag: 2}, 10)

	require.Equal(t, uint64(10), c.bestNumber())
	require.Equal(t, uint64(8), c.bestFinalized())

	_, ok := c.numberAt(testGenesis.Add(-time.Second))
	require.False(t, ok)
	n, ok := c.finalizedAt(testGenesis.Add(time.Second))
	require.True(t, ok)
	require.Equal(t, uint64(0), n)
}

func TestChainCheckHeader(t *testing.T) {
	c := newTestChain(t, ChainConfig{ChainID: "check-header"}, 10)

	tests := []struct {
		name    string
		id      core.HeaderID
		wantErr bool
	}{
		{"best header", c.headerID(10), false},
		{"genesis", c.headerID(0), false},
		{"future header", c.headerID(11), true},
		{"fork header", core.NewHeaderID(5, forkHeaderHash(c.ChainID(), 5)), true},
		{"header of another chain", core.NewHeaderID(5, headerHash("another", 5)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.checkHeader(tt.id)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestChainConnectionErrors(t *testing.T) {
	c := newTestChain(t, ChainConfig{ChainID: "flaky", ConnectionErrorEvery: 3}, 1)

	for i := 1; i <= 6; i++ {
		err := c.request()
		if i%3 == 0 {
			require.True(t, core.IsConnectionError(err), "request %d", i)
		} else {
			require.NoError(t, err, "request %d", i)
		}
	}
	require.NoError(t, c.Reconnect(context.Background()))
}

func TestClientStateOfUnknownPeer(t *testing.T) {
	c := newTestChain(t, ChainConfig{ChainID: "lonely"}, 1)
	_, err := c.clientState("nobody")
	require.ErrorContains(t, err, "is not initialized")
}
