package equivocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	mu          sync.Mutex
	best        uint64
	synced      map[uint64]common.Hash
	infos       map[uint64][]HeaderFinalityInfo
	set         *AuthoritySet
	failures    int
	reconnects  int
	checkedFrom uint64
}

func (t *fakeTarget) ChainID() string { return "target" }

func (t *fakeTarget) BestFinalizedHeaderNumber(context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failures > 0 {
		t.failures--
		return 0, core.NewConnectionError(errors.New("connection refused"))
	}
	return t.best, nil
}

func (t *fakeTarget) BestSyncedHeaderHash(_ context.Context, at uint64) (common.Hash, bool, error) {
	h, ok := t.synced[at]
	return h, ok, nil
}

func (t *fakeTarget) FinalityVerificationContext(context.Context, uint64) (VerificationContext, error) {
	return t.set, nil
}

func (t *fakeTarget) SyncedHeadersFinalityInfo(_ context.Context, at uint64) ([]HeaderFinalityInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkedFrom == 0 || at < t.checkedFrom {
		t.checkedFrom = at
	}
	return t.infos[at], nil
}

func (t *fakeTarget) Reconnect(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reconnects++
	return nil
}

func (t *fakeTarget) reconnected() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reconnects
}

func newFakeTarget(best uint64, synced *Justification) *fakeTarget {
	t := &fakeTarget{
		best:   best,
		synced: make(map[uint64]common.Hash),
		infos:  make(map[uint64][]HeaderFinalityInfo),
		set:    &AuthoritySet{SetID: 1, Authorities: []string{"alice", "bob"}},
	}
	for i := uint64(0); i <= best; i++ {
		t.synced[i] = hash(i)
	}
	t.infos[best] = []HeaderFinalityInfo{{FinalityProof: synced}}
	return t
}

func testLoopParams() LoopParams {
	return LoopParams{
		Name:           "test",
		Tick:           5 * time.Millisecond,
		ReconnectDelay: 5 * time.Millisecond,
	}
}

func runLoop(t *testing.T, source SourceClient, target TargetClient) (cancel func() error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testLoopParams(), source, target, VoteEquivocationsFinder{})
	}()
	return func() error {
		cancelCtx()
		select {
		case err := <-done:
			return err
		case <-time.After(time.Second):
			t.Fatal("loop did not stop")
			return nil
		}
	}
}

func TestRunReportsEquivocations(t *testing.T) {
	synced := justification(1, 7, 10, 10, "alice", "bob")
	source := newFakeSource(
		justification(1, 7, 10, 10, "alice"),
		justification(1, 7, 10, 99, "bob"),
	)
	target := newFakeTarget(10, synced)

	stop := runLoop(t, source, target)
	require.Eventually(t, func() bool {
		return len(source.reported()) > 0
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, stop())

	// the block is checked only once
	assert.Equal(t, []string{"1/7/bob"}, source.reported())
	assert.Equal(t, uint64(10), target.checkedFrom)
}

func TestRunIgnoresProofsOfSyncedHeaders(t *testing.T) {
	synced := justification(1, 7, 10, 10, "alice", "bob")
	source := newFakeSource(
		justification(1, 7, 10, 10, "alice", "bob"),
	)
	target := newFakeTarget(10, synced)

	stop := runLoop(t, source, target)
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, stop())
	assert.Empty(t, source.reported())
}

func TestRunReconnectsTargetAfterConnectionError(t *testing.T) {
	synced := justification(1, 7, 10, 10, "alice", "bob")
	source := newFakeSource(
		justification(1, 7, 10, 99, "alice"),
	)
	target := newFakeTarget(10, synced)
	target.failures = 1

	stop := runLoop(t, source, target)
	require.Eventually(t, func() bool {
		return len(source.reported()) > 0
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, stop())

	assert.Equal(t, 1, target.reconnected())
	assert.Equal(t, []string{"1/7/alice"}, source.reported())
}
