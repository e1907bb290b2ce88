package mock

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger-labs/yui-bridge-relayer/equivocation"
	"github.com/stretchr/testify/require"
)

func TestFinalityTargetSyncedHeaders(t *testing.T) {
	src := newTestChain(t, ChainConfig{ChainID: "grandpa-src", BlockTime: "6s", Authorities: []string{"alice", "bob"}}, 10)
	dst := newTestChain(t, ChainConfig{ChainID: "grandpa-dst", BlockTime: "12s", FinalityLag: 1}, 5)
	client, err := dst.EquivocationTarget(src.ChainID())
	require.NoError(t, err)
	ctx := context.Background()

	best, err := client.BestFinalizedHeaderNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(4), best)

	// block 3 of the target is produced with block 6 of the source
	hash, ok, err := client.BestSyncedHeaderHash(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, headerHash(src.ChainID(), 6), hash)

	infos, err := client.SyncedHeadersFinalityInfo(ctx, 3)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, uint64(6), infos[0].FinalityProof.TargetHeaderNumber())

	vc, err := client.FinalityVerificationContext(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, &equivocation.AuthoritySet{SetID: authoritySetID, Authorities: []string{"alice", "bob"}}, vc)
}

func TestFinalitySourceReportEquivocation(t *testing.T) {
	c := newTestChain(t, ChainConfig{ChainID: "report-src", Authorities: []string{"alice"}}, 10)
	client, err := c.EquivocationSource("report-dst")
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name       string
		offender   string
		wantStatus equivocation.ReportStatus
		wantReport bool
	}{
		{"authority", "alice", equivocation.ReportFinalized, true},
		{"stranger", "mallory", equivocation.ReportLost, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proof := &equivocation.VoteEquivocation{
				SetID:  authoritySetID,
				Round:  7,
				First:  vote(tt.offender, 7, headerHash(c.ChainID(), 7)),
				Second: vote(tt.offender, 7, forkHeaderHash(c.ChainID(), 7)),
			}
			status, err := client.ReportEquivocation(ctx, c.headerID(8).Hash, proof)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, <-status)
			require.Equal(t, tt.wantReport, strings.Contains(strings.Join(c.Reports(), ","), proof.ID()))
		})
	}
}

func TestEquivocationSourceWithoutAuthorities(t *testing.T) {
	c := newTestChain(t, ChainConfig{ChainID: "no-authorities"}, 1)
	_, err := c.EquivocationSource("peer")
	require.ErrorContains(t, err, "has no authorities")
}

func TestRunEquivocationDetection(t *testing.T) {
	src := newLiveChain(t, ChainConfig{
		ChainID:         "equivocating-src",
		BlockTime:       "20ms",
		Authorities:     []string{"alice", "bob"},
		EquivocateEvery: 1,
	})
	dst := newLiveChain(t, ChainConfig{ChainID: "equivocating-dst", BlockTime: "20ms", FinalityLag: 2})

	source, err := src.EquivocationSource(dst.ChainID())
	require.NoError(t, err)
	target, err := dst.EquivocationTarget(src.ChainID())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- equivocation.Run(ctx, equivocation.LoopParams{
			Name:           "equivocation",
			Tick:           10 * time.Millisecond,
			ReconnectDelay: 10 * time.Millisecond,
		}, source, target, equivocation.VoteEquivocationsFinder{})
	}()

	require.Eventually(t, func() bool {
		return len(src.Reports()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	// only the first authority signs the fork
	for _, id := range src.Reports() {
		require.True(t, strings.HasSuffix(id, "/alice"), id)
	}
}
