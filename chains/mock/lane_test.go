package mock

import (
	"context"
	"testing"
	"time"

	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/stretchr/testify/require"
)

const testLane = "00000000"

func newTestLane(t *testing.T, source, target string) (*OutboundLane, *InboundLane) {
	t.Helper()
	src := newTestChain(t, ChainConfig{
		ChainID:     source,
		FinalityLag: 2,
		Lanes:       []LaneConfig{{ID: testLane, Peer: target, MessagesPerBlock: 2}},
	}, 10)
	dst := newTestChain(t, ChainConfig{ChainID: target, FinalityLag: 2}, 10)

	outbound, err := src.OutboundLane(testLane, target)
	require.NoError(t, err)
	inbound, err := dst.InboundLane(testLane, source)
	require.NoError(t, err)
	return outbound.(*OutboundLane), inbound.(*InboundLane)
}

func TestOutboundLaneLatestNonce(t *testing.T) {
	outbound, _ := newTestLane(t, "nonce-src", "nonce-dst")
	ctx := context.Background()

	at := outbound.chain.headerID(8)
	got, nonce, err := outbound.LatestNonce(ctx, at)
	require.NoError(t, err)
	require.Equal(t, at, got)
	require.Equal(t, core.MessageNonce(16), nonce)

	_, _, err = outbound.LatestNonce(ctx, outbound.chain.headerID(11))
	require.Error(t, err)
}

func TestUnknownOutboundLane(t *testing.T) {
	outbound, _ := newTestLane(t, "unknown-src", "unknown-dst")
	_, err := outbound.chain.OutboundLane("ffffffff", "unknown-dst")
	require.ErrorContains(t, err, "has no lane")
}

func TestLaneDeliversProvedMessages(t *testing.T) {
	outbound, inbound := newTestLane(t, "deliver-src", "deliver-dst")
	ctx := context.Background()

	state, err := inbound.ClientState(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(8), state.BestPeer.Number)

	at, nonces, proof, err := outbound.GenerateProof(ctx, state.BestPeer, core.NewNonceRange(1, 100))
	require.NoError(t, err)
	require.Equal(t, state.BestPeer, at)
	require.Equal(t, core.NewNonceRange(1, 16), nonces)

	submitted, err := inbound.SubmitProof(ctx, at, nonces, proof)
	require.NoError(t, err)
	require.Equal(t, nonces, submitted)
	require.Equal(t, core.MessageNonce(16), inbound.Received())

	_, received, err := inbound.LatestNonce(ctx, inbound.chain.headerID(8))
	require.NoError(t, err)
	require.Equal(t, core.MessageNonce(16), received)

	// messages are received only once
	_, err = inbound.SubmitProof(ctx, at, nonces, proof)
	require.ErrorContains(t, err, "last received message is 16")
}

func TestLaneRejectsInvalidProofs(t *testing.T) {
	outbound, inbound := newTestLane(t, "reject-src", "reject-dst")
	ctx := context.Background()
	finalized := outbound.chain.headerID(8)

	at, nonces, proof, err := outbound.GenerateProof(ctx, finalized, core.NewNonceRange(1, 4))
	require.NoError(t, err)

	tampered := append(core.Proof(nil), proof...)
	tampered[len(tampered)-1] ^= 0xff

	// header 9 is produced but not finalized
	unfinalizedAt, unfinalizedNonces, unfinalizedProof, err := outbound.GenerateProof(ctx, outbound.chain.headerID(9), core.NewNonceRange(1, 4))
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      core.HeaderID
		nonces  core.NonceRange
		proof   core.Proof
		wantErr string
	}{
		{"garbage", at, nonces, core.Proof("garbage"), "failed to decode"},
		{"tampered digest", at, nonces, tampered, ""},
		{"other range", at, core.NewNonceRange(1, 3), proof, "does not match"},
		{"unfinalized header", unfinalizedAt, unfinalizedNonces, unfinalizedProof, "unknown header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inbound.SubmitProof(ctx, tt.at, tt.nonces, tt.proof)
			require.Error(t, err)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
	require.Equal(t, core.MessageNonce(0), inbound.Received())
}

func TestLaneConfirmsReceivedMessages(t *testing.T) {
	outbound, inbound := newTestLane(t, "confirm-src", "confirm-dst")
	ctx := context.Background()
	finalized := inbound.chain.headerID(8)

	_, _, _, err := inbound.ProveReceiving(ctx, finalized, core.NewNonceRange(1, 4))
	require.ErrorContains(t, err, "are not received")

	at, nonces, proof, err := outbound.GenerateProof(ctx, outbound.chain.headerID(8), core.NewNonceRange(1, 6))
	require.NoError(t, err)
	_, err = inbound.SubmitProof(ctx, at, nonces, proof)
	require.NoError(t, err)

	provedAt, proved, receivingProof, err := inbound.ProveReceiving(ctx, finalized, core.NewNonceRange(1, 100))
	require.NoError(t, err)
	require.Equal(t, core.NewNonceRange(1, 6), proved)

	tampered := append(core.Proof(nil), receivingProof...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = outbound.SubmitReceivingProof(ctx, provedAt, proved, tampered)
	require.Error(t, err)
	_, err = outbound.SubmitReceivingProof(ctx, provedAt, core.NewNonceRange(1, 5), receivingProof)
	require.ErrorContains(t, err, "does not match")

	confirmed, err := outbound.SubmitReceivingProof(ctx, provedAt, proved, receivingProof)
	require.NoError(t, err)
	require.Equal(t, proved, confirmed)
	_, latest, err := outbound.LatestConfirmedNonce(ctx, outbound.chain.headerID(8))
	require.NoError(t, err)
	require.Equal(t, core.MessageNonce(6), latest)

	_, err = outbound.SubmitReceivingProof(ctx, provedAt, proved, receivingProof)
	require.ErrorContains(t, err, "last confirmed message is 6")
}

func TestGenerateProofOfUnsentMessages(t *testing.T) {
	outbound, _ := newTestLane(t, "unsent-src", "unsent-dst")
	_, _, _, err := outbound.GenerateProof(context.Background(), outbound.chain.headerID(8), core.NewNonceRange(17, 20))
	require.ErrorContains(t, err, "are not sent")
}

func TestRunMessageLane(t *testing.T) {
	tests := []struct {
		name                 string
		connectionErrorEvery uint64
	}{
		{"reliable chains", 0},
		{"flaky target", 7},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "lane-src-" + string(rune('a'+i))
			target := "lane-dst-" + string(rune('a'+i))
			newLiveChain(t, ChainConfig{
				ChainID:     source,
				BlockTime:   "10ms",
				FinalityLag: 1,
				Lanes:       []LaneConfig{{ID: testLane, Peer: target, MessagesPerBlock: 1}},
			})
			dst := newLiveChain(t, ChainConfig{
				ChainID:              target,
				BlockTime:            "10ms",
				FinalityLag:          1,
				ConnectionErrorEvery: tt.connectionErrorEvery,
			})
			src, err := lookup(source)
			require.NoError(t, err)
			outbound, err := src.OutboundLane(testLane, target)
			require.NoError(t, err)
			inbound, err := dst.InboundLane(testLane, source)
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- core.RunMessageLane(ctx, core.LaneParams{
					Name:               tt.name,
					LaneID:             testLane,
					MaxMessagesInBatch: 3,
					PollInterval:       5 * time.Millisecond,
					ReconnectDelay:     5 * time.Millisecond,
				}, outbound, inbound)
			}()

			require.Eventually(t, func() bool {
				return inbound.(*InboundLane).Received() >= 10 && outbound.(*OutboundLane).Confirmed() >= 10
			}, 5*time.Second, 10*time.Millisecond)

			cancel()
			require.NoError(t, <-done)
		})
	}
}
