package otelcore

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/otelcore/semconv"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fakeLane struct {
	err error
}

func (f *fakeLane) ChainID() string { return "rialto" }

func (f *fakeLane) LatestNonce(_ context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	return at, 7, f.err
}

func (f *fakeLane) GenerateProof(_ context.Context, at core.HeaderID, nonces core.NonceRange) (core.HeaderID, core.NonceRange, core.Proof, error) {
	return at, nonces, core.Proof("proof"), f.err
}

func (f *fakeLane) SubmitProof(_ context.Context, _ core.HeaderID, nonces core.NonceRange, _ core.Proof) (core.NonceRange, error) {
	return nonces, f.err
}

func (f *fakeLane) LatestConfirmedNonce(_ context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	return at, 5, f.err
}

func (f *fakeLane) SubmitReceivingProof(_ context.Context, _ core.HeaderID, nonces core.NonceRange, _ core.Proof) (core.NonceRange, error) {
	return nonces, f.err
}

func (f *fakeLane) ProveReceiving(_ context.Context, at core.HeaderID, nonces core.NonceRange) (core.HeaderID, core.NonceRange, core.Proof, error) {
	return at, nonces, core.Proof("received"), f.err
}

func (f *fakeLane) ClientState(_ context.Context) (core.ClientState, error) {
	return core.ClientState{}, f.err
}

func (f *fakeLane) Reconnect(_ context.Context) error { return nil }

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]string {
	m := make(map[attribute.Key]string)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value.Emit()
	}
	return m
}

func TestLaneSourceSpans(t *testing.T) {
	sr, tp := newRecorder()
	source := NewLaneSource(&fakeLane{}, "00000000", tp.Tracer("test"))
	ctx := context.Background()
	at := core.NewHeaderID(3, common.HexToHash("0x03"))

	_, nonce, err := source.LatestNonce(ctx, at)
	require.NoError(t, err)
	require.Equal(t, core.MessageNonce(7), nonce)
	_, _, _, err = source.GenerateProof(ctx, at, core.NewNonceRange(1, 4))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "SourceClient.LatestNonce", spans[0].Name())
	require.Equal(t, "SourceClient.GenerateProof", spans[1].Name())

	got := attrs(spans[1])
	require.Equal(t, "rialto", got[semconv.ChainIDKey])
	require.Equal(t, "00000000", got[semconv.LaneIDKey])
	require.Equal(t, "3", got[semconv.HeaderNumberKey])
	require.Equal(t, "1", got[semconv.NonceBeginKey])
	require.Equal(t, "4", got[semconv.NonceEndKey])
}

func TestLaneTargetSpanStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
	}{
		{"success", nil, codes.Unset},
		{"failure", errors.New("rejected"), codes.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr, tp := newRecorder()
			target := NewLaneTarget(&fakeLane{err: tt.err}, "00000000", tp.Tracer("test"))

			_, err := target.SubmitProof(context.Background(), core.HeaderID{}, core.NewNonceRange(1, 1), nil)
			require.Equal(t, tt.err, err)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			require.Equal(t, "TargetClient.SubmitProof", spans[0].Name())
			require.Equal(t, tt.wantStatus, spans[0].Status().Code)
		})
	}
}

func TestLaneReceivingSpans(t *testing.T) {
	sr, tp := newRecorder()
	lane := &fakeLane{}
	source := NewLaneSource(lane, "00000000", tp.Tracer("test"))
	target := NewLaneTarget(lane, "00000000", tp.Tracer("test"))
	ctx := context.Background()
	at := core.NewHeaderID(5, common.HexToHash("0x05"))

	_, nonces, _, err := target.ProveReceiving(ctx, at, core.NewNonceRange(1, 3))
	require.NoError(t, err)
	_, err = source.SubmitReceivingProof(ctx, at, nonces, nil)
	require.NoError(t, err)
	_, confirmed, err := source.LatestConfirmedNonce(ctx, at)
	require.NoError(t, err)
	require.Equal(t, core.MessageNonce(5), confirmed)

	var names []string
	for _, span := range sr.Ended() {
		names = append(names, span.Name())
	}
	require.Equal(t, []string{
		"TargetClient.ProveReceiving",
		"SourceClient.SubmitReceivingProof",
		"SourceClient.LatestConfirmedNonce",
	}, names)
}

func TestUnwrapLane(t *testing.T) {
	lane := &fakeLane{}
	_, tp := newRecorder()

	source, err := UnwrapLaneSource(NewLaneSource(lane, "00000000", tp.Tracer("test")))
	require.NoError(t, err)
	require.Same(t, lane, source)
	_, err = UnwrapLaneSource(lane)
	require.Error(t, err)

	target, err := UnwrapLaneTarget(NewLaneTarget(lane, "00000000", tp.Tracer("test")))
	require.NoError(t, err)
	require.Same(t, lane, target)
	_, err = UnwrapLaneTarget(lane)
	require.Error(t, err)
}
