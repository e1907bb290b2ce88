package otelcore

import (
	"context"
	"fmt"

	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/otelcore/semconv"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LaneSource traces the calls made by races to the sending end of a lane
type LaneSource struct {
	core.LaneSource
	laneID string
	tracer trace.Tracer
}

var _ core.LaneSource = (*LaneSource)(nil)

func NewLaneSource(source core.LaneSource, laneID string, tracer trace.Tracer) core.LaneSource {
	return &LaneSource{
		LaneSource: source,
		laneID:     laneID,
		tracer:     tracer,
	}
}

func UnwrapLaneSource(source core.LaneSource) (core.LaneSource, error) {
	s, ok := source.(*LaneSource)
	if !ok {
		return nil, fmt.Errorf("lane source type is not %T, but %T", &LaneSource{}, source)
	}
	return s.LaneSource, nil
}

func (s *LaneSource) LatestNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	ctx, span := s.tracer.Start(ctx, "SourceClient.LatestNonce",
		core.WithChainAttributes(s.ChainID()),
		withLaneAttributes(s.laneID),
		core.WithHeaderAttributes(at),
	)
	defer span.End()

	id, nonce, err := s.LaneSource.LatestNonce(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return id, nonce, err
}

func (s *LaneSource) GenerateProof(ctx context.Context, at core.HeaderID, nonces core.NonceRange) (core.HeaderID, core.NonceRange, core.Proof, error) {
	ctx, span := s.tracer.Start(ctx, "SourceClient.GenerateProof",
		core.WithChainAttributes(s.ChainID()),
		withLaneAttributes(s.laneID),
		core.WithHeaderAttributes(at),
		core.WithNonceRangeAttributes(nonces),
	)
	defer span.End()

	id, generated, proof, err := s.LaneSource.GenerateProof(ctx, at, nonces)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return id, generated, proof, err
}

func (s *LaneSource) ClientState(ctx context.Context) (core.ClientState, error) {
	ctx, span := s.tracer.Start(ctx, "SourceClient.ClientState",
		core.WithChainAttributes(s.ChainID()),
		withLaneAttributes(s.laneID),
	)
	defer span.End()

	st, err := s.LaneSource.ClientState(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return st, err
}

func (s *LaneSource) LatestConfirmedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	ctx, span := s.tracer.Start(ctx, "SourceClient.LatestConfirmedNonce",
		core.WithChainAttributes(s.ChainID()),
		withLaneAttributes(s.laneID),
		core.WithHeaderAttributes(at),
	)
	defer span.End()

	id, nonce, err := s.LaneSource.LatestConfirmedNonce(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return id, nonce, err
}

func (s *LaneSource) SubmitReceivingProof(ctx context.Context, generatedAt core.HeaderID, nonces core.NonceRange, proof core.Proof) (core.NonceRange, error) {
	ctx, span := s.tracer.Start(ctx, "SourceClient.SubmitReceivingProof",
		core.WithChainAttributes(s.ChainID()),
		withLaneAttributes(s.laneID),
		core.WithHeaderAttributes(generatedAt),
		core.WithNonceRangeAttributes(nonces),
	)
	defer span.End()

	confirmed, err := s.LaneSource.SubmitReceivingProof(ctx, generatedAt, nonces, proof)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return confirmed, err
}

// LaneTarget traces the calls made by races to the receiving end of a lane
type LaneTarget struct {
	core.LaneTarget
	laneID string
	tracer trace.Tracer
}

var _ core.LaneTarget = (*LaneTarget)(nil)

func NewLaneTarget(target core.LaneTarget, laneID string, tracer trace.Tracer) core.LaneTarget {
	return &LaneTarget{
		LaneTarget: target,
		laneID:     laneID,
		tracer:     tracer,
	}
}

func UnwrapLaneTarget(target core.LaneTarget) (core.LaneTarget, error) {
	t, ok := target.(*LaneTarget)
	if !ok {
		return nil, fmt.Errorf("lane target type is not %T, but %T", &LaneTarget{}, target)
	}
	return t.LaneTarget, nil
}

func (t *LaneTarget) LatestNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	ctx, span := t.tracer.Start(ctx, "TargetClient.LatestNonce",
		core.WithChainAttributes(t.ChainID()),
		withLaneAttributes(t.laneID),
		core.WithHeaderAttributes(at),
	)
	defer span.End()

	id, nonce, err := t.LaneTarget.LatestNonce(ctx, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return id, nonce, err
}

func (t *LaneTarget) SubmitProof(ctx context.Context, generatedAt core.HeaderID, nonces core.NonceRange, proof core.Proof) (core.NonceRange, error) {
	ctx, span := t.tracer.Start(ctx, "TargetClient.SubmitProof",
		core.WithChainAttributes(t.ChainID()),
		withLaneAttributes(t.laneID),
		core.WithHeaderAttributes(generatedAt),
		core.WithNonceRangeAttributes(nonces),
	)
	defer span.End()

	submitted, err := t.LaneTarget.SubmitProof(ctx, generatedAt, nonces, proof)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return submitted, err
}

func (t *LaneTarget) ProveReceiving(ctx context.Context, at core.HeaderID, nonces core.NonceRange) (core.HeaderID, core.NonceRange, core.Proof, error) {
	ctx, span := t.tracer.Start(ctx, "TargetClient.ProveReceiving",
		core.WithChainAttributes(t.ChainID()),
		withLaneAttributes(t.laneID),
		core.WithHeaderAttributes(at),
		core.WithNonceRangeAttributes(nonces),
	)
	defer span.End()

	id, proved, proof, err := t.LaneTarget.ProveReceiving(ctx, at, nonces)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return id, proved, proof, err
}

func (t *LaneTarget) ClientState(ctx context.Context) (core.ClientState, error) {
	ctx, span := t.tracer.Start(ctx, "TargetClient.ClientState",
		core.WithChainAttributes(t.ChainID()),
		withLaneAttributes(t.laneID),
	)
	defer span.End()

	st, err := t.LaneTarget.ClientState(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return st, err
}

func withLaneAttributes(laneID string) trace.SpanStartOption {
	return trace.WithAttributes(semconv.LaneIDKey.String(laneID))
}
