package core

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-bridge-relayer/internal/telemetry"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
)

const (
	// ConnectionErrorDelay is the delay before a client is reconnected after a connection error.
	ConnectionErrorDelay = 10 * time.Second
	// MaxBackoffInterval is the maximal delay between retries of a failed request.
	MaxBackoffInterval = 60 * time.Second
	// DefaultStallTimeout is used when RaceParams.StallTimeout is not set.
	DefaultStallTimeout = 5 * time.Minute

	raceProgressInterval = 10 * time.Second
)

var errStalled = errors.New("no progress within the stall timeout")

type RaceParams struct {
	// Name is used in logs and metrics
	Name string
	// StallTimeout is the maximal duration without progress before the race fails
	StallTimeout time.Duration
}

type sideState int

const (
	sideIdle sideState = iota
	sideAwaitingNonce
	sideAwaitingProof
	sideAwaitingSubmission
	sideBackingOff
)

func (s sideState) String() string {
	switch s {
	case sideIdle:
		return "idle"
	case sideAwaitingNonce:
		return "awaiting_nonce"
	case sideAwaitingProof:
		return "awaiting_proof"
	case sideAwaitingSubmission:
		return "awaiting_submission"
	case sideBackingOff:
		return "backing_off"
	default:
		return "unknown"
	}
}

// raceSide holds the state of one side of a race. At most one request is in flight per side.
type raceSide struct {
	failed        FailedClient
	state         sideState
	backoff       *backoff.ExponentialBackOff
	wake          *time.Timer
	nonceRequired bool
	results       chan raceResult
}

func newRaceSide(failed FailedClient) *raceSide {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = MaxBackoffInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return &raceSide{
		failed:  failed,
		state:   sideIdle,
		backoff: b,
		// buffered so that a request goroutine never blocks after the race has finished
		results: make(chan raceResult, 1),
	}
}

func (s *raceSide) wakeC() <-chan time.Time {
	if s.wake == nil {
		return nil
	}
	return s.wake.C
}

func (s *raceSide) backOff() time.Duration {
	delay := s.backoff.NextBackOff()
	if delay == backoff.Stop {
		delay = MaxBackoffInterval
	}
	s.state = sideBackingOff
	s.wake = time.NewTimer(delay)
	return delay
}

func (s *raceSide) stop() {
	if s.wake != nil {
		s.wake.Stop()
		s.wake = nil
	}
}

type raceOp int

const (
	opLatestNonce raceOp = iota
	opGenerateProof
	opSubmitProof
)

func (op raceOp) String() string {
	switch op {
	case opLatestNonce:
		return "latest nonce"
	case opGenerateProof:
		return "generate proof"
	case opSubmitProof:
		return "submit proof"
	default:
		return "unknown"
	}
}

type raceResult struct {
	op     raceOp
	at     HeaderID
	nonce  MessageNonce
	nonces NonceRange
	proof  Proof
	err    error
}

type race struct {
	params   RaceParams
	source   SourceClient
	target   TargetClient
	strategy RaceStrategy
	state    RaceState
	src      *raceSide
	tgt      *raceSide
	stall    *time.Timer
	logger   *log.RelayLogger

	lastProgressLog time.Time
}

// RunRace drives a message race between the source and the target until the context is
// cancelled or one of the clients fails.
//
// It returns nil on cancellation. Otherwise the returned error is a FailedClient telling which
// client has to be reconnected before the race is restarted.
func RunRace(
	ctx context.Context,
	params RaceParams,
	source SourceClient,
	sourceUpdates <-chan ClientState,
	target TargetClient,
	targetUpdates <-chan ClientState,
	strategy RaceStrategy,
) error {
	if params.StallTimeout <= 0 {
		params.StallTimeout = DefaultStallTimeout
	}
	r := &race{
		params:   params,
		source:   source,
		target:   target,
		strategy: strategy,
		src:      newRaceSide(FailedClientSource),
		tgt:      newRaceSide(FailedClientTarget),
		stall:    time.NewTimer(params.StallTimeout),
		logger:   GetRaceLogger(params.Name, source.ChainID(), target.ChainID()),
	}
	defer r.stall.Stop()
	defer r.src.stop()
	defer r.tgt.stop()
	return r.run(ctx, sourceUpdates, targetUpdates)
}

func (r *race) run(ctx context.Context, sourceUpdates, targetUpdates <-chan ClientState) error {
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "race is cancelled")
			return nil
		case st, ok := <-sourceUpdates:
			if !ok {
				r.logger.WarnContext(ctx, "source state stream is closed")
				sourceUpdates = nil
				break
			}
			if r.state.SourceState == nil || *r.state.SourceState != st {
				r.state.SourceState = &st
				r.src.nonceRequired = true
			}
		case st, ok := <-targetUpdates:
			if !ok {
				r.logger.WarnContext(ctx, "target state stream is closed")
				targetUpdates = nil
				break
			}
			if r.state.TargetState == nil || *r.state.TargetState != st {
				r.state.TargetState = &st
				r.tgt.nonceRequired = true
			}
		case res := <-r.src.results:
			if err := r.onSourceResult(ctx, res); err != nil {
				return err
			}
		case res := <-r.tgt.results:
			if err := r.onTargetResult(ctx, res); err != nil {
				return err
			}
		case <-r.src.wakeC():
			r.src.wake = nil
			r.src.state = sideIdle
		case <-r.tgt.wakeC():
			r.tgt.wake = nil
			r.tgt.state = sideIdle
		case <-r.stall.C:
			r.logger.ErrorContext(ctx, "race has stalled", errStalled,
				"stall_timeout", r.params.StallTimeout,
				"source_side", r.src.state.String(),
				"target_side", r.tgt.state.String(),
			)
			telemetry.AddRaceFailure(ctx, r.params.Name, FailedClientBoth.String())
			return FailedClientBoth
		}

		if r.state.IsIdle() && r.strategy.IsEmpty() {
			r.resetStall()
		}
		r.printProgress(ctx)

		if r.src.state == sideIdle {
			r.scheduleSource(ctx)
		}
		if r.tgt.state == sideIdle {
			r.scheduleTarget(ctx)
		}
	}
}

func (r *race) scheduleSource(ctx context.Context) {
	if _, known := r.strategy.BestAtTarget(); !known {
		return
	}
	if at, ok := r.state.BestPeerAtTarget(); ok {
		if nonces, ok := r.strategy.SelectNoncesToDeliver(&r.state); ok {
			r.logger.DebugContext(ctx, "asking source to prove nonces", "nonces", nonces.String(), "at", at.String())
			r.src.state = sideAwaitingProof
			go func() {
				generatedAt, proved, proof, err := r.source.GenerateProof(ctx, at, nonces)
				r.src.results <- raceResult{op: opGenerateProof, at: generatedAt, nonces: proved, proof: proof, err: err}
			}()
			return
		}
	}
	if r.src.nonceRequired && r.state.SourceState != nil {
		at := r.state.SourceState.BestSelf
		r.logger.DebugContext(ctx, "asking source about message nonces", "at", at.String())
		r.src.nonceRequired = false
		r.src.state = sideAwaitingNonce
		go func() {
			got, nonce, err := r.source.LatestNonce(ctx, at)
			r.src.results <- raceResult{op: opLatestNonce, at: got, nonce: nonce, err: err}
		}()
	}
}

func (r *race) scheduleTarget(ctx context.Context) {
	if batch := r.state.NoncesToSubmit; batch != nil {
		r.logger.DebugContext(ctx, "going to submit proof of messages", "nonces", batch.Nonces.String(), "generated_at", batch.GeneratedAt.String())
		r.tgt.state = sideAwaitingSubmission
		go func() {
			submitted, err := r.target.SubmitProof(ctx, batch.GeneratedAt, batch.Nonces, batch.Proof)
			r.tgt.results <- raceResult{op: opSubmitProof, nonces: submitted, err: err}
		}()
		return
	}
	if r.tgt.nonceRequired && r.state.TargetState != nil {
		at := r.state.TargetState.BestSelf
		r.logger.DebugContext(ctx, "asking target about message nonces", "at", at.String())
		r.tgt.nonceRequired = false
		r.tgt.state = sideAwaitingNonce
		go func() {
			got, nonce, err := r.target.LatestNonce(ctx, at)
			r.tgt.results <- raceResult{op: opLatestNonce, at: got, nonce: nonce, err: err}
		}()
	}
}

func (r *race) onSourceResult(ctx context.Context, res raceResult) error {
	r.src.state = sideIdle
	if res.err != nil {
		if res.op == opLatestNonce {
			r.src.nonceRequired = true
		}
		return r.onError(ctx, r.src, res)
	}
	r.src.backoff.Reset()

	switch res.op {
	case opLatestNonce:
		r.logger.DebugContext(ctx, "received nonce from source", "nonce", res.nonce, "at", res.at.String())
		r.strategy.SourceNonceUpdated(res.at, res.nonce)
	case opGenerateProof:
		if best, known := r.strategy.BestAtTarget(); known && res.nonces.End <= best {
			r.logger.DebugContext(ctx, "dropping obsolete proof", "nonces", res.nonces.String(), "best_at_target", best)
			return nil
		}
		r.logger.DebugContext(ctx, "received proof from source", "nonces", res.nonces.String(), "at", res.at.String())
		r.state.NoncesToSubmit = &NoncesToSubmit{
			GeneratedAt: res.at,
			Nonces:      res.nonces,
			Proof:       res.proof,
		}
		r.resetStall()
	}
	return nil
}

func (r *race) onTargetResult(ctx context.Context, res raceResult) error {
	r.tgt.state = sideIdle
	if res.err != nil {
		switch res.op {
		case opLatestNonce:
			r.tgt.nonceRequired = true
		case opSubmitProof:
			// the batch may be invalid now, so select it again from the fresh target nonce
			r.state.NoncesToSubmit = nil
			r.strategy.ResetBestTargetNonce()
			r.tgt.nonceRequired = true
		}
		return r.onError(ctx, r.tgt, res)
	}
	r.tgt.backoff.Reset()

	switch res.op {
	case opLatestNonce:
		r.logger.DebugContext(ctx, "received nonce from target", "nonce", res.nonce, "at", res.at.String())
		prev, known := r.strategy.BestAtTarget()
		r.strategy.TargetNonceUpdated(res.nonce, &r.state)
		if now, _ := r.strategy.BestAtTarget(); !known || now > prev {
			r.resetStall()
		}
	case opSubmitProof:
		r.logger.InfoContext(ctx, "submitted proof of messages", "nonces", res.nonces.String())
		r.state.NoncesToSubmit = nil
		submitted := res.nonces
		r.state.NoncesSubmitted = &submitted
		r.resetStall()
	}
	return nil
}

func (r *race) onError(ctx context.Context, side *raceSide, res raceResult) error {
	if IsConnectionError(res.err) {
		r.logger.ErrorContext(ctx, "connection error", res.err, "client", side.failed.String(), "op", res.op.String())
		telemetry.AddRaceFailure(ctx, r.params.Name, side.failed.String())
		return side.failed
	}
	delay := side.backOff()
	r.logger.ErrorContext(ctx, "request failed", res.err, "client", side.failed.String(), "op", res.op.String(), "retry_in", delay)
	return nil
}

func (r *race) resetStall() {
	if !r.stall.Stop() {
		select {
		case <-r.stall.C:
		default:
		}
	}
	r.stall.Reset(r.params.StallTimeout)
}

func (r *race) printProgress(ctx context.Context) {
	now := time.Now()
	if now.Sub(r.lastProgressLog) < raceProgressInterval {
		return
	}
	r.lastProgressLog = now

	bestAtSource, sourceKnown := r.strategy.BestAtSource()
	bestAtTarget, targetKnown := r.strategy.BestAtTarget()
	if sourceKnown {
		telemetry.SetBestSourceNonce(r.params.Name, bestAtSource)
	}
	if targetKnown {
		telemetry.SetBestTargetNonce(r.params.Name, bestAtTarget)
	}
	r.logger.InfoContext(ctx, "race progress",
		"synced", bestAtTarget,
		"synced_known", targetKnown,
		"best", bestAtSource,
		"best_known", sourceKnown,
	)
}
