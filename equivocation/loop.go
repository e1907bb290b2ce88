package equivocation

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
)

const DefaultTick = 6 * time.Second

type LoopParams struct {
	// Name is used in logs
	Name string
	// Tick is the interval of checking new blocks of the target
	Tick time.Duration
	// ReconnectDelay is the delay before a client is reconnected after a connection error
	ReconnectDelay    time.Duration
	MaxBufferedProofs int
}

func (p *LoopParams) setDefaults() {
	if p.Tick <= 0 {
		p.Tick = DefaultTick
	}
	if p.ReconnectDelay <= 0 {
		p.ReconnectDelay = core.ConnectionErrorDelay
	}
	if p.MaxBufferedProofs <= 0 {
		p.MaxBufferedProofs = DefaultMaxBufferedProofs
	}
}

type detectionLoop struct {
	params LoopParams
	source SourceClient
	target TargetClient
	finder Finder
	logger *log.RelayLogger

	stream   <-chan FinalityProof
	buffer   proofsBuffer
	reporter *reporter

	// [from, until] is the range of target blocks to check
	from      uint64
	fromKnown bool
	until     uint64
}

// Run checks finality proofs imported by the target against all finality proofs observed at the
// source and reports equivocations to the source until the context is cancelled.
func Run(ctx context.Context, params LoopParams, source SourceClient, target TargetClient, finder Finder) error {
	params.setDefaults()
	logger := log.GetLogger().WithRace(params.Name, source.ChainID(), target.ChainID()).WithModule("equivocation")
	l := &detectionLoop{
		params:   params,
		source:   source,
		target:   target,
		finder:   finder,
		logger:   logger,
		reporter: newReporter(logger),
	}
	return l.run(ctx)
}

func (l *detectionLoop) run(ctx context.Context) error {
	ticker := time.NewTicker(l.params.Tick)
	defer ticker.Stop()

	for {
		if failed := l.step(ctx); failed != 0 {
			if err := l.reconnect(ctx, failed); err != nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "equivocation detection is cancelled")
			return nil
		case <-ticker.C:
		}
	}
}

// step checks all new target blocks. It returns the client to reconnect, if any.
func (l *detectionLoop) step(ctx context.Context) core.FailedClient {
	if failed := l.ensureFinalityProofsStream(ctx); failed != 0 {
		return failed
	}
	l.reporter.processPendingReports(ctx)

	if err := l.updateBlocksRange(ctx); err != nil {
		return l.onError(ctx, core.FailedClientTarget, "failed to read best finalized block", err)
	}
	for l.from <= l.until {
		if ctx.Err() != nil {
			return 0
		}
		if failed, err := l.checkBlock(ctx, l.from); err != nil {
			return l.onError(ctx, failed, "failed to check block", err, "block", l.from)
		}
		l.from++
	}
	return 0
}

func (l *detectionLoop) ensureFinalityProofsStream(ctx context.Context) core.FailedClient {
	if l.stream == nil {
		stream, err := l.source.SubscribeFinalityProofs(ctx)
		if err != nil {
			return l.onError(ctx, core.FailedClientSource, "failed to subscribe to finality proofs", err)
		}
		l.stream = stream
	}
	if !l.buffer.fill(l.stream, l.params.MaxBufferedProofs) {
		l.logger.WarnContext(ctx, "finality proofs stream is closed")
		l.stream = nil
	}
	return 0
}

func (l *detectionLoop) updateBlocksRange(ctx context.Context) error {
	until, err := l.target.BestFinalizedHeaderNumber(ctx)
	if err != nil {
		return err
	}
	l.until = until
	if !l.fromKnown {
		// headers synced before the start are not checked
		l.from = until
		l.fromKnown = true
	}
	return nil
}

func (l *detectionLoop) checkBlock(ctx context.Context, number uint64) (core.FailedClient, error) {
	if number == 0 {
		return 0, nil
	}
	rc, err := readReportingContext(ctx, l.target, number-1)
	if err != nil {
		return core.FailedClientTarget, err
	}
	infos, err := l.target.SyncedHeadersFinalityInfo(ctx, number)
	if err != nil {
		return core.FailedClientTarget, errors.Wrapf(err, "failed to read synced headers finality info at %d", number)
	}

	for _, info := range infos {
		synced := info.FinalityProof
		equivocations, err := l.finder.FindEquivocations(rc.SyncedVerificationContext, synced, l.buffer.proofs)
		if err != nil {
			l.logger.ErrorContext(ctx, "failed to search for equivocations", err,
				"block", number,
				"header_number", synced.TargetHeaderNumber(),
			)
		}
		for _, e := range equivocations {
			if err := l.reporter.submitReport(ctx, l.source, rc.SyncedHeaderHash, e); err != nil {
				return core.FailedClientSource, errors.Wrapf(err, "failed to report equivocation %s", e.ID())
			}
		}
		rc.update(info)
		l.buffer.prune(synced.TargetHeaderNumber(), l.params.MaxBufferedProofs)
	}
	return 0, nil
}

func (l *detectionLoop) onError(ctx context.Context, failed core.FailedClient, msg string, err error, args ...any) core.FailedClient {
	if core.IsConnectionError(err) {
		l.logger.ErrorContext(ctx, msg, err, append(args, "client", failed.String())...)
		return failed
	}
	l.logger.WarnContext(ctx, msg, append(args, "client", failed.String(), "error", err)...)
	return 0
}

// reconnect reconnects the failed client. It returns an error only when the context is cancelled.
func (l *detectionLoop) reconnect(ctx context.Context, failed core.FailedClient) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.params.ReconnectDelay):
		}

		var err error
		if failed.Source() {
			l.stream = nil
			err = l.source.Reconnect(ctx)
		}
		if err == nil && failed.Target() {
			err = l.target.Reconnect(ctx)
		}
		if err == nil {
			l.logger.InfoContext(ctx, "reconnected", "client", failed.String())
			return nil
		}
		l.logger.ErrorContext(ctx, "failed to reconnect", err, "client", failed.String())
	}
}
