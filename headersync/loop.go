package headersync

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/internal/telemetry"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
)

const (
	// DefaultStallTimeout is the time without updates of the best header at the target after
	// which submitted headers are considered rejected and the sync is restarted.
	DefaultStallTimeout = 5 * time.Minute
	// DefaultBackupStallTimeout is the time without updates of the best header at the target
	// after which a relayer in backup mode starts submitting headers.
	DefaultBackupStallTimeout = 10 * time.Minute
	DefaultTick               = 5 * time.Second

	progressInterval = 10 * time.Second
)

var errGenesisOrphan = errors.New("genesis header is considered orphan by the target")

// SourceClient reads headers from the source chain
type SourceClient interface {
	ChainID() string
	// BestBlockNumber returns the number of the best block of the source chain
	BestBlockNumber(ctx context.Context) (uint64, error)
	HeaderByHash(ctx context.Context, hash common.Hash) (*Header, error)
	// HeaderByNumber returns the canonical header with the given number
	HeaderByNumber(ctx context.Context, number uint64) (*Header, error)
	// Receipts returns the transaction receipts of the block
	Receipts(ctx context.Context, id core.HeaderID) ([]*Receipt, error)
	Reconnect(ctx context.Context) error
}

// TargetClient imports headers of the source chain into the target chain
type TargetClient interface {
	ChainID() string
	// BestHeaderID returns the best source header known to the target
	BestHeaderID(ctx context.Context) (core.HeaderID, error)
	// IsKnownHeader reports whether the source header is known to the target
	IsKnownHeader(ctx context.Context, id core.HeaderID) (bool, error)
	// RequiresReceipts reports whether the header has to be submitted with its receipts
	RequiresReceipts(ctx context.Context, header *QueuedHeader) (bool, error)
	// SubmitHeaders submits headers in order. The returned IDs are the headers that have been
	// submitted before an error occurred.
	SubmitHeaders(ctx context.Context, headers []*QueuedHeader) ([]core.HeaderID, error)
	Reconnect(ctx context.Context) error
}

type LoopParams struct {
	// Name is used in logs
	Name               string
	SourceTick         time.Duration
	TargetTick         time.Duration
	Sync               Params
	StallTimeout       time.Duration
	BackupStallTimeout time.Duration
	// ReconnectDelay is the delay before a client is reconnected after a connection error
	ReconnectDelay time.Duration
}

func (p *LoopParams) setDefaults() {
	if p.SourceTick <= 0 {
		p.SourceTick = DefaultTick
	}
	if p.TargetTick <= 0 {
		p.TargetTick = DefaultTick
	}
	if p.StallTimeout <= 0 {
		p.StallTimeout = DefaultStallTimeout
	}
	if p.BackupStallTimeout <= 0 {
		p.BackupStallTimeout = DefaultBackupStallTimeout
	}
	if p.ReconnectDelay <= 0 {
		p.ReconnectDelay = core.ConnectionErrorDelay
	}
	p.Sync = p.Sync.WithDefaults()
}

type syncOp int

const (
	opBestNumber syncOp = iota
	opNewHeader
	opOrphanHeader
	opReceipts
	opBestHeader
	opIsKnown
	opRequiresReceipts
	opSubmit
	opReconnect
)

func (op syncOp) String() string {
	switch op {
	case opBestNumber:
		return "best block number"
	case opNewHeader:
		return "new header"
	case opOrphanHeader:
		return "orphan header"
	case opReceipts:
		return "receipts"
	case opBestHeader:
		return "best header"
	case opIsKnown:
		return "header existence"
	case opRequiresReceipts:
		return "receipts requirement"
	case opSubmit:
		return "submit headers"
	case opReconnect:
		return "reconnect"
	default:
		return "unknown"
	}
}

type syncResult struct {
	op        syncOp
	id        core.HeaderID
	number    uint64
	header    *Header
	receipts  []*Receipt
	flag      bool
	submitted []core.HeaderID
	err       error
}

// syncSide is one client of the loop. At most one request is in flight per side.
type syncSide struct {
	name      string
	busy      bool
	reconnect bool
	backoff   *backoff.ExponentialBackOff
	wake      *time.Timer
	results   chan syncResult
}

func newSyncSide(name string) *syncSide {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = core.MaxBackoffInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return &syncSide{
		name:    name,
		backoff: b,
		results: make(chan syncResult, 1),
	}
}

func (s *syncSide) online() bool {
	return !s.busy && s.wake == nil
}

func (s *syncSide) wakeC() <-chan time.Time {
	if s.wake == nil {
		return nil
	}
	return s.wake.C
}

func (s *syncSide) goOffline(d time.Duration) {
	s.wake = time.NewTimer(d)
}

func (s *syncSide) stop() {
	if s.wake != nil {
		s.wake.Stop()
		s.wake = nil
	}
}

type syncLoop struct {
	params LoopParams
	source SourceClient
	target TargetClient
	sync   *HeadersSync
	src    *syncSide
	tgt    *syncSide
	logger *log.RelayLogger

	sourceBestNumberRequired bool
	targetBestHeaderRequired bool
	// stallSince is set while our submitted headers wait to be synced
	stallSince     *time.Time
	lastUpdateTime time.Time

	lastProgressLog time.Time
}

// Run synchronizes headers of the source chain to the target chain until the context is cancelled.
//
// It returns nil on cancellation and core.FailedClientBoth when the source and the target
// disagree about the genesis header.
func Run(ctx context.Context, params LoopParams, source SourceClient, target TargetClient) error {
	params.setDefaults()
	l := &syncLoop{
		params:                   params,
		source:                   source,
		target:                   target,
		sync:                     NewHeadersSync(params.Sync),
		src:                      newSyncSide("source"),
		tgt:                      newSyncSide("target"),
		logger:                   log.GetLogger().WithRace(params.Name, source.ChainID(), target.ChainID()).WithModule("headersync"),
		sourceBestNumberRequired: true,
		targetBestHeaderRequired: true,
		lastUpdateTime:           time.Now(),
	}
	defer l.src.stop()
	defer l.tgt.stop()
	return l.run(ctx)
}

func (l *syncLoop) run(ctx context.Context) error {
	sourceTicker := time.NewTicker(l.params.SourceTick)
	defer sourceTicker.Stop()
	targetTicker := time.NewTicker(l.params.TargetTick)
	defer targetTicker.Stop()

	for {
		l.printProgress(ctx)

		if l.tgt.online() {
			l.scheduleTarget(ctx)
		}
		if l.src.online() {
			if err := l.scheduleSource(ctx); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "headers sync is cancelled")
			return nil
		case res := <-l.src.results:
			l.onSourceResult(ctx, res)
		case res := <-l.tgt.results:
			l.onTargetResult(ctx, res)
		case <-l.src.wakeC():
			l.src.wake = nil
			l.maybeReconnect(ctx, l.src, l.source.Reconnect)
		case <-l.tgt.wakeC():
			l.tgt.wake = nil
			l.maybeReconnect(ctx, l.tgt, l.target.Reconnect)
		case <-sourceTicker.C:
			if l.sync.IsAlmostSynced() {
				l.sourceBestNumberRequired = true
			}
		case <-targetTicker.C:
			l.targetBestHeaderRequired = true
		}
	}
}

func (l *syncLoop) scheduleTarget(ctx context.Context) {
	queue := l.sync.Headers()
	switch {
	case l.targetBestHeaderRequired:
		l.logger.DebugContext(ctx, "asking target about best header")
		l.targetBestHeaderRequired = false
		l.request(l.tgt, func() syncResult {
			id, err := l.target.BestHeaderID(ctx)
			return syncResult{op: opBestHeader, id: id, err: err}
		})
	case queue.Header(StatusMaybeReceipts) != nil:
		header := queue.Header(StatusMaybeReceipts)
		l.logger.DebugContext(ctx, "checking if header submission requires receipts", "header", header.ID().String())
		l.request(l.tgt, func() syncResult {
			required, err := l.target.RequiresReceipts(ctx, header)
			return syncResult{op: opRequiresReceipts, id: header.ID(), flag: required, err: err}
		})
	case queue.Header(StatusMaybeOrphan) != nil:
		// ask for the existence of the parent
		parent := queue.Header(StatusMaybeOrphan).ParentID()
		l.logger.DebugContext(ctx, "asking target about existence of header", "header", parent.String())
		l.request(l.tgt, func() syncResult {
			known, err := l.target.IsKnownHeader(ctx, parent)
			return syncResult{op: opIsKnown, id: parent, flag: known, err: err}
		})
	default:
		stalled := time.Since(l.lastUpdateTime) > l.params.BackupStallTimeout
		headers := l.sync.SelectHeadersToSubmit(stalled)
		if len(headers) == 0 {
			return
		}
		l.logger.DebugContext(ctx, "submitting headers to target", "count", len(headers), "headers", formatIDs(headers))
		l.request(l.tgt, func() syncResult {
			submitted, err := l.target.SubmitHeaders(ctx, headers)
			return syncResult{op: opSubmit, submitted: submitted, err: err}
		})
		if l.stallSince == nil {
			now := time.Now()
			l.stallSince = &now
		}
	}
}

func (l *syncLoop) scheduleSource(ctx context.Context) error {
	queue := l.sync.Headers()
	if l.sourceBestNumberRequired {
		l.logger.DebugContext(ctx, "asking source about best block number")
		l.sourceBestNumberRequired = false
		l.request(l.src, func() syncResult {
			number, err := l.source.BestBlockNumber(ctx)
			return syncResult{op: opBestNumber, number: number, err: err}
		})
		return nil
	}
	if header := queue.Header(StatusReceipts); header != nil {
		id := header.ID()
		l.logger.DebugContext(ctx, "retrieving receipts of header", "header", id.String())
		l.request(l.src, func() syncResult {
			receipts, err := l.source.Receipts(ctx, id)
			return syncResult{op: opReceipts, id: id, receipts: receipts, err: err}
		})
		return nil
	}
	if orphan := l.sync.SelectOrphanHeaderToDownload(); orphan != nil {
		parent := orphan.ParentID()
		if parent.Number == 0 {
			l.logger.ErrorContext(ctx, "misconfiguration", errGenesisOrphan, "header", orphan.ID().String())
			return core.FailedClientBoth
		}
		l.logger.DebugContext(ctx, "downloading orphan header from source", "header", parent.String())
		l.request(l.src, func() syncResult {
			header, err := l.source.HeaderByHash(ctx, parent.Hash)
			return syncResult{op: opOrphanHeader, header: header, err: err}
		})
		return nil
	}
	if number, ok := l.sync.SelectNewHeaderToDownload(); ok {
		l.logger.DebugContext(ctx, "downloading new header from source", "number", number)
		l.request(l.src, func() syncResult {
			header, err := l.source.HeaderByNumber(ctx, number)
			return syncResult{op: opNewHeader, header: header, err: err}
		})
	}
	return nil
}

func (l *syncLoop) request(side *syncSide, f func() syncResult) {
	side.busy = true
	go func() {
		side.results <- f()
	}()
}

func (l *syncLoop) onSourceResult(ctx context.Context, res syncResult) {
	l.src.busy = false
	if res.err != nil {
		if res.op == opBestNumber {
			l.sourceBestNumberRequired = true
		}
		l.onError(ctx, l.src, res)
		return
	}
	l.src.backoff.Reset()

	switch res.op {
	case opBestNumber:
		l.sync.SourceBestHeaderNumberResponse(res.number)
	case opNewHeader, opOrphanHeader:
		l.sync.Headers().HeaderResponse(res.header)
	case opReceipts:
		l.sync.Headers().ReceiptsResponse(res.id, res.receipts)
	case opReconnect:
		l.src.reconnect = false
		l.logger.InfoContext(ctx, "reconnected to source")
	}
}

func (l *syncLoop) onTargetResult(ctx context.Context, res syncResult) {
	l.tgt.busy = false
	if res.op == opSubmit {
		l.sync.Headers().HeadersSubmitted(res.submitted)
		telemetry.AddSubmittedHeaders(ctx, len(res.submitted))
	}
	if res.err != nil {
		if res.op == opBestHeader {
			l.targetBestHeaderRequired = true
		}
		l.onError(ctx, l.tgt, res)
		return
	}
	l.tgt.backoff.Reset()

	switch res.op {
	case opBestHeader:
		l.onTargetBestHeader(ctx, res.id)
	case opIsKnown:
		l.sync.Headers().MaybeOrphanResponse(res.id, res.flag)
	case opRequiresReceipts:
		l.sync.Headers().MaybeReceiptsResponse(res.id, res.flag)
	case opReconnect:
		l.tgt.reconnect = false
		l.logger.InfoContext(ctx, "reconnected to target")
	}
}

func (l *syncLoop) onTargetBestHeader(ctx context.Context, best core.HeaderID) {
	if l.sync.TargetBestHeaderResponse(best) {
		l.lastUpdateTime = time.Now()
		if l.sync.Headers().HeadersInStatus(StatusSubmitted) != 0 {
			// our transactions are still pending
			now := time.Now()
			l.stallSince = &now
		} else {
			l.stallSince = nil
		}
		return
	}
	if l.stallSince != nil && time.Since(*l.stallSince) >= l.params.StallTimeout {
		l.logger.InfoContext(ctx, "possible target fork detected, restarting headers sync", "stall_timeout", l.params.StallTimeout)
		l.stallSince = nil
		l.sync.Restart()
		l.sourceBestNumberRequired = true
		l.targetBestHeaderRequired = true
	}
}

func (l *syncLoop) onError(ctx context.Context, side *syncSide, res syncResult) {
	var delay time.Duration
	if res.op == opReconnect || core.IsConnectionError(res.err) {
		side.reconnect = true
		side.backoff.Reset()
		delay = l.params.ReconnectDelay
	} else {
		delay = side.backoff.NextBackOff()
		if delay == backoff.Stop {
			delay = core.MaxBackoffInterval
		}
	}
	side.goOffline(delay)
	l.logger.ErrorContext(ctx, "request failed", res.err, "client", side.name, "op", res.op.String(), "retry_in", delay)
}

func (l *syncLoop) maybeReconnect(ctx context.Context, side *syncSide, reconnect func(context.Context) error) {
	if !side.reconnect {
		return
	}
	l.logger.InfoContext(ctx, "reconnecting", "client", side.name)
	l.request(side, func() syncResult {
		return syncResult{op: opReconnect, err: reconnect(ctx)}
	})
}

func (l *syncLoop) printProgress(ctx context.Context) {
	now := time.Now()
	if now.Sub(l.lastProgressLog) < progressInterval {
		return
	}
	l.lastProgressLog = now

	queue := l.sync.Headers()
	for _, status := range queuedStatuses {
		telemetry.SetQueuedHeaders(status.String(), queue.HeadersInStatus(status))
	}
	best, bestKnown := l.sync.TargetBestHeader()
	sourceBest, sourceKnown := l.sync.SourceBestNumber()
	l.logger.InfoContext(ctx, "headers sync progress",
		"synced", best.Number,
		"synced_known", bestKnown,
		"source_best", sourceBest,
		"source_best_known", sourceKnown,
		"queued", queue.TotalHeaders(),
	)
}

func formatIDs(headers []*QueuedHeader) string {
	switch len(headers) {
	case 0:
		return "[]"
	case 1:
		return headers[0].ID().String()
	case 2:
		return fmt.Sprintf("[%s, %s]", headers[0].ID(), headers[1].ID())
	default:
		return fmt.Sprintf("[%s ... %s]", headers[0].ID(), headers[len(headers)-1].ID())
	}
}
