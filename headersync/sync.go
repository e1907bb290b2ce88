package headersync

import (
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
)

const (
	DefaultMaxFutureHeadersToDownload   = 128
	DefaultMaxHeadersInSubmittedStatus  = 128
	DefaultMaxHeadersInSingleSubmit     = 32
	DefaultMaxHeadersSizeInSingleSubmit = 128 * 1024
	DefaultPruneDepth                   = 4096

	// the sync is almost synced when the target is less than this number of headers behind the source
	almostSyncedDistance = 4
)

// Params are the limits of the headers synchronization
type Params struct {
	// MaxFutureHeadersToDownload is the maximal number of headers in the queue that are not yet submitted
	MaxFutureHeadersToDownload int `json:"max_future_headers_to_download" yaml:"max_future_headers_to_download"`
	// MaxHeadersInSubmittedStatus is the maximal number of headers submitted but not yet synced
	MaxHeadersInSubmittedStatus int `json:"max_headers_in_submitted_status" yaml:"max_headers_in_submitted_status"`
	// MaxHeadersInSingleSubmit is the maximal number of headers in a single submit transaction
	MaxHeadersInSingleSubmit int `json:"max_headers_in_single_submit" yaml:"max_headers_in_single_submit"`
	// MaxHeadersSizeInSingleSubmit is the maximal encoded size of headers in a single submit transaction
	MaxHeadersSizeInSingleSubmit int `json:"max_headers_size_in_single_submit" yaml:"max_headers_size_in_single_submit"`
	// PruneDepth is the number of synced headers kept below the best synced header
	PruneDepth uint64 `json:"prune_depth" yaml:"prune_depth"`
	// BackupMode makes the relayer submit headers only when the sync is stalled
	BackupMode bool `json:"backup_mode" yaml:"backup_mode"`
}

func DefaultParams() Params {
	return Params{
		MaxFutureHeadersToDownload:   DefaultMaxFutureHeadersToDownload,
		MaxHeadersInSubmittedStatus:  DefaultMaxHeadersInSubmittedStatus,
		MaxHeadersInSingleSubmit:     DefaultMaxHeadersInSingleSubmit,
		MaxHeadersSizeInSingleSubmit: DefaultMaxHeadersSizeInSingleSubmit,
		PruneDepth:                   DefaultPruneDepth,
	}
}

// WithDefaults fills zero limits with the default values
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.MaxFutureHeadersToDownload <= 0 {
		p.MaxFutureHeadersToDownload = d.MaxFutureHeadersToDownload
	}
	if p.MaxHeadersInSubmittedStatus <= 0 {
		p.MaxHeadersInSubmittedStatus = d.MaxHeadersInSubmittedStatus
	}
	if p.MaxHeadersInSingleSubmit <= 0 {
		p.MaxHeadersInSingleSubmit = d.MaxHeadersInSingleSubmit
	}
	if p.MaxHeadersSizeInSingleSubmit <= 0 {
		p.MaxHeadersSizeInSingleSubmit = d.MaxHeadersSizeInSingleSubmit
	}
	if p.PruneDepth == 0 {
		p.PruneDepth = d.PruneDepth
	}
	return p
}

// HeadersSync decides which headers are downloaded from the source and submitted to the target
type HeadersSync struct {
	params Params

	sourceBestNumber      uint64
	sourceBestNumberKnown bool
	targetBestHeader      *core.HeaderID

	headers *QueuedHeaders
	logger  *log.RelayLogger
}

func NewHeadersSync(params Params) *HeadersSync {
	return &HeadersSync{
		params:  params,
		headers: NewQueuedHeaders(),
		logger:  log.GetLogger().WithModule("headersync"),
	}
}

func (s *HeadersSync) Headers() *QueuedHeaders {
	return s.headers
}

// SourceBestNumber returns the best header number at the source
func (s *HeadersSync) SourceBestNumber() (uint64, bool) {
	return s.sourceBestNumber, s.sourceBestNumberKnown
}

// TargetBestHeader returns the best source header known to the target
func (s *HeadersSync) TargetBestHeader() (core.HeaderID, bool) {
	if s.targetBestHeader == nil {
		return core.HeaderID{}, false
	}
	return *s.targetBestHeader, true
}

// IsAlmostSynced reports whether the target is close to the source best header
func (s *HeadersSync) IsAlmostSynced() bool {
	if !s.sourceBestNumberKnown {
		return true
	}
	if s.targetBestHeader == nil {
		return false
	}
	return s.sourceBestNumber < s.targetBestHeader.Number+almostSyncedDistance
}

// SelectOrphanHeaderToDownload returns the oldest orphan header whose parent has to be downloaded
func (s *HeadersSync) SelectOrphanHeaderToDownload() *QueuedHeader {
	orphan := s.headers.Header(StatusOrphan)
	if orphan == nil {
		return nil
	}
	// the parent may already be queued while we ask the target about it
	if s.headers.Status(orphan.ParentID()) != StatusUnknown {
		return nil
	}
	return orphan
}

// SelectNewHeaderToDownload returns the number of the next header to download from the source
func (s *HeadersSync) SelectNewHeaderToDownload() (uint64, bool) {
	if !s.sourceBestNumberKnown || s.targetBestHeader == nil {
		return 0, false
	}
	if s.headers.TotalHeaders() >= s.params.MaxFutureHeadersToDownload {
		return 0, false
	}

	// the target is on a longer fork, reorg to the source best header
	bestQueued := s.headers.BestQueuedNumber()
	if bestQueued == 0 && s.sourceBestNumber < s.targetBestHeader.Number {
		return s.sourceBestNumber, true
	}

	bestDownloaded := max(bestQueued, s.headers.BestSyncedNumber(), s.targetBestHeader.Number)
	if bestDownloaded >= s.sourceBestNumber {
		return 0, false
	}
	return bestDownloaded + 1, true
}

// SelectHeadersToSubmit returns the oldest ready headers that fit in a single submit transaction
func (s *HeadersSync) SelectHeadersToSubmit(stalled bool) []*QueuedHeader {
	if s.params.BackupMode && !stalled {
		return nil
	}

	submitted := s.headers.HeadersInStatus(StatusSubmitted)
	if submitted >= s.params.MaxHeadersInSubmittedStatus {
		return nil
	}
	limit := min(s.params.MaxHeadersInSubmittedStatus-submitted, s.params.MaxHeadersInSingleSubmit)

	totalSize := 0
	totalHeaders := 0
	return s.headers.Headers(StatusReady, func(header *QueuedHeader) bool {
		if totalHeaders == limit {
			return false
		}
		size := header.EncodedSize()
		// the first header is submitted even when it exceeds the size limit
		if totalHeaders != 0 && totalSize+size > s.params.MaxHeadersSizeInSingleSubmit {
			return false
		}
		totalSize += size
		totalHeaders++
		return true
	})
}

func (s *HeadersSync) SourceBestHeaderNumberResponse(number uint64) {
	s.logger.Debug("received best header number from source", "number", number)
	s.sourceBestNumber = number
	s.sourceBestNumberKnown = true
}

// TargetBestHeaderResponse receives the best source header known to the target and returns true
// when it has changed
func (s *HeadersSync) TargetBestHeaderResponse(best core.HeaderID) bool {
	s.logger.Debug("received best known header from target", "header", best.String())
	if s.targetBestHeader != nil && *s.targetBestHeader == best {
		return false
	}

	s.headers.TargetBestHeaderResponse(best)
	if best.Number > s.params.PruneDepth {
		s.headers.Prune(best.Number - s.params.PruneDepth)
	}
	s.targetBestHeader = &best
	return true
}

// Restart forgets everything the sync knows about the source and the target
func (s *HeadersSync) Restart() {
	s.sourceBestNumber = 0
	s.sourceBestNumberKnown = false
	s.targetBestHeader = nil
	s.headers.Clear()
}
