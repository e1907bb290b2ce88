package equivocation

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// FinalityProof proves the finality of a source chain header
type FinalityProof interface {
	TargetHeaderNumber() uint64
	TargetHeaderHash() common.Hash
}

// EquivocationProof proves that a validator of the source chain has signed conflicting votes
type EquivocationProof interface {
	// ID identifies the violation. Proofs of the same violation have the same ID.
	ID() string
}

// VerificationContext holds the parameters to verify finality proofs, e.g. the authority set
type VerificationContext any

// Finder finds equivocations by comparing a finality proof synced at the target with other
// finality proofs observed at the source.
type Finder interface {
	FindEquivocations(vc VerificationContext, synced FinalityProof, candidates []FinalityProof) ([]EquivocationProof, error)
}

// HeaderFinalityInfo is the finality proof of a source header imported by the target
type HeaderFinalityInfo struct {
	FinalityProof FinalityProof
	// NewVerificationContext is set when the header changes the verification context
	NewVerificationContext VerificationContext
}

type ReportStatus int

const (
	// ReportFinalized means the report transaction has been finalized at the source
	ReportFinalized ReportStatus = iota + 1
	// ReportLost means the report transaction has been dropped or has failed
	ReportLost
)

func (s ReportStatus) String() string {
	switch s {
	case ReportFinalized:
		return "finalized"
	case ReportLost:
		return "lost"
	default:
		return "unknown"
	}
}

// SourceClient is the client of the chain whose validators are checked
type SourceClient interface {
	ChainID() string
	// SubscribeFinalityProofs returns a stream of all finality proofs observed at the source.
	// The stream is closed when the subscription is terminated.
	SubscribeFinalityProofs(ctx context.Context) (<-chan FinalityProof, error)
	// ReportEquivocation submits a report and returns a channel that receives the status of the
	// report transaction once it is known.
	ReportEquivocation(ctx context.Context, at common.Hash, proof EquivocationProof) (<-chan ReportStatus, error)
	Reconnect(ctx context.Context) error
}

// TargetClient is the client of the chain that imports finality proofs of the source chain
type TargetClient interface {
	ChainID() string
	BestFinalizedHeaderNumber(ctx context.Context) (uint64, error)
	// BestSyncedHeaderHash returns the best source header imported at the given target block
	BestSyncedHeaderHash(ctx context.Context, at uint64) (common.Hash, bool, error)
	// FinalityVerificationContext returns the verification context of the source chain at the given target block
	FinalityVerificationContext(ctx context.Context, at uint64) (VerificationContext, error)
	// SyncedHeadersFinalityInfo returns finality proofs of the source headers imported at the given target block
	SyncedHeadersFinalityInfo(ctx context.Context, at uint64) ([]HeaderFinalityInfo, error)
	Reconnect(ctx context.Context) error
}
