package equivocation

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
)

var errNoSyncedHeader = errors.New("no source header is synced at the target block")

// ReportingContext is the last source header known to the target and the context to verify
// the finality proofs of its descendants
type ReportingContext struct {
	SyncedHeaderHash          common.Hash
	SyncedVerificationContext VerificationContext
}

// readReportingContext reads the reporting context from the target at the given block
func readReportingContext(ctx context.Context, target TargetClient, at uint64) (*ReportingContext, error) {
	hash, ok, err := target.BestSyncedHeaderHash(ctx, at)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read best synced header hash at %d", at)
	}
	if !ok {
		return nil, errors.Wrapf(errNoSyncedHeader, "block %d", at)
	}
	vc, err := target.FinalityVerificationContext(ctx, at)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read finality verification context at %d", at)
	}
	return &ReportingContext{
		SyncedHeaderHash:          hash,
		SyncedVerificationContext: vc,
	}, nil
}

// update applies the changes made by importing the header
func (rc *ReportingContext) update(info HeaderFinalityInfo) {
	if info.NewVerificationContext != nil {
		rc.SyncedVerificationContext = info.NewVerificationContext
	}
	rc.SyncedHeaderHash = info.FinalityProof.TargetHeaderHash()
}
