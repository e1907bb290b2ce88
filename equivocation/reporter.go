package equivocation

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/internal/telemetry"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
)

// reporter submits equivocation reports and tracks them until their transactions are resolved
type reporter struct {
	pending map[string]<-chan ReportStatus
	logger  *log.RelayLogger
}

func newReporter(logger *log.RelayLogger) *reporter {
	return &reporter{
		pending: make(map[string]<-chan ReportStatus),
		logger:  logger,
	}
}

// submitReport reports the equivocation unless a report of it is still pending
func (r *reporter) submitReport(ctx context.Context, source SourceClient, at common.Hash, proof EquivocationProof) error {
	id := proof.ID()
	if _, ok := r.pending[id]; ok {
		r.logger.DebugContext(ctx, "equivocation report is already pending", "equivocation", id)
		return nil
	}

	r.logger.InfoContext(ctx, "reporting equivocation", "equivocation", id, "at", at.Hex())
	tracker, err := source.ReportEquivocation(ctx, at, proof)
	if err != nil {
		return err
	}
	telemetry.AddEquivocationReport(ctx, source.ChainID())
	if tracker == nil {
		// a report without a tracker is never resolved, so it is not kept pending
		r.logger.WarnContext(ctx, "equivocation report is not tracked", "equivocation", id)
		return nil
	}
	r.pending[id] = tracker
	return nil
}

// processPendingReports forgets the reports whose transactions have been resolved
func (r *reporter) processPendingReports(ctx context.Context) {
	for id, tracker := range r.pending {
		select {
		case status, ok := <-tracker:
			if !ok || status == ReportLost {
				r.logger.WarnContext(ctx, "equivocation report has been lost", "equivocation", id)
			} else {
				r.logger.InfoContext(ctx, "equivocation report has been finalized", "equivocation", id)
			}
			delete(r.pending, id)
		default:
		}
	}
}
