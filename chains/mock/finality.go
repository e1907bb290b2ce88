package mock

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/equivocation"
	"golang.org/x/crypto/blake2b"
)

// authoritySetID is the ID of the only authority set of mock chains
const authoritySetID = 1

var (
	_ equivocation.SourceChain = (*Chain)(nil)
	_ equivocation.TargetChain = (*Chain)(nil)
)

func vote(authority string, number uint64, hash common.Hash) equivocation.Vote {
	sig := blake2b.Sum256(append([]byte(authority+"/"), hash.Bytes()...))
	return equivocation.Vote{
		Authority:    authority,
		TargetNumber: number,
		TargetHash:   hash,
		Signature:    sig[:],
	}
}

// justification returns the finality proof of the header signed by all authorities.
// Every header is finalized in its own round.
func (c *Chain) justification(number uint64) *equivocation.Justification {
	hash := headerHash(c.ChainID(), number)
	j := &equivocation.Justification{
		SetID:  authoritySetID,
		Round:  number,
		Number: number,
		Hash:   hash,
	}
	for _, a := range c.config.Authorities {
		j.Votes = append(j.Votes, vote(a, number, hash))
	}
	return j
}

// forkJustification returns a proof of a header that is never produced by the chain. It is
// signed by the first authority only.
func (c *Chain) forkJustification(number uint64) *equivocation.Justification {
	hash := forkHeaderHash(c.ChainID(), number)
	return &equivocation.Justification{
		SetID:  authoritySetID,
		Round:  number,
		Number: number,
		Hash:   hash,
		Votes:  []equivocation.Vote{vote(c.config.Authorities[0], number, hash)},
	}
}

func (c *Chain) authoritySet() *equivocation.AuthoritySet {
	return &equivocation.AuthoritySet{
		SetID:       authoritySetID,
		Authorities: slices.Clone(c.config.Authorities),
	}
}

// Reports returns the IDs of the equivocations reported to the chain
func (c *Chain) Reports() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.reports)
}

func (c *Chain) EquivocationSource(peerChainID string) (equivocation.SourceClient, error) {
	if len(c.config.Authorities) == 0 {
		return nil, errors.Newf("chain %s has no authorities", c.ChainID())
	}
	return &FinalitySource{chain: c}, nil
}

func (c *Chain) EquivocationTarget(peerChainID string) (equivocation.TargetClient, error) {
	if peerChainID == c.ChainID() {
		return nil, errors.Newf("chain %s can't import its own finality proofs", c.ChainID())
	}
	return &FinalityTarget{chain: c, peer: peerChainID}, nil
}

// FinalitySource streams the finality proofs of the chain and accepts equivocation reports
type FinalitySource struct {
	chain *Chain
}

var _ equivocation.SourceClient = (*FinalitySource)(nil)

func (s *FinalitySource) ChainID() string {
	return s.chain.ChainID()
}

// SubscribeFinalityProofs streams the proofs of the headers finalized from now on. The stream is
// closed when the context is cancelled.
func (s *FinalitySource) SubscribeFinalityProofs(ctx context.Context) (<-chan equivocation.FinalityProof, error) {
	if err := s.chain.request(); err != nil {
		return nil, err
	}
	stream := make(chan equivocation.FinalityProof, 64)
	next := s.chain.bestFinalized()

	go func() {
		defer close(stream)
		ticker := time.NewTicker(max(s.chain.blockTime/4, time.Millisecond))
		defer ticker.Stop()

		send := func(p equivocation.FinalityProof) bool {
			select {
			case stream <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			for ; next <= s.chain.bestFinalized(); next++ {
				if !send(s.chain.justification(next)) {
					return
				}
				if every := s.chain.config.EquivocateEvery; every > 0 && next%every == 0 {
					if !send(s.chain.forkJustification(next)) {
						return
					}
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return stream, nil
}

func (s *FinalitySource) ReportEquivocation(ctx context.Context, at common.Hash, proof equivocation.EquivocationProof) (<-chan equivocation.ReportStatus, error) {
	if err := s.chain.request(); err != nil {
		return nil, err
	}
	status := make(chan equivocation.ReportStatus, 1)
	if !slices.Contains(s.chain.config.Authorities, offender(proof)) {
		status <- equivocation.ReportLost
		return status, nil
	}

	s.chain.mu.Lock()
	s.chain.reports = append(s.chain.reports, proof.ID())
	s.chain.mu.Unlock()
	s.chain.logger.InfoContext(ctx, "equivocation reported", "equivocation", proof.ID(), "at", at.Hex())
	status <- equivocation.ReportFinalized
	return status, nil
}

func offender(proof equivocation.EquivocationProof) string {
	if e, ok := proof.(*equivocation.VoteEquivocation); ok {
		return e.Offender()
	}
	return ""
}

func (s *FinalitySource) Reconnect(ctx context.Context) error {
	return s.chain.Reconnect(ctx)
}

// FinalityTarget imports the best finalized header of a peer chain in every block. The header
// imported at a block is the best finalized header of the peer at the production time of the block.
type FinalityTarget struct {
	chain *Chain
	peer  string
}

var _ equivocation.TargetClient = (*FinalityTarget)(nil)

func (t *FinalityTarget) ChainID() string {
	return t.chain.ChainID()
}

// syncedAt returns the peer chain and the number of its best header imported at the block
func (t *FinalityTarget) syncedAt(at uint64) (*Chain, uint64, bool, error) {
	peer, err := lookup(t.peer)
	if err != nil {
		return nil, 0, false, err
	}
	number, ok := peer.finalizedAt(t.chain.timeOf(at))
	return peer, number, ok, nil
}

func (t *FinalityTarget) BestFinalizedHeaderNumber(ctx context.Context) (uint64, error) {
	if err := t.chain.request(); err != nil {
		return 0, err
	}
	return t.chain.bestFinalized(), nil
}

func (t *FinalityTarget) BestSyncedHeaderHash(ctx context.Context, at uint64) (common.Hash, bool, error) {
	if err := t.chain.request(); err != nil {
		return common.Hash{}, false, err
	}
	_, number, ok, err := t.syncedAt(at)
	if err != nil || !ok {
		return common.Hash{}, false, err
	}
	return headerHash(t.peer, number), true, nil
}

func (t *FinalityTarget) FinalityVerificationContext(ctx context.Context, at uint64) (equivocation.VerificationContext, error) {
	if err := t.chain.request(); err != nil {
		return nil, err
	}
	peer, err := lookup(t.peer)
	if err != nil {
		return nil, err
	}
	return peer.authoritySet(), nil
}

func (t *FinalityTarget) SyncedHeadersFinalityInfo(ctx context.Context, at uint64) ([]equivocation.HeaderFinalityInfo, error) {
	if err := t.chain.request(); err != nil {
		return nil, err
	}
	peer, number, ok, err := t.syncedAt(at)
	if err != nil || !ok {
		return nil, err
	}
	if at > 0 {
		if _, prev, ok, _ := t.syncedAt(at - 1); ok && prev == number {
			return nil, nil
		}
	}
	return []equivocation.HeaderFinalityInfo{{FinalityProof: peer.justification(number)}}, nil
}

func (t *FinalityTarget) Reconnect(ctx context.Context) error {
	return t.chain.Reconnect(ctx)
}
