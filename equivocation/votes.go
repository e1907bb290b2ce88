package equivocation

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
)

// Vote is a signed vote of an authority for a header
type Vote struct {
	Authority    string      `json:"authority"`
	TargetNumber uint64      `json:"target_number"`
	TargetHash   common.Hash `json:"target_hash"`
	Signature    []byte      `json:"signature"`
}

// Justification is a finality proof made of the votes of a round
type Justification struct {
	SetID  uint64      `json:"set_id"`
	Round  uint64      `json:"round"`
	Number uint64      `json:"number"`
	Hash   common.Hash `json:"hash"`
	Votes  []Vote      `json:"votes"`
}

var _ FinalityProof = (*Justification)(nil)

func (j *Justification) TargetHeaderNumber() uint64 {
	return j.Number
}

func (j *Justification) TargetHeaderHash() common.Hash {
	return j.Hash
}

func (j *Justification) vote(authority string) (Vote, bool) {
	for _, v := range j.Votes {
		if v.Authority == authority {
			return v, true
		}
	}
	return Vote{}, false
}

// AuthoritySet is the verification context of justifications
type AuthoritySet struct {
	SetID       uint64   `json:"set_id"`
	Authorities []string `json:"authorities"`
}

func (s *AuthoritySet) contains(authority string) bool {
	return slices.Contains(s.Authorities, authority)
}

// VoteEquivocation is a pair of votes of an authority for different headers in the same round
type VoteEquivocation struct {
	SetID  uint64 `json:"set_id"`
	Round  uint64 `json:"round"`
	First  Vote   `json:"first"`
	Second Vote   `json:"second"`
}

var _ EquivocationProof = (*VoteEquivocation)(nil)

func (e *VoteEquivocation) ID() string {
	return fmt.Sprintf("%d/%d/%s", e.SetID, e.Round, e.First.Authority)
}

func (e *VoteEquivocation) Offender() string {
	return e.First.Authority
}

// VoteEquivocationsFinder finds authorities that voted for different headers in the same round
type VoteEquivocationsFinder struct{}

var _ Finder = VoteEquivocationsFinder{}

func (VoteEquivocationsFinder) FindEquivocations(vc VerificationContext, synced FinalityProof, candidates []FinalityProof) ([]EquivocationProof, error) {
	set, ok := vc.(*AuthoritySet)
	if !ok {
		return nil, errors.Newf("unexpected verification context: %T", vc)
	}
	syncedJustification, ok := synced.(*Justification)
	if !ok {
		return nil, errors.Newf("unexpected finality proof: %T", synced)
	}
	if syncedJustification.SetID != set.SetID {
		return nil, errors.Newf("justification of set %d can't be verified by set %d", syncedJustification.SetID, set.SetID)
	}

	var found []EquivocationProof
	seen := make(map[string]struct{})
	for _, candidate := range candidates {
		j, ok := candidate.(*Justification)
		if !ok || j.SetID != set.SetID || j.Round != syncedJustification.Round {
			continue
		}
		for _, vote := range j.Votes {
			if !set.contains(vote.Authority) {
				continue
			}
			syncedVote, ok := syncedJustification.vote(vote.Authority)
			if !ok || syncedVote.TargetHash == vote.TargetHash {
				continue
			}
			e := &VoteEquivocation{SetID: set.SetID, Round: j.Round, First: syncedVote, Second: vote}
			if _, ok := seen[e.ID()]; ok {
				continue
			}
			seen[e.ID()] = struct{}{}
			found = append(found, e)
		}
	}
	return found, nil
}
