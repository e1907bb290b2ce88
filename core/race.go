package core

import (
	"context"
)

// SourceClient is a client of the chain that messages are relayed from.
type SourceClient interface {
	// ChainID returns the ID of the chain
	ChainID() string

	// LatestNonce returns the latest nonce of the messages sent at the given block.
	LatestNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error)

	// GenerateProof generates a proof of messages in the range at the given block.
	// The returned range may be narrower than the requested one.
	GenerateProof(ctx context.Context, at HeaderID, nonces NonceRange) (HeaderID, NonceRange, Proof, error)
}

// TargetClient is a client of the chain that messages are relayed to.
type TargetClient interface {
	// ChainID returns the ID of the chain
	ChainID() string

	// LatestNonce returns the latest nonce of the messages received at the given block.
	LatestNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error)

	// SubmitProof submits a proof generated at the given block of the source chain.
	// It returns the range of nonces that have been submitted.
	SubmitProof(ctx context.Context, generatedAt HeaderID, nonces NonceRange, proof Proof) (NonceRange, error)
}

// NoncesToSubmit is a generated batch that is not submitted yet
type NoncesToSubmit struct {
	GeneratedAt HeaderID
	Nonces      NonceRange
	Proof       Proof
}

// RaceState is the working memory of a race.
type RaceState struct {
	SourceState *ClientState
	TargetState *ClientState

	// NoncesToSubmit is the batch whose proof is generated but not submitted yet
	NoncesToSubmit *NoncesToSubmit
	// NoncesSubmitted is the batch submitted to the target chain and not confirmed yet
	NoncesSubmitted *NonceRange
}

// IsIdle returns true if no batch is pending in the race.
func (st *RaceState) IsIdle() bool {
	return st.NoncesToSubmit == nil && st.NoncesSubmitted == nil
}

// BestPeerAtTarget returns the best source header known to the target chain.
func (st *RaceState) BestPeerAtTarget() (HeaderID, bool) {
	if st.TargetState == nil {
		return HeaderID{}, false
	}
	return st.TargetState.BestPeer, true
}

// RaceStrategy decides what to relay next.
type RaceStrategy interface {
	// IsEmpty returns true if there are no nonces to deliver
	IsEmpty() bool
	// BestAtSource returns the best nonce known to exist at the source chain
	BestAtSource() (MessageNonce, bool)
	// BestAtTarget returns the best nonce known to be received by the target chain
	BestAtTarget() (MessageNonce, bool)

	// SourceNonceUpdated is called when the latest nonce at the source chain has been read.
	SourceNonceUpdated(at HeaderID, nonce MessageNonce)
	// TargetNonceUpdated is called when the latest nonce at the target chain has been read.
	// It may reset the pending batches of the race state if they are obsolete.
	TargetNonceUpdated(nonce MessageNonce, raceState *RaceState)
	// ResetBestTargetNonce forgets the best nonce at the target chain so that it is read again
	// before the next selection.
	ResetBestTargetNonce()

	// SelectNoncesToDeliver selects the range of nonces to be delivered next.
	SelectNoncesToDeliver(raceState *RaceState) (NonceRange, bool)
}
