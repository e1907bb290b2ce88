package core

import (
	"context"
	"time"
)

// Chain represents a chain that is supported by the relayer
type Chain interface {
	// ChainID returns ID of the chain
	ChainID() string

	// Init initializes the chain after it is built from its configuration
	Init(homePath string, timeout time.Duration, debug bool) error

	// Reconnect drops the connection to the chain node and establishes a new one
	Reconnect(ctx context.Context) error
}

// StateClient reads the state of a chain relative to its peer chain.
type StateClient interface {
	// ClientState returns the best finalized header of the chain and the best header of the peer
	// chain known to the chain.
	ClientState(ctx context.Context) (ClientState, error)

	// Reconnect drops the connection to the chain node and establishes a new one
	Reconnect(ctx context.Context) error
}

// LaneSource is the sending end of a message lane
type LaneSource interface {
	SourceClient
	StateClient

	// LatestConfirmedNonce returns the latest nonce of the messages whose delivery is confirmed at the given block.
	LatestConfirmedNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error)

	// SubmitReceivingProof confirms the delivery of messages with a proof generated at the given block
	// of the peer chain. It returns the range of nonces that have been confirmed.
	SubmitReceivingProof(ctx context.Context, generatedAt HeaderID, nonces NonceRange, proof Proof) (NonceRange, error)
}

// LaneTarget is the receiving end of a message lane
type LaneTarget interface {
	TargetClient
	StateClient

	// ProveReceiving generates a proof that the messages in the range are received at the given block.
	// The returned range may be narrower than the requested one.
	ProveReceiving(ctx context.Context, at HeaderID, nonces NonceRange) (HeaderID, NonceRange, Proof, error)
}

// MessageLaneChain is a chain that sends and receives messages through lanes.
type MessageLaneChain interface {
	Chain

	// OutboundLane returns the end of the lane that sends messages to the peer chain
	OutboundLane(laneID, peerChainID string) (LaneSource, error)

	// InboundLane returns the end of the lane that receives messages from the peer chain
	InboundLane(laneID, peerChainID string) (LaneTarget, error)
}
