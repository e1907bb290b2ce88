package core

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// HeaderID identifies a block of a chain
type HeaderID struct {
	Number uint64      `json:"number" yaml:"number"`
	Hash   common.Hash `json:"hash" yaml:"hash"`
}

func NewHeaderID(number uint64, hash common.Hash) HeaderID {
	return HeaderID{Number: number, Hash: hash}
}

func (id HeaderID) String() string {
	return fmt.Sprintf("%d(%s)", id.Number, id.Hash.TerminalString())
}

// ClientState is a snapshot of a chain as seen by the relayer.
type ClientState struct {
	// BestSelf is the best finalized header of the chain itself.
	BestSelf HeaderID `json:"best_self" yaml:"best_self"`
	// BestPeer is the best header of the peer chain that is known to (finalized at) this chain.
	BestPeer HeaderID `json:"best_peer" yaml:"best_peer"`
}

func (cs ClientState) String() string {
	return fmt.Sprintf("self=%s peer=%s", cs.BestSelf, cs.BestPeer)
}

// MessageNonce is the position of a message within a lane
type MessageNonce = uint64

// NonceRange is an inclusive range of message nonces.
type NonceRange struct {
	Begin MessageNonce `json:"begin" yaml:"begin"`
	End   MessageNonce `json:"end" yaml:"end"`
}

func NewNonceRange(begin, end MessageNonce) NonceRange {
	return NonceRange{Begin: begin, End: end}
}

// Len returns the number of nonces in the range
func (r NonceRange) Len() uint64 {
	if r.End < r.Begin {
		return 0
	}
	return r.End - r.Begin + 1
}

func (r NonceRange) Contains(nonce MessageNonce) bool {
	return r.Begin <= nonce && nonce <= r.End
}

func (r NonceRange) String() string {
	return fmt.Sprintf("%d..=%d", r.Begin, r.End)
}

// Proof is an opaque proof of messages generated by a source chain and verified by a target chain
type Proof []byte
