package mock

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"golang.org/x/crypto/blake2b"
)

// messagesProof proves the messages of a lane in a nonce range at a header of the source chain
type messagesProof struct {
	ChainID string
	LaneID  string
	At      uint64
	AtHash  common.Hash
	Begin   uint64
	End     uint64
	Digest  common.Hash
}

// messagesDigest is the digest of the payloads of the messages in the range
func messagesDigest(chainID, laneID string, nonces core.NonceRange) common.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	var bz [8]byte
	for n := nonces.Begin; n <= nonces.End; n++ {
		binary.BigEndian.PutUint64(bz[:], n)
		h.Write([]byte(chainID + "/" + laneID + "/"))
		h.Write(bz[:])
	}
	return common.BytesToHash(h.Sum(nil))
}

// receivingProof proves the nonce of the last message received by an inbound lane of the target chain
type receivingProof struct {
	ChainID string
	LaneID  string
	At      uint64
	AtHash  common.Hash
	Begin   uint64
	End     uint64
	Digest  common.Hash
}

func receivingDigest(chainID, laneID string, nonces core.NonceRange) common.Hash {
	return messagesDigest(chainID+"/received", laneID, nonces)
}

func (c *Chain) OutboundLane(laneID, peerChainID string) (core.LaneSource, error) {
	config, ok := c.config.lane(laneID, peerChainID)
	if !ok {
		return nil, errors.Newf("chain %s has no lane %s to %s", c.ChainID(), laneID, peerChainID)
	}
	return &OutboundLane{chain: c, config: config}, nil
}

func (c *Chain) InboundLane(laneID, peerChainID string) (core.LaneTarget, error) {
	return &InboundLane{chain: c, laneID: laneID, peer: peerChainID}, nil
}

// OutboundLane sends MessagesPerBlock messages in every block
type OutboundLane struct {
	chain  *Chain
	config LaneConfig
}

var _ core.LaneSource = (*OutboundLane)(nil)

func (l *OutboundLane) ChainID() string {
	return l.chain.ChainID()
}

// latestNonce returns the nonce of the last message sent at or before the block
func (l *OutboundLane) latestNonce(number uint64) core.MessageNonce {
	return number * l.config.MessagesPerBlock
}

func (l *OutboundLane) LatestNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	if err := l.chain.request(); err != nil {
		return core.HeaderID{}, 0, err
	}
	if err := l.chain.checkHeader(at); err != nil {
		return core.HeaderID{}, 0, err
	}
	return at, l.latestNonce(at.Number), nil
}

func (l *OutboundLane) GenerateProof(ctx context.Context, at core.HeaderID, nonces core.NonceRange) (core.HeaderID, core.NonceRange, core.Proof, error) {
	if err := l.chain.request(); err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, err
	}
	if err := l.chain.checkHeader(at); err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, err
	}
	latest := l.latestNonce(at.Number)
	if nonces.Begin == 0 || nonces.Begin > latest || nonces.End < nonces.Begin {
		return core.HeaderID{}, core.NonceRange{}, nil, errors.Newf("messages %s are not sent at %s", nonces, at)
	}
	nonces.End = min(nonces.End, latest)
	proof, err := rlp.EncodeToBytes(&messagesProof{
		ChainID: l.ChainID(),
		LaneID:  l.config.ID,
		At:      at.Number,
		AtHash:  at.Hash,
		Begin:   nonces.Begin,
		End:     nonces.End,
		Digest:  messagesDigest(l.ChainID(), l.config.ID, nonces),
	})
	if err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, errors.Wrap(err, "failed to encode messages proof")
	}
	return at, nonces, proof, nil
}

func (l *OutboundLane) key() string {
	return l.config.Peer + "/" + l.config.ID
}

// Confirmed returns the nonce of the last message whose delivery is confirmed
func (l *OutboundLane) Confirmed() core.MessageNonce {
	l.chain.mu.Lock()
	defer l.chain.mu.Unlock()
	return l.chain.confirmed[l.key()]
}

func (l *OutboundLane) LatestConfirmedNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	if err := l.chain.request(); err != nil {
		return core.HeaderID{}, 0, err
	}
	if err := l.chain.checkHeader(at); err != nil {
		return core.HeaderID{}, 0, err
	}
	return at, l.Confirmed(), nil
}

func (l *OutboundLane) SubmitReceivingProof(ctx context.Context, generatedAt core.HeaderID, nonces core.NonceRange, proof core.Proof) (core.NonceRange, error) {
	if err := l.chain.request(); err != nil {
		return core.NonceRange{}, err
	}
	var p receivingProof
	if err := rlp.DecodeBytes(proof, &p); err != nil {
		return core.NonceRange{}, errors.Wrap(err, "failed to decode receiving proof")
	}
	if p.ChainID != l.config.Peer || p.LaneID != l.config.ID {
		return core.NonceRange{}, errors.Newf("receiving proof of lane %s of %s is submitted to lane %s to %s", p.LaneID, p.ChainID, l.config.ID, l.config.Peer)
	}
	if p.At != generatedAt.Number || p.AtHash != generatedAt.Hash || p.Begin != nonces.Begin || p.End != nonces.End {
		return core.NonceRange{}, errors.New("receiving proof does not match the confirmed messages")
	}
	peer, err := lookup(l.config.Peer)
	if err != nil {
		return core.NonceRange{}, err
	}
	if generatedAt.Number > peer.bestFinalized() || generatedAt.Hash != headerHash(l.config.Peer, generatedAt.Number) {
		return core.NonceRange{}, errors.Newf("receiving proof is generated at unknown header %s", generatedAt)
	}
	if p.Digest != receivingDigest(p.ChainID, p.LaneID, nonces) {
		return core.NonceRange{}, errors.New("invalid receiving digest")
	}
	peer.mu.Lock()
	received := peer.received[l.ChainID()+"/"+l.config.ID]
	peer.mu.Unlock()
	if nonces.End > received {
		return core.NonceRange{}, errors.Newf("messages %s are not received by %s", nonces, l.config.Peer)
	}

	l.chain.mu.Lock()
	defer l.chain.mu.Unlock()
	confirmed := l.chain.confirmed[l.key()]
	if nonces.Begin != confirmed+1 {
		return core.NonceRange{}, errors.Newf("unexpected confirmation of %s: last confirmed message is %d", nonces, confirmed)
	}
	l.chain.confirmed[l.key()] = nonces.End
	l.chain.logger.DebugContext(ctx, "delivery confirmed", "lane", l.config.ID, "peer", l.config.Peer, "nonces", nonces.String())
	return nonces, nil
}

func (l *OutboundLane) ClientState(ctx context.Context) (core.ClientState, error) {
	if err := l.chain.request(); err != nil {
		return core.ClientState{}, err
	}
	return l.chain.clientState(l.config.Peer)
}

func (l *OutboundLane) Reconnect(ctx context.Context) error {
	return l.chain.Reconnect(ctx)
}

func (l *OutboundLane) String() string {
	best := l.chain.bestFinalized()
	return fmt.Sprintf("outbound lane %s of %s to %s: %d messages per block, %d messages sent at finalized block %d, %d confirmed",
		l.config.ID, l.ChainID(), l.config.Peer, l.config.MessagesPerBlock, l.latestNonce(best), best, l.Confirmed())
}

// InboundLane accepts messages of a peer chain in order
type InboundLane struct {
	chain  *Chain
	laneID string
	peer   string
}

var _ core.LaneTarget = (*InboundLane)(nil)

func (l *InboundLane) ChainID() string {
	return l.chain.ChainID()
}

func (l *InboundLane) key() string {
	return l.peer + "/" + l.laneID
}

// Received returns the nonce of the last received message
func (l *InboundLane) Received() core.MessageNonce {
	l.chain.mu.Lock()
	defer l.chain.mu.Unlock()
	return l.chain.received[l.key()]
}

func (l *InboundLane) LatestNonce(ctx context.Context, at core.HeaderID) (core.HeaderID, core.MessageNonce, error) {
	if err := l.chain.request(); err != nil {
		return core.HeaderID{}, 0, err
	}
	if err := l.chain.checkHeader(at); err != nil {
		return core.HeaderID{}, 0, err
	}
	return at, l.Received(), nil
}

func (l *InboundLane) SubmitProof(ctx context.Context, generatedAt core.HeaderID, nonces core.NonceRange, proof core.Proof) (core.NonceRange, error) {
	if err := l.chain.request(); err != nil {
		return core.NonceRange{}, err
	}
	var p messagesProof
	if err := rlp.DecodeBytes(proof, &p); err != nil {
		return core.NonceRange{}, errors.Wrap(err, "failed to decode messages proof")
	}
	if p.ChainID != l.peer || p.LaneID != l.laneID {
		return core.NonceRange{}, errors.Newf("proof of lane %s of %s is submitted to lane %s of %s", p.LaneID, p.ChainID, l.laneID, l.peer)
	}
	if p.At != generatedAt.Number || p.AtHash != generatedAt.Hash || p.Begin != nonces.Begin || p.End != nonces.End {
		return core.NonceRange{}, errors.New("proof does not match the submitted messages")
	}
	peer, err := lookup(l.peer)
	if err != nil {
		return core.NonceRange{}, err
	}
	if generatedAt.Number > peer.bestFinalized() || generatedAt.Hash != headerHash(l.peer, generatedAt.Number) {
		return core.NonceRange{}, errors.Newf("proof is generated at unknown header %s", generatedAt)
	}
	if p.Digest != messagesDigest(p.ChainID, p.LaneID, nonces) {
		return core.NonceRange{}, errors.New("invalid messages digest")
	}

	l.chain.mu.Lock()
	defer l.chain.mu.Unlock()
	received := l.chain.received[l.key()]
	if nonces.Begin != received+1 {
		return core.NonceRange{}, errors.Newf("unexpected messages %s: last received message is %d", nonces, received)
	}
	l.chain.received[l.key()] = nonces.End
	l.chain.logger.DebugContext(ctx, "messages received", "lane", l.laneID, "peer", l.peer, "nonces", nonces.String())
	return nonces, nil
}

func (l *InboundLane) ProveReceiving(ctx context.Context, at core.HeaderID, nonces core.NonceRange) (core.HeaderID, core.NonceRange, core.Proof, error) {
	if err := l.chain.request(); err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, err
	}
	if err := l.chain.checkHeader(at); err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, err
	}
	received := l.Received()
	if nonces.Begin == 0 || nonces.Begin > received || nonces.End < nonces.Begin {
		return core.HeaderID{}, core.NonceRange{}, nil, errors.Newf("messages %s are not received at %s", nonces, at)
	}
	nonces.End = min(nonces.End, received)
	proof, err := rlp.EncodeToBytes(&receivingProof{
		ChainID: l.ChainID(),
		LaneID:  l.laneID,
		At:      at.Number,
		AtHash:  at.Hash,
		Begin:   nonces.Begin,
		End:     nonces.End,
		Digest:  receivingDigest(l.ChainID(), l.laneID, nonces),
	})
	if err != nil {
		return core.HeaderID{}, core.NonceRange{}, nil, errors.Wrap(err, "failed to encode receiving proof")
	}
	return at, nonces, proof, nil
}

func (l *InboundLane) ClientState(ctx context.Context) (core.ClientState, error) {
	if err := l.chain.request(); err != nil {
		return core.ClientState{}, err
	}
	return l.chain.clientState(l.peer)
}

func (l *InboundLane) Reconnect(ctx context.Context) error {
	return l.chain.Reconnect(ctx)
}

func (l *InboundLane) String() string {
	return fmt.Sprintf("inbound lane %s of %s from %s: %d messages received", l.laneID, l.ChainID(), l.peer, l.Received())
}
