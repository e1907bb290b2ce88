package core

import "math"

// DefaultMaxMessagesInBatch is the default limit of messages delivered by a single proof
const DefaultMaxMessagesInBatch = 4

type queuedNonce struct {
	at    HeaderID
	nonce MessageNonce
}

var _ RaceStrategy = (*MessageDeliveryStrategy)(nil)

// MessageDeliveryStrategy selects contiguous ranges of message nonces to be delivered to the
// target chain. A nonce is only selected once the source header it was read at is known to the
// target chain, so that the target is able to verify the proof.
type MessageDeliveryStrategy struct {
	maxMessagesInBatch uint64

	// sourceQueue holds (header, nonce) pairs where the nonce is the latest one sent by the header.
	// Nonces are strictly increasing and greater than targetNonce.
	sourceQueue []queuedNonce

	targetNonce      MessageNonce
	targetNonceKnown bool

	// maxUnconfirmed limits the messages received by the target whose delivery is not confirmed
	// at the source. Zero means no limit.
	maxUnconfirmed uint64
	confirmed      func() (MessageNonce, bool)
}

func NewMessageDeliveryStrategy(maxMessagesInBatch uint64) *MessageDeliveryStrategy {
	if maxMessagesInBatch == 0 {
		maxMessagesInBatch = DefaultMaxMessagesInBatch
	}
	return &MessageDeliveryStrategy{
		maxMessagesInBatch: maxMessagesInBatch,
	}
}

// NewMessageReceivingStrategy returns the strategy of the race confirming deliveries at the source
// chain. A single proof confirms every message received by the target.
func NewMessageReceivingStrategy() *MessageDeliveryStrategy {
	return NewMessageDeliveryStrategy(math.MaxUint64)
}

// WithUnconfirmedLimit stops the delivery while maxUnconfirmed messages are received by the target and not
// confirmed at the source. confirmed returns the latest confirmed nonce, if it is known.
func (s *MessageDeliveryStrategy) WithUnconfirmedLimit(maxUnconfirmed uint64, confirmed func() (MessageNonce, bool)) *MessageDeliveryStrategy {
	s.maxUnconfirmed = maxUnconfirmed
	s.confirmed = confirmed
	return s
}

func (s *MessageDeliveryStrategy) IsEmpty() bool {
	return len(s.sourceQueue) == 0
}

func (s *MessageDeliveryStrategy) BestAtSource() (MessageNonce, bool) {
	if n := len(s.sourceQueue); n > 0 {
		return s.sourceQueue[n-1].nonce, true
	}
	return s.targetNonce, s.targetNonceKnown
}

func (s *MessageDeliveryStrategy) BestAtTarget() (MessageNonce, bool) {
	return s.targetNonce, s.targetNonceKnown
}

func (s *MessageDeliveryStrategy) SourceNonceUpdated(at HeaderID, nonce MessageNonce) {
	if nonce <= s.targetNonce {
		return
	}
	if n := len(s.sourceQueue); n > 0 && nonce <= s.sourceQueue[n-1].nonce {
		return
	}
	s.sourceQueue = append(s.sourceQueue, queuedNonce{at: at, nonce: nonce})
}

func (s *MessageDeliveryStrategy) TargetNonceUpdated(nonce MessageNonce, raceState *RaceState) {
	s.targetNonceKnown = true
	if nonce < s.targetNonce {
		return
	}

	i := 0
	for i < len(s.sourceQueue) && s.sourceQueue[i].nonce <= nonce {
		i++
	}
	s.sourceQueue = s.sourceQueue[i:]

	if batch := raceState.NoncesToSubmit; batch != nil && batch.Nonces.End <= nonce {
		raceState.NoncesToSubmit = nil
	}
	if submitted := raceState.NoncesSubmitted; submitted != nil && submitted.End <= nonce {
		raceState.NoncesSubmitted = nil
	}

	s.targetNonce = nonce
}

func (s *MessageDeliveryStrategy) ResetBestTargetNonce() {
	s.targetNonceKnown = false
}

func (s *MessageDeliveryStrategy) SelectNoncesToDeliver(raceState *RaceState) (NonceRange, bool) {
	if !raceState.IsIdle() {
		return NonceRange{}, false
	}
	bestPeer, ok := raceState.BestPeerAtTarget()
	if !ok || s.targetNonce == math.MaxUint64 {
		return NonceRange{}, false
	}

	begin := s.targetNonce + 1
	end := s.targetNonce
	for _, queued := range s.sourceQueue {
		if queued.at.Number > bestPeer.Number {
			break
		}
		end = queued.nonce
	}
	if end < begin {
		return NonceRange{}, false
	}
	if end-begin >= s.maxMessagesInBatch {
		end = begin + s.maxMessagesInBatch - 1
	}
	if s.maxUnconfirmed > 0 && s.confirmed != nil {
		confirmed, known := s.confirmed()
		if !known {
			return NonceRange{}, false
		}
		limit := confirmed + s.maxUnconfirmed
		if limit < confirmed {
			limit = math.MaxUint64
		}
		if end > limit {
			end = limit
		}
		if end < begin {
			return NonceRange{}, false
		}
	}
	return NewNonceRange(begin, end), true
}
