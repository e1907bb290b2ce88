package equivocation

// DefaultMaxBufferedProofs is the maximal number of finality proofs kept in the buffer
const DefaultMaxBufferedProofs = 100

// proofsBuffer holds finality proofs observed at the source ordered by their header numbers
type proofsBuffer struct {
	proofs []FinalityProof
}

// fill moves all proofs that are immediately available in the stream to the buffer, dropping the
// oldest ones beyond limit. It returns false when the stream is closed.
func (b *proofsBuffer) fill(stream <-chan FinalityProof, limit int) bool {
	for {
		select {
		case proof, ok := <-stream:
			if !ok {
				return false
			}
			b.proofs = append(b.proofs, proof)
			if limit > 0 && len(b.proofs) > limit {
				b.proofs = b.proofs[len(b.proofs)-limit:]
			}
		default:
			return true
		}
	}
}

// prune drops the proofs of headers up to the synced header and keeps at most limit proofs
func (b *proofsBuffer) prune(synced uint64, limit int) {
	first := 0
	for first < len(b.proofs) && b.proofs[first].TargetHeaderNumber() <= synced {
		first++
	}
	if limit > 0 && len(b.proofs)-first > limit {
		first = len(b.proofs) - limit
	}
	b.proofs = append([]FinalityProof(nil), b.proofs[first:]...)
}

func (b *proofsBuffer) len() int {
	return len(b.proofs)
}
