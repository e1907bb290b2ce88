package mock

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/headersync"
	"golang.org/x/crypto/blake2b"
)

var (
	_ headersync.SourceChain = (*Chain)(nil)
	_ headersync.TargetChain = (*Chain)(nil)
)

// header returns the header of the chain with the given number
func (c *Chain) header(number uint64) *headersync.Header {
	h := &headersync.Header{
		Number: number,
		Hash:   headerHash(c.ChainID(), number),
		Data:   []byte(c.timeOf(number).UTC().Format("2006-01-02T15:04:05.000Z")),
	}
	if number > 0 {
		h.ParentHash = headerHash(c.ChainID(), number-1)
	}
	return h
}

// receipts returns a receipt for every message sent in the block
func (c *Chain) receipts(number uint64) []*headersync.Receipt {
	var (
		receipts = []*headersync.Receipt{}
		gasUsed  uint64
		bz       [8]byte
	)
	binary.BigEndian.PutUint64(bz[:], number)
	for _, l := range c.config.Lanes {
		for i := uint64(0); i < l.MessagesPerBlock; i++ {
			gasUsed += 21000
			receipts = append(receipts, &headersync.Receipt{
				TxHash:            common.Hash(blake2b.Sum256(append([]byte(c.ChainID()+"/"+l.ID+"/tx/"), append(bz[:], byte(i))...))),
				Status:            1,
				CumulativeGasUsed: gasUsed,
			})
		}
	}
	return receipts
}

func (c *Chain) HeaderSource(peerChainID string) (headersync.SourceClient, error) {
	return &HeaderSource{chain: c}, nil
}

func (c *Chain) HeaderTarget(peerChainID string) (headersync.TargetClient, error) {
	if peerChainID == c.ChainID() {
		return nil, errors.Newf("chain %s can't import its own headers", c.ChainID())
	}
	return &HeaderTarget{chain: c, peer: peerChainID}, nil
}

// HeaderSource serves the headers of the chain
type HeaderSource struct {
	chain *Chain
}

var _ headersync.SourceClient = (*HeaderSource)(nil)

func (s *HeaderSource) ChainID() string {
	return s.chain.ChainID()
}

func (s *HeaderSource) BestBlockNumber(ctx context.Context) (uint64, error) {
	if err := s.chain.request(); err != nil {
		return 0, err
	}
	return s.chain.bestNumber(), nil
}

func (s *HeaderSource) HeaderByHash(ctx context.Context, hash common.Hash) (*headersync.Header, error) {
	if err := s.chain.request(); err != nil {
		return nil, err
	}
	// recent headers are requested most of the time
	for n := s.chain.bestNumber(); ; n-- {
		if headerHash(s.ChainID(), n) == hash {
			return s.chain.header(n), nil
		}
		if n == 0 {
			return nil, errors.Newf("header %s is not found", hash.Hex())
		}
	}
}

func (s *HeaderSource) HeaderByNumber(ctx context.Context, number uint64) (*headersync.Header, error) {
	if err := s.chain.request(); err != nil {
		return nil, err
	}
	if number > s.chain.bestNumber() {
		return nil, errors.Newf("header %d is not produced yet", number)
	}
	return s.chain.header(number), nil
}

func (s *HeaderSource) Receipts(ctx context.Context, id core.HeaderID) ([]*headersync.Receipt, error) {
	if err := s.chain.request(); err != nil {
		return nil, err
	}
	if err := s.chain.checkHeader(id); err != nil {
		return nil, err
	}
	return s.chain.receipts(id.Number), nil
}

func (s *HeaderSource) Reconnect(ctx context.Context) error {
	return s.chain.Reconnect(ctx)
}

// importedHeaders are the headers of a peer chain imported by the chain
type importedHeaders struct {
	known map[common.Hash]uint64
	best  core.HeaderID
}

// HeaderTarget imports headers of a peer chain. The genesis header of the peer is known from
// the start.
type HeaderTarget struct {
	chain *Chain
	peer  string
}

var _ headersync.TargetClient = (*HeaderTarget)(nil)

func (t *HeaderTarget) ChainID() string {
	return t.chain.ChainID()
}

// headers must be called with the lock held
func (t *HeaderTarget) headers() *importedHeaders {
	imported, ok := t.chain.imported[t.peer]
	if !ok {
		genesis := core.NewHeaderID(0, headerHash(t.peer, 0))
		imported = &importedHeaders{
			known: map[common.Hash]uint64{genesis.Hash: 0},
			best:  genesis,
		}
		t.chain.imported[t.peer] = imported
	}
	return imported
}

func (t *HeaderTarget) BestHeaderID(ctx context.Context) (core.HeaderID, error) {
	if err := t.chain.request(); err != nil {
		return core.HeaderID{}, err
	}
	t.chain.mu.Lock()
	defer t.chain.mu.Unlock()
	return t.headers().best, nil
}

func (t *HeaderTarget) IsKnownHeader(ctx context.Context, id core.HeaderID) (bool, error) {
	if err := t.chain.request(); err != nil {
		return false, err
	}
	t.chain.mu.Lock()
	defer t.chain.mu.Unlock()
	number, ok := t.headers().known[id.Hash]
	return ok && number == id.Number, nil
}

func (t *HeaderTarget) RequiresReceipts(ctx context.Context, header *headersync.QueuedHeader) (bool, error) {
	if err := t.chain.request(); err != nil {
		return false, err
	}
	return t.requiresReceipts(header.Header().Number), nil
}

func (t *HeaderTarget) requiresReceipts(number uint64) bool {
	every := t.chain.config.ReceiptsEvery
	return every > 0 && number%every == 0
}

func (t *HeaderTarget) SubmitHeaders(ctx context.Context, headers []*headersync.QueuedHeader) ([]core.HeaderID, error) {
	if err := t.chain.request(); err != nil {
		return nil, err
	}
	t.chain.mu.Lock()
	defer t.chain.mu.Unlock()

	imported := t.headers()
	var submitted []core.HeaderID
	for _, qh := range headers {
		h := qh.Header()
		if h.Hash != headerHash(t.peer, h.Number) {
			return submitted, errors.Newf("invalid header %s", h.ID())
		}
		if number, ok := imported.known[h.ParentHash]; !ok || number+1 != h.Number {
			return submitted, errors.Newf("parent of header %s is not imported", h.ID())
		}
		if t.requiresReceipts(h.Number) && qh.Receipts() == nil {
			return submitted, errors.Newf("header %s is submitted without receipts", h.ID())
		}
		imported.known[h.Hash] = h.Number
		if h.Number > imported.best.Number {
			imported.best = h.ID()
		}
		submitted = append(submitted, h.ID())
	}
	t.chain.logger.DebugContext(ctx, "headers imported", "peer", t.peer, "count", len(submitted), "best", imported.best.String())
	return submitted, nil
}

func (t *HeaderTarget) Reconnect(ctx context.Context) error {
	return t.chain.Reconnect(ctx)
}
