package mock

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
	"golang.org/x/crypto/blake2b"
)

// chains are the initialized mock chains of the process. Chains read the state of their peers
// from here.
var chains = struct {
	sync.RWMutex
	m map[string]*Chain
}{m: make(map[string]*Chain)}

func register(c *Chain) {
	chains.Lock()
	defer chains.Unlock()
	chains.m[c.ChainID()] = c
}

func lookup(chainID string) (*Chain, error) {
	chains.RLock()
	defer chains.RUnlock()
	c, ok := chains.m[chainID]
	if !ok {
		return nil, errors.Newf("mock chain %s is not initialized", chainID)
	}
	return c, nil
}

// Chain is a simulated chain that produces a block every block time. Headers, messages and
// finality proofs of the chain are derived from the block number, so any process sees the
// same chain.
type Chain struct {
	config    ChainConfig
	blockTime time.Duration
	now       func() time.Time
	genesis   time.Time
	logger    *log.RelayLogger

	mu       sync.Mutex
	requests uint64
	// received nonces of inbound lanes by peer and lane
	received map[string]core.MessageNonce
	// confirmed nonces of outbound lanes by peer and lane
	confirmed map[string]core.MessageNonce
	// headers of peer chains imported by the chain
	imported map[string]*importedHeaders
	reports  []string
}

var (
	_ core.MessageLaneChain = (*Chain)(nil)
)

func NewChain(config ChainConfig) (*Chain, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Chain{
		config:    config,
		blockTime: config.blockTime(),
		now:       time.Now,
		logger:    core.GetChainLogger(config.ChainID),
		received:  make(map[string]core.MessageNonce),
		confirmed: make(map[string]core.MessageNonce),
		imported:  make(map[string]*importedHeaders),
	}, nil
}

func (c *Chain) ChainID() string {
	return c.config.ChainID
}

func (c *Chain) Config() ChainConfig {
	return c.config
}

// Init fixes the genesis time of the chain and makes it visible to its peers
func (c *Chain) Init(_ string, _ time.Duration, _ bool) error {
	c.logger = core.GetChainLogger(c.ChainID())
	if c.config.GenesisTime != "" {
		t, err := time.Parse(time.RFC3339, c.config.GenesisTime)
		if err != nil {
			return err
		}
		c.genesis = t
	} else {
		c.genesis = c.now()
	}
	register(c)
	return nil
}

func (c *Chain) Reconnect(ctx context.Context) error {
	c.logger.InfoContext(ctx, "reconnected")
	return nil
}

// request counts a request to the chain and fails every n-th one with a connection error
func (c *Chain) request() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	if every := c.config.ConnectionErrorEvery; every > 0 && c.requests%every == 0 {
		return core.NewConnectionError(errors.Newf("%s: connection reset by peer", c.ChainID()))
	}
	return nil
}

// numberAt returns the number of the best block at the given time
func (c *Chain) numberAt(t time.Time) (uint64, bool) {
	if t.Before(c.genesis) {
		return 0, false
	}
	return uint64(t.Sub(c.genesis) / c.blockTime), true
}

// finalizedAt returns the number of the best finalized block at the given time
func (c *Chain) finalizedAt(t time.Time) (uint64, bool) {
	n, ok := c.numberAt(t)
	if !ok {
		return 0, false
	}
	if n < c.config.FinalityLag {
		return 0, true
	}
	return n - c.config.FinalityLag, true
}

// timeOf returns the production time of the block
func (c *Chain) timeOf(number uint64) time.Time {
	return c.genesis.Add(time.Duration(number) * c.blockTime)
}

func (c *Chain) bestNumber() uint64 {
	n, _ := c.numberAt(c.now())
	return n
}

func (c *Chain) bestFinalized() uint64 {
	n, _ := c.finalizedAt(c.now())
	return n
}

func (c *Chain) headerID(number uint64) core.HeaderID {
	return core.NewHeaderID(number, headerHash(c.ChainID(), number))
}

// checkHeader returns an error if the header is not produced by the chain
func (c *Chain) checkHeader(id core.HeaderID) error {
	if id.Number > c.bestNumber() || id.Hash != headerHash(c.ChainID(), id.Number) {
		return errors.Newf("unknown header %s of chain %s", id, c.ChainID())
	}
	return nil
}

// clientState returns the best finalized headers of the chain and its peer
func (c *Chain) clientState(peerChainID string) (core.ClientState, error) {
	peer, err := lookup(peerChainID)
	if err != nil {
		return core.ClientState{}, err
	}
	return core.ClientState{
		BestSelf: c.headerID(c.bestFinalized()),
		BestPeer: peer.headerID(peer.bestFinalized()),
	}, nil
}

func headerHash(chainID string, number uint64) common.Hash {
	var bz [8]byte
	binary.BigEndian.PutUint64(bz[:], number)
	return common.Hash(blake2b.Sum256(append([]byte(chainID+"/header/"), bz[:]...)))
}

// forkHeaderHash is the hash of a header that is never produced by the chain
func forkHeaderHash(chainID string, number uint64) common.Hash {
	return headerHash(chainID+"/fork", number)
}
