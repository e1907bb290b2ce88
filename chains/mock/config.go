package mock

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
)

// TypeURL is the "@type" of mock chain configurations
const TypeURL = "/relayer.chains.mock.config.ChainConfig"

const defaultBlockTime = 6 * time.Second

var _ core.ChainConfig = (*ChainConfig)(nil)

type ChainConfig struct {
	ChainID string `json:"chain_id" yaml:"chain_id"`
	// BlockTime is the interval of block production
	BlockTime string `json:"block_time,omitempty" yaml:"block_time,omitempty"`
	// GenesisTime is the production time of the genesis block in RFC 3339. The time of Init is used if empty.
	GenesisTime string `json:"genesis_time,omitempty" yaml:"genesis_time,omitempty"`
	// FinalityLag is the number of blocks between the best block and the best finalized block
	FinalityLag uint64       `json:"finality_lag,omitempty" yaml:"finality_lag,omitempty"`
	Lanes       []LaneConfig `json:"lanes,omitempty" yaml:"lanes,omitempty"`
	// Authorities sign the finality proofs of the chain
	Authorities []string `json:"authorities,omitempty" yaml:"authorities,omitempty"`
	// EquivocateEvery makes the first authority sign a conflicting vote for every n-th block
	EquivocateEvery uint64 `json:"equivocate_every,omitempty" yaml:"equivocate_every,omitempty"`
	// ConnectionErrorEvery makes every n-th request to the chain fail with a connection error
	ConnectionErrorEvery uint64 `json:"connection_error_every,omitempty" yaml:"connection_error_every,omitempty"`
	// ReceiptsEvery makes every n-th header of peer chains require receipts on import
	ReceiptsEvery uint64 `json:"receipts_every,omitempty" yaml:"receipts_every,omitempty"`
}

// LaneConfig is an outbound message lane
type LaneConfig struct {
	ID string `json:"id" yaml:"id"`
	// Peer is the chain ID of the receiving chain
	Peer             string `json:"peer" yaml:"peer"`
	MessagesPerBlock uint64 `json:"messages_per_block" yaml:"messages_per_block"`
}

func (c ChainConfig) Build() (core.Chain, error) {
	return NewChain(c)
}

func (c ChainConfig) Validate() error {
	var errs []error
	if c.ChainID == "" {
		errs = append(errs, errors.New("config attribute \"chain_id\" is empty"))
	}
	if c.BlockTime != "" {
		if d, err := time.ParseDuration(c.BlockTime); err != nil {
			errs = append(errs, errors.Wrap(err, "config attribute \"block_time\" is invalid"))
		} else if d <= 0 {
			errs = append(errs, errors.New("config attribute \"block_time\" must be positive"))
		}
	}
	if c.GenesisTime != "" {
		if _, err := time.Parse(time.RFC3339, c.GenesisTime); err != nil {
			errs = append(errs, errors.Wrap(err, "config attribute \"genesis_time\" is invalid"))
		}
	}
	seen := make(map[string]struct{})
	for i, l := range c.Lanes {
		if l.ID == "" || l.Peer == "" {
			errs = append(errs, errors.Newf("config attribute \"lanes[%d]\" needs an id and a peer", i))
		}
		if l.Peer == c.ChainID {
			errs = append(errs, errors.Newf("config attribute \"lanes[%d]\" must not point to the chain itself", i))
		}
		key := l.Peer + "/" + l.ID
		if _, ok := seen[key]; ok {
			errs = append(errs, errors.Newf("lane %s to %s is duplicated", l.ID, l.Peer))
		}
		seen[key] = struct{}{}
	}
	if c.EquivocateEvery > 0 && len(c.Authorities) == 0 {
		errs = append(errs, errors.New("config attribute \"equivocate_every\" needs at least one authority"))
	}
	return errors.Join(errs...)
}

func (c ChainConfig) blockTime() time.Duration {
	if c.BlockTime == "" {
		return defaultBlockTime
	}
	d, _ := time.ParseDuration(c.BlockTime)
	return d
}

func (c ChainConfig) lane(id, peer string) (LaneConfig, bool) {
	for _, l := range c.Lanes {
		if l.ID == id && l.Peer == peer {
			return l, true
		}
	}
	return LaneConfig{}, false
}

// RegisterChainConfig registers the mock chain configuration type
func RegisterChainConfig() {
	core.RegisterChainConfig(TypeURL, func() core.ChainConfig { return &ChainConfig{} })
}
