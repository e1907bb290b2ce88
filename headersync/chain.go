package headersync

import "github.com/hyperledger-labs/yui-bridge-relayer/core"

// SourceChain is a chain whose headers are synced to peer chains
type SourceChain interface {
	core.Chain
	HeaderSource(peerChainID string) (SourceClient, error)
}

// TargetChain is a chain that imports headers of peer chains
type TargetChain interface {
	core.Chain
	HeaderTarget(peerChainID string) (TargetClient, error)
}
