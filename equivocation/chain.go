package equivocation

import "github.com/hyperledger-labs/yui-bridge-relayer/core"

// SourceChain is a chain whose validators are watched for equivocations
type SourceChain interface {
	core.Chain
	EquivocationSource(peerChainID string) (SourceClient, error)
}

// TargetChain is a chain that imports finality proofs of peer chains
type TargetChain interface {
	core.Chain
	EquivocationTarget(peerChainID string) (TargetClient, error)
}
