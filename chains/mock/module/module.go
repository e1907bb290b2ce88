package module

import (
	"github.com/hyperledger-labs/yui-bridge-relayer/chains/mock"
	"github.com/hyperledger-labs/yui-bridge-relayer/chains/mock/cmd"
	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/spf13/cobra"
)

type Module struct{}

var _ config.ModuleI = (*Module)(nil)

// Name returns the name of the module
func (Module) Name() string {
	return "mock"
}

// RegisterChainConfigs registers the mock chain configuration type
func (Module) RegisterChainConfigs() {
	mock.RegisterChainConfig()
}

// ChainConfigTypes returns the type of the mock chain configuration
func (Module) ChainConfigTypes() []string {
	return []string{mock.TypeURL}
}

// GetCmd returns the command
func (Module) GetCmd(ctx *config.Context) *cobra.Command {
	return cmd.MockCmd(ctx)
}
