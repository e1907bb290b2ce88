package config

import (
	"github.com/spf13/cobra"
)

// ModuleI defines an interface of Module
type ModuleI interface {
	// Name returns the name of the module
	Name() string

	// RegisterChainConfigs registers the chain configuration types of the module
	RegisterChainConfigs()

	// ChainConfigTypes returns the type URLs registered by RegisterChainConfigs
	ChainConfigTypes() []string

	// GetCmd returns the command
	GetCmd(ctx *Context) *cobra.Command
}
