package cmd

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/spf13/cobra"
)

func modulesCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "show an info about the chain modules of the relayer",
		RunE:  noCommand,
	}

	cmd.AddCommand(
		showModulesCmd(ctx),
	)

	return cmd
}

// moduleInfo describes a chain module linked into the binary
type moduleInfo struct {
	Name         string   `json:"name" yaml:"name"`
	Path         string   `json:"path" yaml:"path"`
	Version      string   `json:"version" yaml:"version"`
	ChainConfigs []string `json:"chain_configs" yaml:"chain_configs"`
}

func showModulesCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Shows the modules included in the relayer and the chain config types they register",
		RunE: func(cmd *cobra.Command, args []string) error {
			bi, ok := debug.ReadBuildInfo()
			if !ok {
				return errors.New("could not read build info")
			}
			infos, err := collectModuleInfos(bi, ctx.Modules, core.RegisteredChainConfigTypes())
			if err != nil {
				return err
			}
			return printOutput(cmd, infos)
		},
	}
	return yamlFlag(cmd)
}

// collectModuleInfos resolves the Go module of every relayer module and checks that its
// chain config types are registered
func collectModuleInfos(bi *debug.BuildInfo, modules []config.ModuleI, registered []string) ([]moduleInfo, error) {
	infos := make([]moduleInfo, 0, len(modules))
	for _, m := range modules {
		path, version, err := resolveGoModule(bi, m)
		if err != nil {
			return nil, err
		}
		types := slices.Clone(m.ChainConfigTypes())
		slices.Sort(types)
		for _, t := range types {
			if !slices.Contains(registered, t) {
				return nil, errors.Newf("chain config type %s of module %s is not registered", t, m.Name())
			}
		}
		infos = append(infos, moduleInfo{Name: m.Name(), Path: path, Version: version, ChainConfigs: types})
	}
	slices.SortFunc(infos, func(a, b moduleInfo) int { return strings.Compare(a.Name, b.Name) })
	return infos, nil
}

func resolveGoModule(bi *debug.BuildInfo, m config.ModuleI) (string, string, error) {
	if bi == nil {
		return "", "", errors.New("build info is unavailable")
	}
	pkgPath := reflect.TypeOf(m).PkgPath()
	if strings.HasPrefix(pkgPath, bi.Main.Path) {
		return bi.Main.Path, bi.Main.Version, nil
	}
	i := slices.IndexFunc(bi.Deps, func(dm *debug.Module) bool {
		return strings.HasPrefix(pkgPath, dm.Path)
	})
	if i == -1 {
		return "", "", fmt.Errorf("could not find go module of %s", m.Name())
	}
	dep := bi.Deps[i]
	if dep.Replace != nil {
		return dep.Replace.Path, dep.Replace.Version, nil
	}
	return dep.Path, dep.Version, nil
}
