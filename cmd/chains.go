package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/spf13/cobra"
)

func chainsCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chains",
		Short: "manage chain configurations",
		RunE:  noCommand,
	}

	cmd.AddCommand(
		chainsListCmd(ctx),
		chainsAddDirCmd(ctx),
	)

	return cmd
}

func chainsListCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "Lists the configured chains",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			if asJSON {
				out, err := json.MarshalIndent(ctx.Config.Chains, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			for i, chain := range ctx.Config.GetChains() {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d: %-20s -> type(%s)\n", i, chain.ChainID(), ctx.Config.Chains[i].TypeURL())
			}
			return nil
		},
	}
	return jsonFlag(cmd)
}

func chainsAddDirCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:  "add-dir [dir]",
		Args: cobra.ExactArgs(1),
		Short: `Add new chains to the configuration file from a directory
		full of chain configuration, useful for adding testnet configurations`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := filesAdd(cmd, ctx, args[0]); err != nil {
				return err
			}
			return overWriteConfig(ctx)
		},
	}

	return cmd
}

func filesAdd(cmd *cobra.Command, ctx *config.Context, dir string) error {
	dir = path.Clean(dir)
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		pth := fmt.Sprintf("%s/%s", dir, f.Name())
		if f.IsDir() {
			fmt.Fprintf(cmd.OutOrStdout(), "directory at %s, skipping...\n", pth)
			continue
		}
		byt, err := os.ReadFile(pth)
		if err != nil {
			return fmt.Errorf("failed to read file %s, error: %v", pth, err)
		}
		var c core.AnyChainConfig
		if err := json.Unmarshal(byt, &c); err != nil {
			return fmt.Errorf("failed to unmarshal file %s, error: %v", pth, err)
		}
		if err := c.Init(); err != nil {
			return fmt.Errorf("failed to init chain %s, error: %v", pth, err)
		}
		cc, err := c.GetChainConfig()
		if err != nil {
			return err
		}
		if err = ctx.Config.AddChain(c.TypeURL(), cc, ctx.HomePath, debug); err != nil {
			return fmt.Errorf("failed to add chain %s, error: %v", pth, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s...\n", pth)
	}
	return nil
}

func overWriteConfig(ctx *config.Context) error {
	// marshal the new config
	out, err := config.MarshalJSON(*ctx.Config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(ctx.Config.ConfigPath), os.ModePerm); err != nil {
		return err
	}
	// overwrite the config file
	return os.WriteFile(ctx.Config.ConfigPath, out, 0600)
}
