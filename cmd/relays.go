package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/spf13/cobra"
)

func relaysCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relays",
		Aliases: []string{"rl"},
		Short:   "manage relay configurations",
		RunE:    noCommand,
	}

	cmd.AddCommand(
		relaysListCmd(ctx),
		relaysShowCmd(ctx),
	)

	return cmd
}

func relaysListCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "Lists the configured relays",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			asYAML, err := cmd.Flags().GetBool(flagYAML)
			if err != nil {
				return err
			}
			switch {
			case asJSON && asYAML:
				return fmt.Errorf("can't pass both --json and --yaml, must pick one")
			case asJSON:
				out, err := json.MarshalIndent(ctx.Config.Relays, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			case asYAML:
				out, err := config.MarshalYAML(ctx.Config.Relays)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			default:
				for i, r := range ctx.Config.Relays {
					lane := ""
					if r.Lane != "" {
						lane = " lane(" + r.Lane + ")"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%2d: %-20s -> %s: %s -> %s%s\n", i, r.Name, r.Type, r.Source, r.Target, lane)
				}
			}
			return nil
		},
	}
	return yamlFlag(jsonFlag(cmd))
}

func relaysShowCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show [relay-name]",
		Aliases: []string{"s"},
		Short:   "Shows the configuration of a relay",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.Config.GetRelay(args[0])
			if err != nil {
				return err
			}
			asYAML, err := cmd.Flags().GetBool(flagYAML)
			if err != nil {
				return err
			}
			var out []byte
			if asYAML {
				out, err = config.MarshalYAML(r)
			} else {
				out, err = json.MarshalIndent(r, "", "  ")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return yamlFlag(cmd)
}
