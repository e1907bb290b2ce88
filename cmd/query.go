package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/spf13/cobra"
)

// queryCmd represents the chain command
func queryCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query Commands",
		Long:  "Commands to query the states of configured chains and relays.",
		RunE:  noCommand,
	}

	cmd.AddCommand(
		queryStateCmd(ctx),
		queryNoncesCmd(ctx),
	)

	return cmd
}

type nonces struct {
	Relay       string            `json:"relay" yaml:"relay"`
	Source      core.ClientState  `json:"source" yaml:"source"`
	Target      core.ClientState  `json:"target" yaml:"target"`
	LatestSent  core.MessageNonce `json:"latest_sent" yaml:"latest_sent"`
	LatestRecv  core.MessageNonce `json:"latest_received" yaml:"latest_received"`
	LatestConf  core.MessageNonce `json:"latest_confirmed" yaml:"latest_confirmed"`
	Undelivered uint64            `json:"undelivered" yaml:"undelivered"`
	Deliverable *core.NonceRange  `json:"deliverable,omitempty" yaml:"deliverable,omitempty"`
}

func queryStateCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state [relay-name]",
		Short: "Query the states of both chains of a messages relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, target, err := ctx.Config.MessageLane(args[0])
			if err != nil {
				return err
			}
			srcState, err := source.ClientState(cmd.Context())
			if err != nil {
				return err
			}
			dstState, err := target.ClientState(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd, map[string]core.ClientState{
				source.ChainID(): srcState,
				target.ChainID(): dstState,
			})
		},
	}
	return yamlFlag(cmd)
}

func queryNoncesCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nonces [relay-name]",
		Short: "Query the latest nonces sent and confirmed at the source and received at the target of a messages relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, target, err := ctx.Config.MessageLane(args[0])
			if err != nil {
				return err
			}
			srcState, err := source.ClientState(cmd.Context())
			if err != nil {
				return err
			}
			dstState, err := target.ClientState(cmd.Context())
			if err != nil {
				return err
			}
			_, sent, err := source.LatestNonce(cmd.Context(), srcState.BestSelf)
			if err != nil {
				return err
			}
			_, received, err := target.LatestNonce(cmd.Context(), dstState.BestSelf)
			if err != nil {
				return err
			}
			_, confirmed, err := source.LatestConfirmedNonce(cmd.Context(), srcState.BestSelf)
			if err != nil {
				return err
			}

			res := nonces{
				Relay:      args[0],
				Source:     srcState,
				Target:     dstState,
				LatestSent: sent,
				LatestRecv: received,
				LatestConf: confirmed,
			}
			if sent > received {
				res.Undelivered = sent - received
				// only messages sent at the source header known to the target can be proven
				_, provable, err := source.LatestNonce(cmd.Context(), dstState.BestPeer)
				if err == nil && provable > received {
					r := core.NewNonceRange(received+1, provable)
					res.Deliverable = &r
				}
			}
			return printOutput(cmd, res)
		},
	}
	return yamlFlag(cmd)
}

func printOutput(cmd *cobra.Command, v any) error {
	asYAML, err := cmd.Flags().GetBool(flagYAML)
	if err != nil {
		return err
	}
	var out []byte
	if asYAML {
		out, err = config.MarshalYAML(v)
	} else {
		out, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
