package cmd

import (
	"fmt"

	"github.com/hyperledger-labs/yui-bridge-relayer/chains/mock"
	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/coreutil"
	"github.com/spf13/cobra"
)

// MockCmd returns the commands of simulated chains
func MockCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "manage simulated chains",
	}

	cmd.AddCommand(
		laneCmd(ctx),
	)

	return cmd
}

func laneCmd(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "lane [relay-name]",
		Short: "Shows both ends of the message lane of a relay between simulated chains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, target, err := ctx.Config.MessageLane(args[0])
			if err != nil {
				return err
			}
			outbound, err := coreutil.UnwrapLaneSource[*mock.OutboundLane](source)
			if err != nil {
				return err
			}
			inbound, err := coreutil.UnwrapLaneTarget[*mock.InboundLane](target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outbound.String())
			fmt.Fprintln(cmd.OutOrStdout(), inbound.String())
			return nil
		},
	}
}
