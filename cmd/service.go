package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

func serviceCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Relay Service Commands",
		Long:  "Commands to manage the relay service",
		RunE:  noCommand,
	}
	cmd.AddCommand(
		startCmd(ctx),
	)
	return cmd
}

func startCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [relay-name...]",
		Short: "Runs the given relays, or every configured relay if none is given, until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := telemetry.InitializeMetrics(); err != nil {
				return fmt.Errorf("failed to initialize the metrics: %w", err)
			}
			params, err := ctx.Config.Global.ServiceParams()
			if err != nil {
				return err
			}
			relays, err := ctx.Config.BuildRelays(args...)
			if err != nil {
				return err
			}
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, unix.SIGTERM)
			defer stop()
			return core.StartService(sigCtx, params, relays...)
		},
	}
	return prometheusAddrFlag(cmd)
}
