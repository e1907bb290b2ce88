package cmd

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName    = "yrly-bridge"
	envPrefix  = "YRLY"
	configPath = "config/config.json"
)

var (
	homePath    string
	debug       bool
	defaultHome = os.ExpandEnv("$HOME/.yrly-bridge")
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(modules ...config.ModuleI) error {
	// rootCmd represents the base command when called without any subcommands
	var rootCmd = &cobra.Command{
		Use:   appName,
		Short: "This application relays messages, headers and equivocation reports between configured chains",
	}

	cobra.EnableCommandSorting = false
	rootCmd.SilenceUsage = true

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Register top level flags --home and --debug
	rootCmd.PersistentFlags().StringVar(&homePath, flagHome, defaultHome, "set home directory")
	rootCmd.PersistentFlags().BoolVarP(&debug, flagDebug, "d", false, "debug output")
	rootCmd.PersistentFlags().String(flagLogLevel, "", "log level (DEBUG|INFO|WARN|ERROR), overrides the config file")
	rootCmd.PersistentFlags().String(flagLogFormat, "", "log format (text|json), overrides the config file")
	rootCmd.PersistentFlags().String(flagLogOutput, "", "log output (stdout|stderr), overrides the config file")
	rootCmd.PersistentFlags().Bool(flagEnableTelemetry, false, "enable OpenTelemetry")
	if err := bindFlags(rootCmd.PersistentFlags(), flagHome, flagDebug, flagLogLevel, flagLogFormat, flagLogOutput, flagEnableTelemetry); err != nil {
		return err
	}

	for _, module := range modules {
		module.RegisterChainConfigs()
	}
	ctx := &config.Context{Modules: modules, Config: &config.Config{}}

	var shutdownTelemetry func(context.Context) error
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		homePath = viper.GetString(flagHome)
		debug = viper.GetBool(flagDebug)
		ctx.HomePath = homePath
		prometheusAddr := viper.GetString(flagPrometheusAddr)
		switch {
		case viper.GetBool(flagEnableTelemetry):
			shutdown, err := telemetry.SetupOTelSDK(cmd.Context(), telemetry.WithPrometheusAddr(prometheusAddr))
			if err != nil {
				return err
			}
			shutdownTelemetry = shutdown
		case prometheusAddr != "":
			shutdown, err := telemetry.SetupPrometheusMetrics(prometheusAddr)
			if err != nil {
				return err
			}
			shutdownTelemetry = shutdown
		}
		// reads `homeDir/config/config.json` into `ctx.Config` before each command
		return initConfig(ctx)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if shutdownTelemetry != nil {
			return shutdownTelemetry(context.Background())
		}
		return nil
	}

	// Register subcommands
	rootCmd.AddCommand(
		configCmd(ctx),
		chainsCmd(ctx),
		relaysCmd(ctx),
		queryCmd(ctx),
		modulesCmd(ctx),
		serviceCmd(ctx),
	)
	for _, module := range modules {
		if cmd := module.GetCmd(ctx); cmd != nil {
			rootCmd.AddCommand(cmd)
		}
	}

	return rootCmd.Execute()
}

func noCommand(cmd *cobra.Command, args []string) error {
	if err := cmd.Help(); err != nil {
		return err
	}
	return errors.New("specified command does not exist")
}
