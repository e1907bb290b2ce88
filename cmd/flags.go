package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagHome            = "home"
	flagDebug           = "debug"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
	flagLogOutput       = "log-output"
	flagEnableTelemetry = "enable-telemetry"
	flagJSON            = "json"
	flagYAML            = "yaml"
	flagPrometheusAddr  = "prometheus-addr"
)

func yamlFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagYAML, "y", false, "output using yaml")
	if err := viper.BindPFlag(flagYAML, cmd.Flags().Lookup(flagYAML)); err != nil {
		panic(err)
	}
	return cmd
}

func jsonFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagJSON, "j", false, "returns the response in json format")
	if err := viper.BindPFlag(flagJSON, cmd.Flags().Lookup(flagJSON)); err != nil {
		panic(err)
	}
	return cmd
}

func prometheusAddrFlag(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String(flagPrometheusAddr, "", "host address to which the prometheus exporter listens. The exporter is disabled if empty")
	if err := viper.BindPFlag(flagPrometheusAddr, cmd.Flags().Lookup(flagPrometheusAddr)); err != nil {
		panic(err)
	}
	return cmd
}

// bindFlags binds the named flags of the set to viper so that they can be set by environment variables too
func bindFlags(fs *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		if err := viper.BindPFlag(name, fs.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
