package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger-labs/yui-bridge-relayer/config"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func configCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "manage configuration file",
		RunE:    noCommand,
	}

	cmd.AddCommand(
		configShowCmd(ctx),
		configInitCmd(ctx),
	)

	return cmd
}

// Command for inititalizing an empty config at the --home location
func configInitCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Creates a default home directory at path defined by --home",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := ctx.Config.ConfigPath
			// If the config doesn't exist...
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				dirPath := filepath.Dir(cfgPath)
				if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
					return err
				}
				bz, err := config.MarshalJSON(config.DefaultConfig(cfgPath))
				if err != nil {
					return err
				}
				// And write the default config to that location...
				return os.WriteFile(cfgPath, bz, 0600)
			}

			// Otherwise, the config file exists, and an error is returned...
			return fmt.Errorf("config already exists: %s", cfgPath)
		},
	}
	return cmd
}

// Command for printing current configuration
func configShowCmd(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s", "list", "l"},
		Short:   "Prints current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := ctx.Config.ConfigPath
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				return fmt.Errorf("config does not exist: %s", cfgPath)
			}

			asYAML, err := cmd.Flags().GetBool(flagYAML)
			if err != nil {
				return err
			}
			var out []byte
			if asYAML {
				out, err = config.MarshalYAML(ctx.Config)
			} else {
				out, err = config.MarshalJSON(*ctx.Config)
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

// initConfig reads the config file, initializes the logger and the configured chains.
// The default config is used if the file doesn't exist.
func initConfig(ctx *config.Context) error {
	cfgPath := filepath.Join(homePath, configPath)
	if _, err := os.Stat(cfgPath); err == nil {
		file, err := os.ReadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgPath, err)
		}

		// unmarshall them into the struct
		if err = config.UnmarshalJSON(file, ctx.Config); err != nil {
			return fmt.Errorf("failed to unmarshal config file %s: %w", cfgPath, err)
		}
		ctx.Config.ConfigPath = cfgPath
		if err := initLogger(ctx); err != nil {
			return err
		}

		// ensure config has []core.Chain used for all chain operations
		if err = ctx.Config.InitChains(homePath, debug); err != nil {
			return fmt.Errorf("failed to initialize the config: %w", err)
		}
		return nil
	}
	defConfig := config.DefaultConfig(cfgPath)
	*ctx.Config = defConfig
	return initLogger(ctx)
}

// initLogger initializes the logger with the flags and environment variables, falling back
// to the global config
func initLogger(ctx *config.Context) error {
	global := ctx.Config.Global
	or := func(key, value string) string {
		if v := viper.GetString(key); v != "" {
			return v
		}
		return value
	}
	return log.InitLogger(
		or(flagLogLevel, global.LogLevel),
		or(flagLogFormat, global.LogFormat),
		or(flagLogOutput, global.LogOutput),
		viper.GetBool(flagEnableTelemetry),
	)
}
