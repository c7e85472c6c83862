package cli

import (
	"fmt"

	"blightd/internal/config"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or modify blightd configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoadOptions{ConfigPath: flagConfig})
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoadOptions{ConfigPath: flagConfig})
		if err != nil {
			return err
		}

		val, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the user config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := flagConfig
		if target == "" {
			target = config.DefaultConfigPath()
		}
		if target == "" {
			return fmt.Errorf("no config file location available")
		}

		value, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}
		if err := config.WriteValue(target, args[0], value); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v (%s)\n", args[0], value, target)
		return nil
	},
}
