package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/axitb/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check testbench configurations.",
	}

	configDefaultCmd := &cobra.Command{
		Use:   "default",
		Short: "Write the default configuration.",
		RunE:  writeDefaultConfig,
	}
	configDefaultCmd.Flags().String("out", "", "Write to this file")

	configValidateCmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a configuration can be simulated.",
		Args:  cobra.ExactArgs(1),
		RunE:  validateConfig,
	}

	configCmd.AddCommand(configDefaultCmd, configValidateCmd)

	return configCmd
}

func writeDefaultConfig(cmd *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return cfg.SaveConfig(out)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	return nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(args[0])
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])

	return nil
}
