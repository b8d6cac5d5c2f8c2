package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minouris/spafw37-sub001/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View scheduler configuration",
		RunE:  runConfigShow,
	}
	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			RunE:  runConfigPath,
		},
	)
	return configCmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "Config file: (none - using defaults)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "phases:")
	fmt.Fprintf(out, "  order: [%s]\n", strings.Join(cfg.Phases.Order, ", "))
	fmt.Fprintf(out, "  default: %s\n", cfg.Phases.Default)

	fmt.Fprintln(out, "cycles:")
	fmt.Fprintf(out, "  max_depth: %d\n", cfg.Cycles.MaxDepth)

	fmt.Fprintln(out, "triggers:")
	fmt.Fprintf(out, "  late_policy: %s\n", cfg.Triggers.LatePolicy)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.Dir)

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}
	fmt.Fprintln(out, "\nEnvironment variables: SPAFW_* (e.g., SPAFW_TRIGGERS_LATE_POLICY)")
	return nil
}
