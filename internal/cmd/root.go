// Package cmd implements the spafw37 command line.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minouris/spafw37-sub001/internal/config"
	"github.com/minouris/spafw37-sub001/internal/event"
	"github.com/minouris/spafw37-sub001/internal/logging"
	"github.com/minouris/spafw37-sub001/internal/manifest"
	"github.com/minouris/spafw37-sub001/internal/param"
	"github.com/minouris/spafw37-sub001/pkg/scheduler"
)

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spafw37",
		Short: "Phase-ordered command scheduler",
		Long: `spafw37 runs commands declared in a YAML manifest across an ordered
set of phases, resolving prerequisites, ordering constraints, follow-on
commands, parameter triggers and cycles.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			return nil
		},
	}

	// Global flags
	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/spafw37/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newPlanCmd(),
		newRunCmd(),
		newListCmd(),
		newConfigCmd(),
	)
	return root
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SPAFW")
	// e.g., SPAFW_TRIGGERS_LATE_POLICY for triggers.late_policy
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// session is a scheduler loaded from a manifest.
type session struct {
	scheduler *scheduler.Scheduler
	params    *param.Store
	logger    *logging.Logger
	bus       *event.Bus
}

func (s *session) Close() error {
	return s.logger.Close()
}

// openSession builds a scheduler from the active config and applies the
// manifest at path. Message actions write to cmd's output.
func openSession(cmd *cobra.Command, path string) (*session, error) {
	if path == "" {
		return nil, fmt.Errorf("no manifest given, use --file")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	bus := event.NewBus()
	store := param.NewStore()

	s, err := scheduler.New(
		scheduler.WithConfig(cfg),
		scheduler.WithLogger(logger),
		scheduler.WithBus(bus),
	)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	s.BindStore(store)

	if err := manifest.Apply(s, m, manifest.Env{Out: cmd.OutOrStdout(), Params: store}); err != nil {
		_ = logger.Close()
		return nil, err
	}
	return &session{scheduler: s, params: store, logger: logger, bus: bus}, nil
}
