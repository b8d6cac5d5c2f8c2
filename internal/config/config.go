package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/minouris/spafw37-sub001/internal/phase"
)

// Config represents the complete scheduler configuration
type Config struct {
	Phases   PhasesConfig   `mapstructure:"phases"`
	Cycles   CyclesConfig   `mapstructure:"cycles"`
	Triggers TriggersConfig `mapstructure:"triggers"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PhasesConfig controls the lifecycle stages commands are scheduled into
type PhasesConfig struct {
	// Order is the sequence phases run in. Names must be unique.
	Order []string `mapstructure:"order"`
	// Default is the phase assigned to commands registered without one.
	// Must appear in Order.
	Default string `mapstructure:"default"`
}

// CyclesConfig controls cycle execution
type CyclesConfig struct {
	// MaxDepth is the deepest cycle nesting allowed (default: 5)
	MaxDepth int `mapstructure:"max_depth"`
}

// TriggersConfig controls parameter-triggered enqueueing
type TriggersConfig struct {
	// LatePolicy decides what happens when a trigger fires after the
	// command's phase has completed.
	// Options: "reschedule" (enqueue into the earliest open phase), "reject"
	LatePolicy string `mapstructure:"late_policy"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is where scheduler.log is written. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// Late trigger policies
const (
	LatePolicyReschedule = "reschedule"
	LatePolicyReject     = "reject"
)

// DefaultMaxCycleDepth is the nesting limit applied when none is configured.
const DefaultMaxCycleDepth = 5

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Phases: PhasesConfig{
			Order:   phase.DefaultOrder(),
			Default: phase.DefaultPhase,
		},
		Cycles: CyclesConfig{
			MaxDepth: DefaultMaxCycleDepth,
		},
		Triggers: TriggersConfig{
			LatePolicy: LatePolicyReschedule,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values on the given viper instance
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("phases.order", defaults.Phases.Order)
	v.SetDefault("phases.default", defaults.Phases.Default)

	v.SetDefault("cycles.max_depth", defaults.Cycles.MaxDepth)

	v.SetDefault("triggers.late_policy", defaults.Triggers.LatePolicy)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults on error
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spafw37")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spafw37"
	}
	return filepath.Join(home, ".config", "spafw37")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
