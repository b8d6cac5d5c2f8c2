package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaultsOn(v)
	return v
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, []string{
		"phase-setup",
		"phase-cleanup",
		"phase-execution",
		"phase-teardown",
		"phase-end",
	}, cfg.Phases.Order)
	assert.Equal(t, "phase-execution", cfg.Phases.Default)
	assert.Equal(t, 5, cfg.Cycles.MaxDepth)
	assert.Equal(t, LatePolicyReschedule, cfg.Triggers.LatePolicy)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Validate())
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFrom_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
phases:
  order: [prepare, work, finish]
  default: work
cycles:
  max_depth: 3
triggers:
  late_policy: reject
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"prepare", "work", "finish"}, cfg.Phases.Order)
	assert.Equal(t, "work", cfg.Phases.Default)
	assert.Equal(t, 3, cfg.Cycles.MaxDepth)
	assert.Equal(t, LatePolicyReject, cfg.Triggers.LatePolicy)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("SPAFW_CYCLES_MAX_DEPTH", "2")
	t.Setenv("SPAFW_TRIGGERS_LATE_POLICY", "reject")

	v := newViper(t)
	v.SetEnvPrefix("SPAFW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Cycles.MaxDepth)
	assert.Equal(t, LatePolicyReject, cfg.Triggers.LatePolicy)
}

func TestLoadFrom_Invalid(t *testing.T) {
	v := newViper(t)
	v.Set("cycles.max_depth", 0)
	v.Set("triggers.late_policy", "sometimes")

	cfg, err := LoadFrom(v)
	require.Error(t, err)
	assert.Nil(t, cfg)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/spafw37/config.yaml", ConfigFile())
}
