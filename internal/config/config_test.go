package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Content: ContentConfig{
			EffectsDir:             "content/effects",
			ActionsDir:             "content/actions",
			ScriptsDir:             "content/scripts",
			ScriptInstructionLimit: 50_000,
		},
		Combat: CombatConfig{
			Seed:      42,
			MaxRounds: 100,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate_RejectsBadLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")

	cfg = validConfig()
	cfg.Logging.Format = "xml"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate_RejectsNegativeInstructionLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Content.ScriptInstructionLimit = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script_instruction_limit")
}

func TestValidate_RejectsBadMaxRounds(t *testing.T) {
	cfg := validConfig()
	cfg.Combat.MaxRounds = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combat.max_rounds")
}

func TestValidate_AggregatesViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	cfg.Combat.MaxRounds = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "combat.max_rounds")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
content:
  effects_dir: /srv/effects
combat:
  seed: 7
  max_rounds: 25
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "/srv/effects", cfg.Content.EffectsDir)
	assert.Equal(t, int64(7), cfg.Combat.Seed)
	assert.Equal(t, 25, cfg.Combat.MaxRounds)
	// Unspecified keys take defaults.
	assert.Equal(t, "", cfg.Content.ActionsDir)
	assert.Equal(t, 0, cfg.Content.ScriptInstructionLimit)
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: shouting
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileRejected(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	t.Setenv("NEONFALL_LOGGING_LEVEL", "warn")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMaxRoundsValidationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		cfg.Combat.MaxRounds = rapid.IntRange(-10, 10).Draw(t, "rounds")
		err := cfg.Validate()
		if cfg.Combat.MaxRounds >= 1 {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		} else if err == nil {
			t.Fatal("expected validation error")
		}
	})
}
