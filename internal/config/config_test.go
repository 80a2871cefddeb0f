package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-calculator/internal/calcerr"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultMaxHistorySize, cfg.MaxHistorySize)
	assert.True(t, cfg.AutoSave)
	assert.Equal(t, DefaultPrecision, cfg.Precision)
	assert.True(t, cfg.MaxInputValue.Equal(decimal.RequireFromString("1e999")))
	assert.Equal(t, "utf-8", cfg.DefaultEncoding)
	assert.Equal(t, filepath.Join("history", "calculator_history.csv"), cfg.HistoryFile)
	assert.Equal(t, filepath.Join("logs", "calculator.log"), cfg.LogFile)
	assert.False(t, cfg.Telemetry)
	require.NoError(t, cfg.Validate())
}

func TestForDirPlacesPathsUnderBaseDir(t *testing.T) {
	base := t.TempDir()
	cfg := ForDir(base)

	assert.Equal(t, filepath.Join(base, "history", "calculator_history.csv"), cfg.HistoryFile)
	assert.Equal(t, filepath.Join(base, "logs", "calculator.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(base, "history"), cfg.HistoryDir)
	assert.Equal(t, filepath.Join(base, "logs"), cfg.LogDir)
}

func TestLoadReadsEnvironment(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CALCULATOR_BASE_DIR", base)
	t.Setenv("CALCULATOR_MAX_HISTORY_SIZE", "5")
	t.Setenv("CALCULATOR_AUTO_SAVE", "false")
	t.Setenv("CALCULATOR_PRECISION", "4")
	t.Setenv("CALCULATOR_MAX_INPUT_VALUE", "1000")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, base, cfg.BaseDir)
	assert.Equal(t, 5, cfg.MaxHistorySize)
	assert.False(t, cfg.AutoSave)
	assert.Equal(t, 4, cfg.Precision)
	assert.True(t, cfg.MaxInputValue.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, filepath.Join(base, "history", "calculator_history.csv"), cfg.HistoryFile)
	assert.Equal(t, filepath.Join(base, "logs", "calculator.log"), cfg.LogFile)
}

func TestLoadExplicitPathsOverrideBaseDir(t *testing.T) {
	base := t.TempDir()
	historyDir := filepath.Join(base, "elsewhere")
	logFile := filepath.Join(base, "custom.log")
	t.Setenv("CALCULATOR_BASE_DIR", base)
	t.Setenv("CALCULATOR_HISTORY_DIR", historyDir)
	t.Setenv("CALCULATOR_LOG_FILE", logFile)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(historyDir, "calculator_history.csv"), cfg.HistoryFile)
	assert.Equal(t, logFile, cfg.LogFile)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calculator.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"max_history_size = 3",
		"precision = 2",
		"base_dir = '" + dir + "'",
	}, "\n")), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxHistorySize)
	assert.Equal(t, 2, cfg.Precision)
	assert.Equal(t, filepath.Join(dir, "history", "calculator_history.csv"), cfg.HistoryFile)
}

func TestLoadMissingExplicitConfigFileFails(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadRejectsNonNumericMaxInput(t *testing.T) {
	t.Setenv("CALCULATOR_MAX_INPUT_VALUE", "lots")

	_, err := Load(viper.New(), "")
	require.Error(t, err)

	var cfgErr *calcerr.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "zero history", mutate: func(c *Config) { c.MaxHistorySize = 0 }, want: "max_history_size must be positive"},
		{name: "negative precision", mutate: func(c *Config) { c.Precision = -1 }, want: "precision must be positive"},
		{name: "zero max input", mutate: func(c *Config) { c.MaxInputValue = decimal.Zero }, want: "max_input_value must be positive"},
		{name: "unknown encoding", mutate: func(c *Config) { c.DefaultEncoding = "klingon" }, want: "unsupported default_encoding"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			var cfgErr *calcerr.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestMarshalTOML(t *testing.T) {
	data, err := ForDir("/srv/calc").MarshalTOML()
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "max_history_size = 1000")
	assert.Contains(t, out, "precision = 10")
	assert.Contains(t, out, "calculator_history.csv")
}
