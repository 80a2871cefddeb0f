// Package config loads and validates calculator settings.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go-calculator/internal/calcerr"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	DefaultMaxHistorySize  = 1000
	DefaultAutoSave        = true
	DefaultPrecision       = 10
	DefaultMaxInputValue   = "1e999"
	DefaultEncoding        = "utf-8"
	DefaultHistoryFileName = "calculator_history.csv"
	DefaultLogFileName     = "calculator.log"

	envPrefix  = "CALCULATOR"
	configName = "calculator"
	configType = "toml"
)

// Viper keys. With the CALCULATOR env prefix each key maps to
// CALCULATOR_<KEY>, e.g. CALCULATOR_MAX_HISTORY_SIZE.
const (
	keyBaseDir        = "base_dir"
	keyMaxHistorySize = "max_history_size"
	keyAutoSave       = "auto_save"
	keyPrecision      = "precision"
	keyMaxInputValue  = "max_input_value"
	keyEncoding       = "default_encoding"
	keyLogDir         = "log_dir"
	keyHistoryDir     = "history_dir"
	keyHistoryFile    = "history_file"
	keyLogFile        = "log_file"
	keyTelemetry      = "telemetry"
)

type Config struct {
	BaseDir         string
	MaxHistorySize  int
	AutoSave        bool
	Precision       int
	MaxInputValue   decimal.Decimal
	DefaultEncoding string
	LogDir          string
	HistoryDir      string
	HistoryFile     string
	LogFile         string

	// Telemetry enables OTLP export of traces, metrics and logs.
	Telemetry bool
}

// Default returns the built-in settings rooted at the working directory.
// It never reads the environment.
func Default() Config {
	return withBaseDir(Config{
		MaxHistorySize:  DefaultMaxHistorySize,
		AutoSave:        DefaultAutoSave,
		Precision:       DefaultPrecision,
		MaxInputValue:   decimal.RequireFromString(DefaultMaxInputValue),
		DefaultEncoding: DefaultEncoding,
	}, ".")
}

// ForDir returns the defaults with every path placed under baseDir.
func ForDir(baseDir string) Config {
	return withBaseDir(Default(), baseDir)
}

func withBaseDir(cfg Config, baseDir string) Config {
	cfg.BaseDir = baseDir
	cfg.LogDir = filepath.Join(baseDir, "logs")
	cfg.HistoryDir = filepath.Join(baseDir, "history")
	cfg.HistoryFile = filepath.Join(cfg.HistoryDir, DefaultHistoryFileName)
	cfg.LogFile = filepath.Join(cfg.LogDir, DefaultLogFileName)
	return cfg
}

// Load layers defaults, an optional calculator.toml and CALCULATOR_*
// environment variables. configFile may be empty, in which case
// calculator.toml is looked up in the working directory and its absence is
// not an error. The result is not validated.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	def := Default()
	v.SetDefault(keyBaseDir, def.BaseDir)
	v.SetDefault(keyMaxHistorySize, def.MaxHistorySize)
	v.SetDefault(keyAutoSave, def.AutoSave)
	v.SetDefault(keyPrecision, def.Precision)
	v.SetDefault(keyMaxInputValue, DefaultMaxInputValue)
	v.SetDefault(keyEncoding, def.DefaultEncoding)
	v.SetDefault(keyTelemetry, false)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	baseDir, err := filepath.Abs(v.GetString(keyBaseDir))
	if err != nil {
		return Config{}, fmt.Errorf("resolve base dir: %w", err)
	}

	maxInput, err := decimal.NewFromString(strings.TrimSpace(v.GetString(keyMaxInputValue)))
	if err != nil {
		return Config{}, &calcerr.ConfigurationError{Msg: "max_input_value must be a number", Err: err}
	}

	cfg := withBaseDir(def, baseDir)
	cfg.MaxHistorySize = v.GetInt(keyMaxHistorySize)
	cfg.AutoSave = v.GetBool(keyAutoSave)
	cfg.Precision = v.GetInt(keyPrecision)
	cfg.MaxInputValue = maxInput
	cfg.DefaultEncoding = v.GetString(keyEncoding)
	cfg.Telemetry = v.GetBool(keyTelemetry)

	if dir := v.GetString(keyLogDir); dir != "" {
		cfg.LogDir = dir
		cfg.LogFile = filepath.Join(dir, DefaultLogFileName)
	}
	if dir := v.GetString(keyHistoryDir); dir != "" {
		cfg.HistoryDir = dir
		cfg.HistoryFile = filepath.Join(dir, DefaultHistoryFileName)
	}
	if file := v.GetString(keyHistoryFile); file != "" {
		cfg.HistoryFile = file
	}
	if file := v.GetString(keyLogFile); file != "" {
		cfg.LogFile = file
	}

	for _, p := range []*string{&cfg.LogDir, &cfg.HistoryDir, &cfg.HistoryFile, &cfg.LogFile} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return Config{}, fmt.Errorf("resolve path %q: %w", *p, err)
		}
		*p = abs
	}

	return cfg, nil
}

// Validate reports the first invalid setting as a ConfigurationError.
func (c Config) Validate() error {
	if c.MaxHistorySize <= 0 {
		return calcerr.Configuration("max_history_size must be positive")
	}
	if c.Precision <= 0 {
		return calcerr.Configuration("precision must be positive")
	}
	if !c.MaxInputValue.IsPositive() {
		return calcerr.Configuration("max_input_value must be positive")
	}
	if _, err := htmlindex.Get(c.DefaultEncoding); err != nil {
		return &calcerr.ConfigurationError{Msg: fmt.Sprintf("unsupported default_encoding %q", c.DefaultEncoding), Err: err}
	}
	return nil
}
