package config

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

// fileSchema mirrors calculator.toml. Keys match the viper keys so the
// output of MarshalTOML can be fed back through --config.
type fileSchema struct {
	BaseDir         string `toml:"base_dir"`
	MaxHistorySize  int    `toml:"max_history_size"`
	AutoSave        bool   `toml:"auto_save"`
	Precision       int    `toml:"precision"`
	MaxInputValue   string `toml:"max_input_value"`
	DefaultEncoding string `toml:"default_encoding"`
	LogDir          string `toml:"log_dir"`
	HistoryDir      string `toml:"history_dir"`
	HistoryFile     string `toml:"history_file"`
	LogFile         string `toml:"log_file"`
	Telemetry       bool   `toml:"telemetry"`
}

// MarshalTOML renders the effective configuration.
func (c Config) MarshalTOML() ([]byte, error) {
	data, err := toml.Marshal(fileSchema{
		BaseDir:         c.BaseDir,
		MaxHistorySize:  c.MaxHistorySize,
		AutoSave:        c.AutoSave,
		Precision:       c.Precision,
		MaxInputValue:   c.MaxInputValue.String(),
		DefaultEncoding: c.DefaultEncoding,
		LogDir:          c.LogDir,
		HistoryDir:      c.HistoryDir,
		HistoryFile:     c.HistoryFile,
		LogFile:         c.LogFile,
		Telemetry:       c.Telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
