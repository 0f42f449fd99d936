package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

type Config struct {
	Output       string `mapstructure:"output"`
	SymbolPath   string `mapstructure:"symbol_path"`
	ModulePaths  bool   `mapstructure:"module_paths"`
	HexdumpWidth int    `mapstructure:"hexdump_width"`
	Color        bool   `mapstructure:"color"`
}

func Default() *Config {
	return &Config{
		Output:       OutputText,
		HexdumpWidth: 16,
		Color:        true,
	}
}

// Load reads cfgFile, or procwalk.yaml from the working directory or the
// user config directory when cfgFile is empty. A missing default file is
// not an error. PROCWALK_* environment variables override file values.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	v.SetDefault("output", cfg.Output)
	v.SetDefault("symbol_path", cfg.SymbolPath)
	v.SetDefault("module_paths", cfg.ModulePaths)
	v.SetDefault("hexdump_width", cfg.HexdumpWidth)
	v.SetDefault("color", cfg.Color)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("procwalk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "procwalk"))
		}
	}

	v.SetEnvPrefix("PROCWALK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate returns every invalid value found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch c.Output {
	case OutputText, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("output %q must be %q or %q", c.Output, OutputText, OutputJSON))
	}

	if c.HexdumpWidth <= 0 {
		errs = append(errs, fmt.Errorf("hexdump_width must be positive, got %d", c.HexdumpWidth))
	}

	return errors.Join(errs...)
}
