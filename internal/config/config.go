package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/carlot-cli/internal/clean"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

// Log formats and levels.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"

	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Global configuration structure.
type Global struct {
	// Loading and cleaning
	Delimiter      string   `mapstructure:"delimiter" yaml:"delimiter"`
	NullTokens     []string `mapstructure:"null_tokens" yaml:"null_tokens"`
	CylinderPolicy string   `mapstructure:"cylinder_policy" yaml:"cylinder_policy"`
	ExportPath     string   `mapstructure:"export_path" yaml:"export_path"`

	// Presentation
	HistogramBins int    `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	ChartWidth    int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight   int    `mapstructure:"chart_height" yaml:"chart_height"`
	HeadRows      int    `mapstructure:"head_rows" yaml:"head_rows"`
	ListenAddr    string `mapstructure:"listen_addr" yaml:"listen_addr"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		NullTokens:     append([]string(nil), dataset.DefaultNullTokens...),
		CylinderPolicy: string(clean.CylindersGrouped),
		HistogramBins:  50,
		ChartWidth:     1024,
		ChartHeight:    576,
		HeadRows:       5,
		ListenAddr:     "127.0.0.1:8501",
		LogLevel:       LogLevelInfo,
		LogFormat:      LogFormatText,
	}
}

// LoadOptions converts the loading keys into dataset options.
func (c *Global) LoadOptions() (dataset.LoadOptions, error) {
	delim, err := dataset.ParseDelimiter(c.Delimiter)
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	return dataset.LoadOptions{Delimiter: delim, NullTokens: c.NullTokens}, nil
}

// CleanOptions converts the cleaning keys into clean options.
func (c *Global) CleanOptions() (clean.Options, error) {
	p, err := clean.ParseCylinderPolicy(c.CylinderPolicy)
	if err != nil {
		return clean.Options{}, err
	}
	return clean.Options{Cylinders: p}, nil
}

// Validate rejects values the commands cannot act on.
func (c *Global) Validate() error {
	if _, err := c.LoadOptions(); err != nil {
		return err
	}
	if _, err := c.CleanOptions(); err != nil {
		return err
	}
	if c.HistogramBins <= 0 {
		return fmt.Errorf("histogram_bins must be positive, got %d", c.HistogramBins)
	}
	if c.HeadRows < 0 {
		return fmt.Errorf("head_rows must not be negative, got %d", c.HeadRows)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log_format: %s (use text or json)", c.LogFormat)
	}
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", c.LogLevel)
	}
	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".carlot"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.carlot/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; command flags are applied by callers.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CARLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("null_tokens", d.NullTokens)
	v.SetDefault("cylinder_policy", d.CylinderPolicy)
	v.SetDefault("export_path", d.ExportPath)
	v.SetDefault("histogram_bins", d.HistogramBins)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("head_rows", d.HeadRows)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
