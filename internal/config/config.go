package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig   `mapstructure:"paths"`
	Encode   EncodeConfig  `mapstructure:"encode"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	LogLevel string        `mapstructure:"log_level"`
}

type PathsConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

type EncodeConfig struct {
	Inputs        []string `mapstructure:"inputs"`
	Outputs       []string `mapstructure:"outputs"`
	OutputFormat  string   `mapstructure:"output_format"`
	MinLen        int      `mapstructure:"min_len"`
	MaxLen        int      `mapstructure:"max_len"`
	ProgressEvery int      `mapstructure:"progress_every"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// Unset is the MinLen/MaxLen value meaning "no limit".
const Unset = -1

// ErrModelRequired is returned by Validate when no model path is configured.
var ErrModelRequired = errors.New("model path is required (--model or SPMENCODE_PATHS_MODEL_PATH)")

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ModelPath: "",
		},
		Encode: EncodeConfig{
			Inputs:        []string{"-"},
			Outputs:       []string{"-"},
			OutputFormat:  "piece",
			MinLen:        Unset,
			MaxLen:        Unset,
			ProgressEvery: 10000,
		},
		Metrics: MetricsConfig{
			Textfile: "",
		},
		LogLevel: "info",
	}
}

// flagKeys maps config keys to the flag that sets them.
var flagKeys = map[string]string{
	"paths.model_path":      "model",
	"encode.inputs":         "inputs",
	"encode.outputs":        "outputs",
	"encode.output_format":  "output-format",
	"encode.min_len":        "min-len",
	"encode.max_len":        "max-len",
	"encode.progress_every": "progress-every",
	"metrics.textfile":      "metrics-textfile",
	"log_level":             "log-level",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("model", defaults.Paths.ModelPath, "SentencePiece model to use for encoding")
	fs.StringSlice("inputs", defaults.Encode.Inputs, "Input files to filter/encode ('-' for stdin)")
	fs.StringSlice("outputs", defaults.Encode.Outputs, "Paths to save encoded outputs ('-' for stdout)")
	fs.String("output-format", defaults.Encode.OutputFormat, "Output format (piece|id)")
	fs.Int("min-len", defaults.Encode.MinLen, "Filter sentence pairs with fewer than N tokens (negative means no lower bound)")
	fs.Int("max-len", defaults.Encode.MaxLen, "Filter sentence pairs with more than N tokens (negative means no upper bound, so -1 keeps lines of any length rather than filtering all)")
	fs.Int("progress-every", defaults.Encode.ProgressEvery, "Rows between progress notices on stderr")
	fs.String("metrics-textfile", defaults.Metrics.Textfile, "Write Prometheus run metrics to this file after encoding")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("SPMENCODE")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("spmencode")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate reports configuration the encoder cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.ModelPath) == "" {
		return ErrModelRequired
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("encode.inputs", c.Encode.Inputs)
	v.SetDefault("encode.outputs", c.Encode.Outputs)
	v.SetDefault("encode.output_format", c.Encode.OutputFormat)
	v.SetDefault("encode.min_len", c.Encode.MinLen)
	v.SetDefault("encode.max_len", c.Encode.MaxLen)
	v.SetDefault("encode.progress_every", c.Encode.ProgressEvery)
	v.SetDefault("metrics.textfile", c.Metrics.Textfile)
	v.SetDefault("log_level", c.LogLevel)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}

	return nil
}
