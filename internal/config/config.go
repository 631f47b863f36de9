package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Model  ModelConfig  `mapstructure:"model"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

type ModelConfig struct {
	Path   string `mapstructure:"path"`
	AddBOS bool   `mapstructure:"add_bos"`
	AddEOS bool   `mapstructure:"add_eos"`
}

type OutputConfig struct {
	JSON bool `mapstructure:"json"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			Path:   "",
			AddBOS: false,
			AddEOS: false,
		},
		Output: OutputConfig{
			JSON: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.SetNormalizeFunc(NormalizeFlagAliases)
	fs.String("model-path", defaults.Model.Path, "Path to a GGUF model file, or a tiktoken model/encoding name (alias: --model)")
	fs.Bool("model-add-bos", defaults.Model.AddBOS, "Prepend the beginning-of-sequence token")
	fs.Bool("model-add-eos", defaults.Model.AddEOS, "Append the end-of-sequence token")
	fs.Bool("output-json", defaults.Output.JSON, "Emit results as JSON")
	fs.String("log-level", defaults.Log.Level, "Log level (debug, info, warn, error)")
}

// NormalizeFlagAliases maps alternate flag spellings onto their canonical
// names, so --model parses as --model-path. Install it on every flag set
// that carries the config flags (cobra: SetGlobalNormalizationFunc).
func NormalizeFlagAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "model" {
		name = "model-path"
	}
	return pflag.NormalizedName(name)
}

// flagKeys routes each flag onto its nested config key.
var flagKeys = map[string]string{
	"model.path":    "model-path",
	"model.add_bos": "model-add-bos",
	"model.add_eos": "model-add-eos",
	"output.json":   "output-json",
	"log.level":     "log-level",
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("GGTOK")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("ggtok")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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

// bindFlags binds each registered flag to its nested key. A changed flag
// outranks env and file values; an unchanged one is only the final fallback.
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

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("model.path", c.Model.Path)
	v.SetDefault("model.add_bos", c.Model.AddBOS)
	v.SetDefault("model.add_eos", c.Model.AddEOS)
	v.SetDefault("output.json", c.Output.JSON)
	v.SetDefault("log.level", c.Log.Level)
}
