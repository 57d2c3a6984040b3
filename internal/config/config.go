package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DataFile string `yaml:"data_file" mapstructure:"data_file"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	Output   string `yaml:"output" mapstructure:"output"`
	Color    bool   `yaml:"color" mapstructure:"color"`
}

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataFile: filepath.Join(home, "student_model.json"),
		LogLevel: "warn",
		Output:   OutputText,
		Color:    true,
	}
}

func configDirs() []string {
	dirs := []string{"."}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "student"))
	}
	home, _ := os.UserHomeDir()
	return append(dirs, filepath.Join(home, ".config", "student"))
}

// Load reads config.yaml from the working directory or the user config
// directory, then applies STUDENT_* environment variables.
func Load() (*Config, error) {
	return load(viper.New(), configDirs())
}

func load(v *viper.Viper, dirs []string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetDefault("data_file", cfg.DataFile)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("color", cfg.Color)

	v.SetEnvPrefix("STUDENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.DataFile = expandHome(expandEnv(cfg.DataFile))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("config: data_file is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level %q is invalid (must be debug, info, warn, or error)", c.LogLevel)
	}
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("config: output %q is invalid (must be text, json, or yaml)", c.Output)
	}
	return nil
}
