package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	xdgAppName = "taskrank"
	configName = "config"
	configType = "yaml"
	envPrefix  = "TASKRANK"
)

type Config struct {
	Calendar     string             `mapstructure:"calendar"`
	Strategy     string             `mapstructure:"strategy"`
	Listen       string             `mapstructure:"listen"`
	SuggestLimit int                `mapstructure:"suggest_limit"`
	CycleMode    string             `mapstructure:"cycle_mode"`
	WarnDangling bool               `mapstructure:"warn_dangling_dependencies"`
	Weights      map[string]float64 `mapstructure:"weights"`
	Log          LogConfig          `mapstructure:"log"`
	Publish      PublishConfig      `mapstructure:"publish"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type PublishConfig struct {
	// Limit is how many top-ranked tasks are kept on the calendar.
	Limit int `mapstructure:"limit"`
}

// Dir returns ~/.config/taskrank, where the config file, OAuth credentials
// and the publish ledger live.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+"."+configType), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("calendar", "Tasks")
	v.SetDefault("strategy", "smart")
	v.SetDefault("listen", ":8000")
	v.SetDefault("suggest_limit", 3)
	v.SetDefault("cycle_mode", "scc")
	v.SetDefault("warn_dangling_dependencies", false)
	v.SetDefault("weights", map[string]float64{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("publish.limit", 5)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := decode(newViper())
	return cfg
}

// Load reads ~/.config/taskrank/config.yaml if it exists. Environment
// variables (TASKRANK_LISTEN, TASKRANK_LOG_LEVEL, ...) take precedence over
// the file, which takes precedence over the defaults.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return decode(v)
}

// LoadFromPath reads the config file at path.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = "Tasks"
	}
	if cfg.Weights == nil {
		cfg.Weights = map[string]float64{}
	}
	return &cfg, nil
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.Set("calendar", cfg.Calendar)
	v.Set("strategy", cfg.Strategy)
	v.Set("listen", cfg.Listen)
	v.Set("suggest_limit", cfg.SuggestLimit)
	v.Set("cycle_mode", cfg.CycleMode)
	v.Set("warn_dangling_dependencies", cfg.WarnDangling)
	v.Set("weights", cfg.Weights)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.json", cfg.Log.JSON)
	v.Set("publish.limit", cfg.Publish.Limit)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Chmod(path, 0600)
}
