package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version        = "0.3.0"
	ConfigFileName = "codai-scan-config"
)

// ProviderConfig selects and authenticates the chat completion backend.
type ProviderConfig struct {
	Name           string   `mapstructure:"name"`
	BaseURL        string   `mapstructure:"base_url"`
	ApiKey         string   `mapstructure:"api_key"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	Temperature    *float32 `mapstructure:"temperature"`
	MaxTokens      int      `mapstructure:"max_tokens"`
}

type ScanConfig struct {
	BatchSize            int    `mapstructure:"batch_size"`
	StaggerMs            int    `mapstructure:"stagger_ms"`
	MaxSplitDepth        int    `mapstructure:"max_split_depth"`
	FingerprintThreshold int    `mapstructure:"fingerprint_threshold"`
	EnableCache          bool   `mapstructure:"enable_cache"`
	Strategy             string `mapstructure:"strategy"`
}

// ModelConfig overrides the input token limit or routing tier of a model.
type ModelConfig struct {
	Name            string `mapstructure:"name"`
	InputTokenLimit int    `mapstructure:"input_token_limit"`
	Tier            string `mapstructure:"tier"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config represents the structure of the configuration file
type Config struct {
	Model    string         `mapstructure:"model"`
	Provider ProviderConfig `mapstructure:"provider"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Models   []ModelConfig  `mapstructure:"models"`
	Log      LogConfig      `mapstructure:"log"`
	Output   string         `mapstructure:"output"`
	Theme    string         `mapstructure:"theme"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Model: "gpt-4o",
	Provider: ProviderConfig{
		Name:           "openai",
		TimeoutSeconds: 120,
	},
	Scan: ScanConfig{
		BatchSize:            3,
		StaggerMs:            500,
		MaxSplitDepth:        2,
		FingerprintThreshold: 40,
		EnableCache:          true,
	},
	Log: LogConfig{
		Level:  "info",
		Format: "auto",
	},
	Output: "text",
	Theme:  "dracula",
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs builds the configuration from defaults, the config file, the
// environment and finally the command's flags.
func LoadConfigs(cmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if cfgFile != "" {
		if GetConfigFileType(cfgFile) == "" {
			return nil, fmt.Errorf("unsupported config file type: %s", cfgFile)
		}
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	} else {
		// yml, yaml and json are all picked up by name.
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if cmd != nil {
		bindFlags(v, cmd)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("model", DefaultConfig.Model)
	v.SetDefault("provider.name", DefaultConfig.Provider.Name)
	v.SetDefault("provider.base_url", DefaultConfig.Provider.BaseURL)
	v.SetDefault("provider.api_key", DefaultConfig.Provider.ApiKey)
	v.SetDefault("provider.timeout_seconds", DefaultConfig.Provider.TimeoutSeconds)
	v.SetDefault("provider.max_tokens", DefaultConfig.Provider.MaxTokens)
	v.SetDefault("scan.batch_size", DefaultConfig.Scan.BatchSize)
	v.SetDefault("scan.stagger_ms", DefaultConfig.Scan.StaggerMs)
	v.SetDefault("scan.max_split_depth", DefaultConfig.Scan.MaxSplitDepth)
	v.SetDefault("scan.fingerprint_threshold", DefaultConfig.Scan.FingerprintThreshold)
	v.SetDefault("scan.enable_cache", DefaultConfig.Scan.EnableCache)
	v.SetDefault("scan.strategy", DefaultConfig.Scan.Strategy)
	v.SetDefault("log.level", DefaultConfig.Log.Level)
	v.SetDefault("log.format", DefaultConfig.Log.Format)
	v.SetDefault("output", DefaultConfig.Output)
	v.SetDefault("theme", DefaultConfig.Theme)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("model", "MODEL")
	_ = v.BindEnv("provider.name", "PROVIDER")
	_ = v.BindEnv("provider.base_url", "BASE_URL")
	_ = v.BindEnv("provider.api_key", "API_KEY")
	_ = v.BindEnv("provider.timeout_seconds", "TIMEOUT_SECONDS")
	_ = v.BindEnv("scan.enable_cache", "ENABLE_CACHE")
	_ = v.BindEnv("scan.batch_size", "BATCH_SIZE")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")
	_ = v.BindEnv("theme", "THEME")
}

// bindFlags binds the CLI flags to configuration values. Flags the command
// does not define are skipped.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	bind := func(key, name string) {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.InheritedFlags().Lookup(name)
		}
		if flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
	bind("model", "model")
	bind("provider.name", "provider")
	bind("provider.base_url", "base_url")
	bind("provider.api_key", "api_key")
	bind("scan.enable_cache", "enable_cache")
	bind("scan.batch_size", "batch_size")
	bind("scan.strategy", "strategy")
	bind("log.level", "log_level")
	bind("log.format", "log_format")
	bind("output", "output")
	bind("theme", "theme")
}

// InitFlags initializes the persistent flags of the root command.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (JSON or YAML).")
	rootCmd.PersistentFlags().String("model", DefaultConfig.Model, "Primary model used for scans, such as 'gpt-4o'.")
	rootCmd.PersistentFlags().String("provider", DefaultConfig.Provider.Name, "Chat provider: 'openai' (or any compatible API) or 'ollama'.")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.Provider.BaseURL, "Base URL of the provider API.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.Provider.ApiKey, "API key used to authenticate with the provider.")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.Scan.EnableCache, "Reuse results for unchanged files.")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.Log.Level, "Log level: trace, debug, info, warn, error.")
	rootCmd.PersistentFlags().String("log_format", DefaultConfig.Log.Format, "Log format: auto, text or json.")
	rootCmd.PersistentFlags().StringP("output", "o", DefaultConfig.Output, "Output format: text, json or yaml.")
	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Chroma theme for code snippets in text output.")

	rootCmd.Flags().BoolP("version", "v", false, "Print the version of the application.")
}

// Validate rejects values the scan cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output) {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format '%s': expected text, json or yaml", c.Output)
	}
	switch strings.ToLower(c.Scan.Strategy) {
	case "", "deep", "fingerprint":
	default:
		return fmt.Errorf("invalid scan strategy '%s': expected deep or fingerprint", c.Scan.Strategy)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if c.Scan.BatchSize <= 0 {
		return fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize)
	}
	for _, m := range c.Models {
		if strings.TrimSpace(m.Name) == "" {
			return errors.New("models entries need a name")
		}
	}
	return nil
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

func (c *Config) Stagger() time.Duration {
	return time.Duration(c.Scan.StaggerMs) * time.Millisecond
}

// ModelTiers returns the configured model→tier assignments.
func (c *Config) ModelTiers() map[string]string {
	tiers := make(map[string]string)
	for _, m := range c.Models {
		if m.Tier != "" {
			tiers[m.Name] = m.Tier
		}
	}
	return tiers
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}
