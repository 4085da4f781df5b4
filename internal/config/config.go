// Package config loads pitstop settings from a file, the environment and
// command-line flags, in increasing order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/pitstop/pkg/adapters/process"
	"github.com/aretw0/pitstop/pkg/policy"
	"github.com/aretw0/pitstop/pkg/session"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. PITSTOP_REDIS_ADDR.
const EnvPrefix = "PITSTOP"

// Config holds the configuration for the application.
type Config struct {
	DataDir          string  `mapstructure:"data_dir"`
	AnomalyThreshold float64 `mapstructure:"anomaly_threshold"`
	Log              struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Scheduler struct {
		URL     string        `mapstructure:"url"`
		Addr    string        `mapstructure:"addr"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"scheduler"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Prefix   string `mapstructure:"prefix"`
	} `mapstructure:"redis"`
	API struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"api"`
	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`
	Telemetry struct {
		Endpoint string `mapstructure:"endpoint"`
		Insecure bool   `mapstructure:"insecure"`
	} `mapstructure:"telemetry"`
	// Plugins replace the heuristic classifier and composer with external
	// commands when a command is set.
	Plugins struct {
		Classifier process.ProcessConfig `mapstructure:"classifier"`
		Composer   process.ProcessConfig `mapstructure:"composer"`
	} `mapstructure:"plugins"`
	Archive struct {
		Enabled bool `mapstructure:"enabled"`
		// Key is the base64 AES-256 key sealing archived runs. Empty keeps
		// documents in clear.
		Key          string   `mapstructure:"key"`
		FallbackKeys []string `mapstructure:"fallback_keys"`
		// Mask lists patterns of JSON keys whose values are masked.
		Mask []string `mapstructure:"mask"`
	} `mapstructure:"archive"`
	// PolicyFile points to a standalone policy YAML. Role names are case
	// sensitive, so the table is not read through viper.
	PolicyFile string `mapstructure:"policy_file"`
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"data-dir":          "data_dir",
	"threshold":         "anomaly_threshold",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"scheduler-url":     "scheduler.url",
	"scheduler-addr":    "scheduler.addr",
	"scheduler-timeout": "scheduler.timeout",
	"redis":             "redis.addr",
	"redis-prefix":      "redis.prefix",
	"metrics-addr":      "metrics.addr",
	"addr":              "api.addr",
	"otlp-endpoint":     "telemetry.endpoint",
	"otlp-insecure":     "telemetry.insecure",
	"policy":            "policy_file",
	"classifier-cmd":    "plugins.classifier.command",
	"composer-cmd":      "plugins.composer.command",
	"archive":           "archive.enabled",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("anomaly_threshold", 450.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("scheduler.url", "")
	v.SetDefault("scheduler.addr", ":8000")
	v.SetDefault("scheduler.timeout", 10*time.Second)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "pitstop:")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("api.addr", ":8080")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("policy_file", "")
	v.SetDefault("plugins.classifier.command", "")
	v.SetDefault("plugins.composer.command", "")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.key", "")
	v.SetDefault("archive.fallback_keys", []string{})
	v.SetDefault("archive.mask", []string{`^customer_(id|name)$`})
}

// Load reads the configuration. An explicit path must exist; without one a
// pitstop.yaml in the working directory is used when present. Flags that
// were set on the command line override file and environment values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("pitstop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	for _, pattern := range cfg.Archive.Mask {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("invalid archive.mask pattern %q: %w", pattern, err)
		}
	}
	return &cfg, nil
}

// ArchiveKeys decodes the archive keys. A nil active key means documents are
// stored unencrypted.
func (c *Config) ArchiveKeys() (active []byte, fallback [][]byte, err error) {
	if c.Archive.Key == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(c.Archive.Key); err != nil {
		return nil, nil, fmt.Errorf("archive key: %w", err)
	}
	for i, k := range c.Archive.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("archive fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(key))
	}
	return key, nil
}

// sessionMargin covers the work of a run outside its external calls.
const sessionMargin = 10 * time.Second

// SessionTTL bounds how long a vehicle session outlives a crashed holder.
// It covers the worst case of one run: every enabled plugin and the
// scheduler timing out in turn.
func (c *Config) SessionTTL() time.Duration {
	ttl := c.Scheduler.Timeout + sessionMargin
	for _, p := range []process.ProcessConfig{c.Plugins.Classifier, c.Plugins.Composer} {
		if p.Enabled() {
			ttl += p.EffectiveTimeout()
		}
	}
	return max(ttl, session.DefaultTTL)
}

// LoadPolicy resolves the tool access policy, falling back to the built-in
// allow-list when no policy file is configured.
func (c *Config) LoadPolicy() (*policy.Policy, error) {
	if c.PolicyFile == "" {
		return policy.Default(), nil
	}
	f, err := os.Open(c.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy: %w", err)
	}
	defer f.Close()
	return policy.LoadYAML(f)
}
