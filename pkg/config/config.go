// Package config implements the layered configuration store of spec.md §6:
// environment variable > file (CWD, project root, user dir, system dir, in
// that order) > built-in default. Grounded on the teacher's
// Lens/core/pkg/config struct style, but uses spf13/viper (the pack's
// standard layered-config library, also a dependency of job-manager and
// brokle-ai-brokle) for the precedence machinery instead of hand-rolling it.
// Boolean keys are parsed by their typed getter, which accepts
// true|false|1|0|yes|no|on|off.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

// Config is the typed view over the layered store. Read-only after Load;
// calling Load again builds a new Config and installs it with an atomic
// pointer swap (spec.md §5: "Config: read-only after load; reloads via
// atomic pointer swap").
type Config struct {
	v *viper.Viper
}

var current atomic.Pointer[Config]

const envPrefix = "AUTOSCORER"

var defaults = map[string]interface{}{
	"default_executor":   "container",
	"image_pull_policy":  "if-not-present",
	"default_cpu":        1.0,
	"default_memory":     "1Gi",
	"default_gpu":        0,
	"timeout":            1800,
	"cluster_enabled":    false,
	"cluster_namespace":  "autoscorer",
	"task_broker":        "memory",
	"log_dir":            "./logs",
	"workspace_root":     "./workspaces",
	"security_opts":      []string{"no-new-privileges"},
	"scorer_timeout":     "5m",
	"retry_max_attempts": 3,
	"retry_base_delay":   "500ms",
	"retry_max_delay":    "30s",
	"circuit_breaker_threshold": 5,
	"circuit_breaker_cooldown":  "60s",
	"hot_reload_interval":       "1s",
	"callback_max_attempts":     5,
	"memory_threshold":          "8Gi",
	"max_cpu":                   16.0,
	"max_memory":                "64Gi",
	"max_gpu":                   8,
}

// searchPaths returns the ordered list of directories viper should search
// for a config file, per spec.md §6's precedence: CWD, project root (walked
// up looking for go.mod), user dir, system dir.
func searchPaths() []string {
	paths := []string{"."}
	if root, ok := findProjectRoot("."); ok {
		paths = append(paths, root)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".autoscorer"))
	}
	paths = append(paths, "/etc/autoscorer")
	return paths
}

func findProjectRoot(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load builds a Config from defaults, config files (searched in
// searchPaths order) and environment variables (AUTOSCORER_* wins), and
// installs it as the process-wide current config.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigName("autoscorer")
	v.SetConfigType("yaml")
	for _, p := range searchPaths() {
		v.AddConfigPath(p)
	}
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file found anywhere in the search path: defaults +
		// environment only, which is a valid configuration.
	}

	cfg := &Config{v: v}
	current.Store(cfg)
	return cfg, nil
}

// Current returns the most recently loaded Config, loading defaults-only if
// nothing has been loaded yet.
func Current() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	c, _ := Load("")
	return c
}

func (c *Config) DefaultExecutor() string   { return c.v.GetString("default_executor") }
func (c *Config) ImagePullPolicy() string   { return c.v.GetString("image_pull_policy") }
func (c *Config) DefaultCPU() float64       { return c.v.GetFloat64("default_cpu") }
func (c *Config) DefaultMemory() string     { return c.v.GetString("default_memory") }
func (c *Config) DefaultGPU() int           { return c.v.GetInt("default_gpu") }
func (c *Config) Timeout() time.Duration    { return time.Duration(c.v.GetInt("timeout")) * time.Second }
func (c *Config) ClusterEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(c.v.GetString("cluster_enabled"))) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
func (c *Config) ClusterNamespace() string  { return c.v.GetString("cluster_namespace") }
func (c *Config) TaskBroker() string        { return c.v.GetString("task_broker") }
func (c *Config) LogDir() string            { return c.v.GetString("log_dir") }
func (c *Config) WorkspaceRoot() string     { return c.v.GetString("workspace_root") }
func (c *Config) SecurityOpts() []string    { return c.v.GetStringSlice("security_opts") }
func (c *Config) ScorerTimeout() time.Duration { return c.v.GetDuration("scorer_timeout") }
func (c *Config) RetryMaxAttempts() int     { return c.v.GetInt("retry_max_attempts") }
func (c *Config) RetryBaseDelay() time.Duration { return c.v.GetDuration("retry_base_delay") }
func (c *Config) RetryMaxDelay() time.Duration  { return c.v.GetDuration("retry_max_delay") }
func (c *Config) CircuitBreakerThreshold() int  { return c.v.GetInt("circuit_breaker_threshold") }
func (c *Config) CircuitBreakerCooldown() time.Duration {
	return c.v.GetDuration("circuit_breaker_cooldown")
}
func (c *Config) HotReloadInterval() time.Duration { return c.v.GetDuration("hot_reload_interval") }
func (c *Config) CallbackMaxAttempts() int         { return c.v.GetInt("callback_max_attempts") }

// MemoryThreshold is the raw size string above which the selection policy
// prefers Cluster over Container (spec.md §4.3.4 step 2).
func (c *Config) MemoryThreshold() string { return c.v.GetString("memory_threshold") }

// MaxCPU, MaxMemory and MaxGPU are the configured resource ceilings an
// Executor rejects a JobSpec against with RESOURCE_QUOTA_EXCEEDED
// (spec.md §4.3.1 step 4).
func (c *Config) MaxCPU() float64    { return c.v.GetFloat64("max_cpu") }
func (c *Config) MaxMemory() string  { return c.v.GetString("max_memory") }
func (c *Config) MaxGPU() int        { return c.v.GetInt("max_gpu") }

// AllSettings exposes the fully resolved key-value view, used by the CLI's
// `config dump` verb.
func (c *Config) AllSettings() map[string]interface{} { return c.v.AllSettings() }

// ConfigFileUsed reports which file (if any) contributed to this Config,
// used by the CLI's `config paths` verb.
func (c *Config) ConfigFileUsed() string { return c.v.ConfigFileUsed() }

// SearchPaths exposes the precedence order used to locate a config file.
func (c *Config) SearchPaths() []string { return searchPaths() }

// Validate performs basic sanity checks used by the CLI's `config validate`
// verb, surfacing a CONFIG_VALIDATION_ERROR-coded problem list.
func (c *Config) Validate() []string {
	var problems []string
	switch c.DefaultExecutor() {
	case "local", "container", "cluster":
	default:
		problems = append(problems, fmt.Sprintf("default_executor %q is not one of local|container|cluster", c.DefaultExecutor()))
	}
	if c.DefaultCPU() <= 0 {
		problems = append(problems, "default_cpu must be > 0")
	}
	if c.RetryMaxAttempts() < 0 {
		problems = append(problems, "retry_max_attempts must be >= 0")
	}
	return problems
}
