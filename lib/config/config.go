// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the h3xrecon client.
type Config struct {
	// Redis configures the connection shared by the cache and the bus.
	Redis RedisConfig `yaml:"redis"`

	// Bus configures stream and channel naming on top of Redis.
	Bus BusConfig `yaml:"bus"`

	// Database configures the program and asset store.
	Database DatabaseConfig `yaml:"database"`

	// Fleet configures administrative reply rounds.
	Fleet FleetConfig `yaml:"fleet"`

	// Jobs configures dispatch rate limiting.
	Jobs JobsConfig `yaml:"jobs"`

	// Queue configures queue inspection.
	Queue QueueConfig `yaml:"queue"`

	// Workflows names reusable job lists for the workflow command.
	Workflows map[string]Workflow `yaml:"workflows"`

	// Logging configures the command logger.
	Logging LoggingConfig `yaml:"logging"`
}

// RedisConfig configures the Redis deployment.
type RedisConfig struct {
	// Mode is single, cluster, or sentinel.
	Mode string `yaml:"mode"`

	// Addresses lists host:port endpoints. For sentinel mode these are
	// the sentinels.
	Addresses []string `yaml:"addresses"`

	// Host and Port are the legacy single-endpoint form. They are folded
	// into Addresses when Addresses is empty.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// SentinelMaster is the master name for sentinel mode.
	SentinelMaster string `yaml:"sentinel_master"`

	// CacheDB holds rate-limit entries and cached results.
	CacheDB int `yaml:"cache_db"`

	// StatusDB holds component status entries.
	StatusDB int `yaml:"status_db"`

	PoolSize     int      `yaml:"pool_size"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// BusConfig configures the message bus keyspace.
type BusConfig struct {
	// Prefix namespaces every stream key and pub/sub channel.
	Prefix string `yaml:"prefix"`

	// DB is the Redis database holding the streams. Pub/sub channels
	// are global to the server regardless of DB.
	DB int `yaml:"db"`
}

// DatabaseConfig configures the store backend.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver"`

	// DSN, when set, is used verbatim by the postgres driver.
	DSN string `yaml:"dsn"`

	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Database string            `yaml:"database"`
	Params   map[string]string `yaml:"params"`

	MaxOpenConns int      `yaml:"max_open_conns"`
	MaxIdleConns int      `yaml:"max_idle_conns"`
	ConnMaxLife  Duration `yaml:"conn_max_life"`

	// LogLevel is the gorm log level: silent, error, warn, info.
	LogLevel      string   `yaml:"log_level"`
	SlowThreshold Duration `yaml:"slow_threshold"`

	// Path is the SQLite database file for the sqlite driver.
	Path string `yaml:"path"`

	// PoolSize is the SQLite connection pool size.
	PoolSize int `yaml:"pool_size"`
}

// FleetConfig configures fleet control rounds.
type FleetConfig struct {
	// Timeout is the reply collection window of one round.
	Timeout Duration `yaml:"timeout"`
}

// JobsConfig configures the dispatch cooldown policy. The cooldowns
// mirror what the workers enforce; the client only reads them.
type JobsConfig struct {
	// DefaultCooldown applies to functions without an explicit entry.
	DefaultCooldown Duration `yaml:"default_cooldown"`

	// Cooldowns maps function names to their cooldown. When non-empty,
	// it is also the set of known functions: dispatching anything else
	// is rejected.
	Cooldowns map[string]Duration `yaml:"cooldowns"`

	// AckTimeout bounds each stage of "sendjob --wait-ack": the wait
	// for the recon worker's acknowledgement, then the wait for the
	// parsing worker's completion.
	AckTimeout Duration `yaml:"ack_timeout"`
}

// Workflow is a named list of jobs sent together against each target.
type Workflow struct {
	Jobs []WorkflowJob `yaml:"jobs"`
}

// WorkflowJob is one job template of a workflow. Force and
// TriggerNewJobs override the command line when set.
type WorkflowJob struct {
	Function       string   `yaml:"function"`
	Params         []string `yaml:"params"`
	Wordlist       string   `yaml:"wordlist"`
	Mode           string   `yaml:"mode"`
	Force          *bool    `yaml:"force"`
	TriggerNewJobs *bool    `yaml:"trigger_new_jobs"`
}

// QueueConfig configures queue inspection.
type QueueConfig struct {
	// PageLimit bounds how many pending messages "messages" returns.
	PageLimit int `yaml:"page_limit"`
}

// LoggingConfig configures the command logger and its optional file.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is auto, text, or json for stderr. Auto picks text on a
	// terminal and JSON otherwise.
	Format string `yaml:"format"`

	// FilePath enables a rotating JSON log file when set.
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration used when no file exists and the
// base that every loaded file is decoded on top of.
func Default() *Config {
	homeDirectory, _ := os.UserHomeDir()

	return &Config{
		Redis: RedisConfig{
			Mode:         "single",
			Addresses:    nil,
			CacheDB:      0,
			StatusDB:     1,
			PoolSize:     10,
			DialTimeout:  Duration(5 * time.Second),
			ReadTimeout:  Duration(3 * time.Second),
			WriteTimeout: Duration(3 * time.Second),
		},
		Bus: BusConfig{
			Prefix: "h3xrecon",
		},
		Database: DatabaseConfig{
			Driver:        "postgres",
			Host:          "localhost",
			Port:          5432,
			User:          "h3xrecon",
			Database:      "h3xrecon",
			MaxOpenConns:  10,
			MaxIdleConns:  2,
			ConnMaxLife:   Duration(30 * time.Minute),
			LogLevel:      "warn",
			SlowThreshold: Duration(200 * time.Millisecond),
			Path:          filepath.Join(homeDirectory, ".h3xrecon", "h3xrecon.db"),
		},
		Fleet: FleetConfig{
			Timeout: Duration(3 * time.Second),
		},
		Jobs: JobsConfig{
			DefaultCooldown: Duration(24 * time.Hour),
			AckTimeout:      Duration(2 * time.Minute),
		},
		Queue: QueueConfig{
			PageLimit: 20,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "auto",
			MaxSizeMB:  500,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Resolve returns the configuration file path to load, or "" when no
// file exists and defaults apply. An explicit path is returned as-is
// even if missing, so that LoadFile reports the error.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := os.Getenv("H3XRECON_CONFIG"); envPath != "" {
		return envPath
	}

	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	homeDirectory, homeErr := os.UserHomeDir()
	if configDirectory == "" && homeErr == nil {
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	if configDirectory != "" {
		candidate := filepath.Join(configDirectory, "h3xrecon", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if homeErr == nil {
		legacy := filepath.Join(homeDirectory, ".h3xrecon", "config.json")
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}
	return ""
}

// Load resolves the configuration path and loads it, falling back to
// [Default] when no file exists. The returned path is "" in that case.
func Load(explicit string) (*Config, string, error) {
	path := Resolve(explicit)
	if path == "" {
		cfg := Default()
		cfg.normalize()
		return cfg, "", nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFile loads configuration from path on top of [Default].
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	cfg.normalize()
	return cfg, nil
}

// normalize folds legacy fields into their current form.
func (c *Config) normalize() {
	if len(c.Redis.Addresses) == 0 {
		host := c.Redis.Host
		if host == "" {
			host = "localhost"
		}
		port := c.Redis.Port
		if port == 0 {
			port = 6379
		}
		c.Redis.Addresses = []string{net.JoinHostPort(host, strconv.Itoa(port))}
	}
	c.Redis.Mode = strings.ToLower(c.Redis.Mode)
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

// expandVariables expands ${VAR} and ${VAR:-default} in fields that
// commonly carry secrets or paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	for index, address := range c.Redis.Addresses {
		c.Redis.Addresses[index] = expandVars(address, vars)
	}
	c.Redis.Host = expandVars(c.Redis.Host, vars)
	c.Redis.Password = expandVars(c.Redis.Password, vars)
	c.Database.DSN = expandVars(c.Database.DSN, vars)
	c.Database.Host = expandVars(c.Database.Host, vars)
	c.Database.Password = expandVars(c.Database.Password, vars)
	c.Database.Path = expandVars(c.Database.Path, vars)
	c.Logging.FilePath = expandVars(c.Logging.FilePath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, checking vars
// before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Redis.Mode {
	case "single", "cluster":
	case "sentinel":
		if c.Redis.SentinelMaster == "" {
			errs = append(errs, fmt.Errorf("redis.sentinel_master is required in sentinel mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("redis.mode must be one of single, cluster, sentinel: got %q", c.Redis.Mode))
	}
	if len(c.Redis.Addresses) == 0 {
		errs = append(errs, fmt.Errorf("redis.addresses is required"))
	}
	if c.Redis.CacheDB == c.Redis.StatusDB {
		errs = append(errs, fmt.Errorf("redis.cache_db and redis.status_db must differ (both %d)", c.Redis.CacheDB))
	}

	if strings.TrimSpace(c.Bus.Prefix) == "" {
		errs = append(errs, fmt.Errorf("bus.prefix is required"))
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "") {
			errs = append(errs, fmt.Errorf("database: host, user and database are required when dsn is not set"))
		}
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, fmt.Errorf("database.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite: got %q", c.Database.Driver))
	}

	if c.Fleet.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fleet.timeout must be positive"))
	}
	if c.Jobs.DefaultCooldown < 0 {
		errs = append(errs, fmt.Errorf("jobs.default_cooldown must not be negative"))
	}
	for function, cooldown := range c.Jobs.Cooldowns {
		if cooldown < 0 {
			errs = append(errs, fmt.Errorf("jobs.cooldowns.%s must not be negative", function))
		}
	}
	if c.Jobs.AckTimeout <= 0 {
		errs = append(errs, fmt.Errorf("jobs.ack_timeout must be positive"))
	}
	for name, workflow := range c.Workflows {
		if len(workflow.Jobs) == 0 {
			errs = append(errs, fmt.Errorf("workflows.%s has no jobs", name))
		}
		for index, job := range workflow.Jobs {
			if strings.TrimSpace(job.Function) == "" {
				errs = append(errs, fmt.Errorf("workflows.%s.jobs[%d].function is required", name, index))
				continue
			}
			if _, known := c.Jobs.Cooldown(job.Function); !known {
				errs = append(errs, fmt.Errorf("workflows.%s.jobs[%d]: unknown function %q", name, index, job.Function))
			}
		}
	}
	if c.Queue.PageLimit <= 0 {
		errs = append(errs, fmt.Errorf("queue.page_limit must be positive"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error: got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of auto, text, json: got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Cooldown returns the cooldown window for function and whether the
// function is known. With no explicit cooldown table every function is
// known and gets DefaultCooldown.
func (j JobsConfig) Cooldown(function string) (time.Duration, bool) {
	if len(j.Cooldowns) == 0 {
		return j.DefaultCooldown.Std(), true
	}
	cooldown, ok := j.Cooldowns[function]
	if !ok {
		return 0, false
	}
	return cooldown.Std(), true
}
