package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Watch    WatchConfig    `yaml:"watch"`
}

type SourceConfig struct {
	// Patterns: каталоги или glob-шаблоны (doublestar) с *.metaed
	Patterns         []string `yaml:"patterns"`
	SyntaxValidation bool     `yaml:"syntaxValidation"`
	Concurrency      int      `yaml:"concurrency"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// ForceReload подменяет модель при reload, даже если есть ошибки
	ForceReload bool `yaml:"forceReload"`
}

type DatabaseConfig struct {
	// URL: postgres://... или sqlite://path; пусто: экспорт выключен
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"autoMigrate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

func Default() Config {
	return Config{
		Source: SourceConfig{
			Patterns:         []string{"metaed"},
			SyntaxValidation: true,
			Concurrency:      4,
		},
		Server: ServerConfig{Port: "8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Watch:  WatchConfig{Debounce: 300 * time.Millisecond},
	}
}

// Load читает YAML поверх значений по умолчанию. Отсутствующий файл: не ошибка.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	if v, ok := os.LookupEnv(k); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}

// ApplyEnv накладывает METAED_* поверх текущих значений.
func (c *Config) ApplyEnv() {
	if v := getenv("METAED_SOURCES", ""); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		c.Source.Patterns = patterns
	}
	c.Source.SyntaxValidation = getenvBool("METAED_SYNTAX_VALIDATION", c.Source.SyntaxValidation)
	c.Source.Concurrency = getenvInt("METAED_CONCURRENCY", c.Source.Concurrency)

	c.Server.Port = getenv("METAED_PORT", c.Server.Port)
	c.Server.ForceReload = getenvBool("METAED_FORCE_RELOAD", c.Server.ForceReload)

	c.Database.URL = getenv("METAED_DB_URL", c.Database.URL)
	c.Database.AutoMigrate = getenvBool("METAED_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Log.Level = getenv("METAED_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenv("METAED_LOG_FORMAT", c.Log.Format)

	c.Watch.Enabled = getenvBool("METAED_WATCH", c.Watch.Enabled)
	c.Watch.Debounce = getenvDuration("METAED_WATCH_DEBOUNCE", c.Watch.Debounce)
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Source.Patterns) == 0 {
		errs = append(errs, errors.New("source.patterns: at least one pattern is required"))
	}
	if c.Source.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("source.concurrency: must be positive, got %d", c.Source.Concurrency))
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("server.port: invalid port %q", c.Server.Port))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		errs = append(errs, errors.New("watch.debounce: must be positive when watch is enabled"))
	}
	return errors.Join(errs...)
}
