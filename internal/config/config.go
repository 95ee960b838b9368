// Package config loads the process's tunables with the precedence an
// operator expects: environment variables override an optional YAML
// file, which overrides the defaults below.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every tunable named in spec.md §6/§9.
type Config struct {
	Port             int    `koanf:"port" validate:"required,gt=0,lt=65536"`
	DBPath           string `koanf:"db_path" validate:"required"`
	SnapshotInterval int    `koanf:"snapshot_interval" validate:"required,gt=0"`
	MaxSnapshots     int    `koanf:"max_snapshots" validate:"required,gt=0"`
	LogLevel         string `koanf:"log_level" validate:"required"`
	CorsOrigin       string `koanf:"cors_origin" validate:"required"`
}

// Default returns the config's zero-config defaults, matching spec.md's
// documented constants: port 8000, SNAPSHOT_INTERVAL 50, MAX_SNAPSHOTS 16.
func Default() Config {
	return Config{
		Port:             8000,
		DBPath:           "./data/judging.db",
		SnapshotInterval: 50,
		MaxSnapshots:     16,
		LogLevel:         "info",
		CorsOrigin:       "*",
	}
}

// Load builds a Config from, in ascending priority: the defaults, an
// optional YAML file at configPath, and environment variables
// (PORT, DB_PATH, SNAPSHOT_INTERVAL, MAX_SNAPSHOTS, LOG_LEVEL,
// CORS_ORIGIN).
func Load(configPath string) (Config, error) {
	k := koanf.New(".")

	def := Default()
	defaults := map[string]any{
		"port":              def.Port,
		"db_path":           def.DBPath,
		"snapshot_interval": def.SnapshotInterval,
		"max_snapshots":     def.MaxSnapshots,
		"log_level":         def.LogLevel,
		"cors_origin":       def.CorsOrigin,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
