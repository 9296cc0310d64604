// Package config loads server configuration from NESTSTASH_-prefixed
// environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"neststash.db"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Asset cache: which generation to serve, where to fetch it from,
	// and which paths to install up front.
	AssetVersion  string   `env:"ASSET_VERSION" envDefault:"v1"`
	AssetOrigin   string   `env:"ASSET_ORIGIN"`
	AssetManifest []string `env:"ASSET_MANIFEST" envSeparator:"," envDefault:"/,/index.html,/app.js,/styles.css,/manifest.json"`

	// Minimum savings, in percent, before a bulk recompression pass
	// rewrites a stored photo.
	MinSavingsPercent int `env:"MIN_SAVINGS_PERCENT" envDefault:"15"`

	Backup BackupConfig `envPrefix:"BACKUP_"`
}

// BackupConfig configures the optional off-site S3 backup. Leaving the
// bucket or keys empty disables it.
type BackupConfig struct {
	Endpoint   string `env:"S3_ENDPOINT"`
	Region     string `env:"S3_REGION" envDefault:"auto"`
	Bucket     string `env:"S3_BUCKET"`
	AccessKey  string `env:"S3_ACCESS_KEY"`
	SecretKey  string `env:"S3_SECRET_KEY"`
	Passphrase string `env:"PASSPHRASE"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "NESTSTASH_"}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.MinSavingsPercent < 0 || cfg.MinSavingsPercent > 100 {
		return Config{}, fmt.Errorf("min savings percent %d out of range", cfg.MinSavingsPercent)
	}
	return cfg, nil
}
