// Package config содержит логику чтения конфигурации сервиса заказов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress      = "localhost:8080"
	defaultPolicy          = "flag"
	defaultDealRefresh     = 30 * time.Second
	defaultCatalogSync     = 10 * time.Second
	defaultTimezone        = "Asia/Riyadh"
	defaultAuthSecretValue = "astren-secret"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress          string        `env:"RUN_ADDRESS"`
	DatabaseURI         string        `env:"DATABASE_URI"`
	CatalogFeedAddress  string        `env:"CATALOG_FEED_ADDRESS"`
	AuthSecret          string        `env:"AUTH_SECRET"`
	AvailabilityPolicy  string        `env:"AVAILABILITY_POLICY"`
	DealRefreshInterval time.Duration `env:"DEAL_REFRESH_INTERVAL"`
	CatalogSyncInterval time.Duration `env:"CATALOG_SYNC_INTERVAL"`
	Timezone            string        `env:"TIMEZONE"`
}

// Location возвращает временную зону для расписаний акций.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.CatalogFeedAddress, "r", "", "remote catalog feed address")
	flag.StringVar(&cfg.AuthSecret, "s", defaultAuthSecretValue, "secret used to sign auth cookies")
	flag.StringVar(&cfg.AvailabilityPolicy, "p", defaultPolicy, "deal availability policy: flag or schedule")
	flag.DurationVar(&cfg.DealRefreshInterval, "i", defaultDealRefresh, "deal badge refresh interval")
	flag.DurationVar(&cfg.CatalogSyncInterval, "c", defaultCatalogSync, "catalog snapshot sync interval")
	flag.StringVar(&cfg.Timezone, "tz", defaultTimezone, "timezone for deal schedules")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.CatalogFeedAddress != "" {
		cfg.CatalogFeedAddress = envCfg.CatalogFeedAddress
	}
	if envCfg.AuthSecret != "" {
		cfg.AuthSecret = envCfg.AuthSecret
	}
	if envCfg.AvailabilityPolicy != "" {
		cfg.AvailabilityPolicy = envCfg.AvailabilityPolicy
	}
	if envCfg.DealRefreshInterval > 0 {
		cfg.DealRefreshInterval = envCfg.DealRefreshInterval
	}
	if envCfg.CatalogSyncInterval > 0 {
		cfg.CatalogSyncInterval = envCfg.CatalogSyncInterval
	}
	if envCfg.Timezone != "" {
		cfg.Timezone = envCfg.Timezone
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	switch cfg.AvailabilityPolicy {
	case "flag", "schedule":
	default:
		return nil, fmt.Errorf("unknown availability policy %q", cfg.AvailabilityPolicy)
	}

	if cfg.DealRefreshInterval <= 0 || cfg.DealRefreshInterval > time.Minute {
		return nil, fmt.Errorf("deal refresh interval must be within (0, 1m], got %s", cfg.DealRefreshInterval)
	}

	return cfg, nil
}
