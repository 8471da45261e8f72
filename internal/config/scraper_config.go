package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type ScraperConfig struct {
	URL                  string        `mapstructure:"url"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second"`
	RefreshCooldown      time.Duration `mapstructure:"refresh_cooldown"`
	Schedule             string        `mapstructure:"schedule"`
	RefreshOnStart       bool          `mapstructure:"refresh_on_start"`
}

func (config ScraperConfig) setDefaults() {
	viper.SetDefault("scraper.url", "https://ipu.admissions.nic.in/schedule-notices/")
	viper.SetDefault("scraper.timeout", 30*time.Second)
	viper.SetDefault("scraper.max_requests_per_second", 1)
	viper.SetDefault("scraper.refresh_cooldown", 6*time.Hour)
	viper.SetDefault("scraper.schedule", "0 */6 * * *")
	viper.SetDefault("scraper.refresh_on_start", true)
}

func (config ScraperConfig) validate() error {
	var errs []error

	if config.URL == "" {
		errs = append(errs, fmt.Errorf("missing variable: url"))
	}
	if config.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if config.MaxRequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("max_requests_per_second must be positive"))
	}
	if config.RefreshCooldown <= 0 {
		errs = append(errs, fmt.Errorf("refresh_cooldown must be positive"))
	}
	if config.Schedule != "" {
		if _, err := cron.ParseStandard(config.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid schedule %q: %w", config.Schedule, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config ScraperConfig) bindEnvironmentVariables() error {
	var errs []error

	bindings := map[string]string{
		"scraper.url":              "SCRAPER_URL",
		"scraper.timeout":          "SCRAPER_TIMEOUT",
		"scraper.refresh_cooldown": "REFRESH_COOLDOWN",
		"scraper.schedule":         "REFRESH_SCHEDULE",
		"scraper.refresh_on_start": "REFRESH_ON_START",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
