package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
)

type ServerConfig struct {
	Env             Environment   `mapstructure:"env"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (config ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", config.Port)
}

func (config ServerConfig) setDefaults() {
	viper.SetDefault("server.env", Production)
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", time.Minute)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
}

func (config ServerConfig) validate() error {
	if config.Env != Production && config.Env != Development {
		return fmt.Errorf("env must be %q or %q, got %q", Production, Development, config.Env)
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	return nil
}

func (config ServerConfig) bindEnvironmentVariables() error {
	var errs []error
	if err := viper.BindEnv("server.env", "ENV"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("server.port", "SERVER_PORT"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
