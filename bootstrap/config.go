package bootstrap

import (
	"fmt"
	"time"

	"github.com/kbukum/injector/config"
	"github.com/kbukum/injector/inspect"
	"github.com/kbukum/injector/observability"
	"github.com/kbukum/injector/validation"
)

// Config is the interface constraint for application configuration types.
// Any struct embedding AppConfig satisfies it via promoted methods.
//
//	type MyConfig struct {
//	    bootstrap.AppConfig `yaml:",inline" mapstructure:",squash"`
//	    Workers int `yaml:"workers" mapstructure:"workers"`
//	}
type Config interface {
	GetAppConfig() *AppConfig
	ApplyDefaults()
	Validate() error
}

// ContainerConfig controls how the application's container is set up.
type ContainerConfig struct {
	// Validate runs Container.Validate at startup and fails on problems.
	Validate bool `yaml:"validate" mapstructure:"validate" json:"validate"`
	// Eager constructs every singleton at startup, in dependency order.
	Eager bool `yaml:"eager" mapstructure:"eager" json:"eager"`
	// UseGlobal makes the application use di.Global() instead of a fresh container.
	UseGlobal bool `yaml:"use_global" mapstructure:"use_global" json:"use_global"`
}

// AppConfig is the configuration every injector application shares.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Container ContainerConfig            `yaml:"container" mapstructure:"container" json:"container"`
	Tracing   observability.TracerConfig `yaml:"tracing" mapstructure:"tracing" json:"tracing"`
	Metrics   observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics" json:"metrics"`
	Inspect   inspect.Config             `yaml:"inspect" mapstructure:"inspect" json:"inspect"`

	// Values are registered as di.Name("config.<dotted.key>") values.
	Values map[string]any `yaml:"values" mapstructure:"values" json:"values"`
}

// GetAppConfig returns the embedded AppConfig.
func (c *AppConfig) GetAppConfig() *AppConfig { return c }

// ApplyDefaults fills unset fields, propagating service identity into the
// telemetry blocks.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}

	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Version
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 15 * time.Second
	}

	c.Inspect.ApplyDefaults()
}

// Validate checks every block. The inspect block is only checked when enabled.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(&c.Tracing); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if c.Inspect.Enabled {
		if err := c.Inspect.Validate(); err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
	}
	return nil
}

// Load reads the AppConfig of serviceName from config.yml, .env and the
// environment. Defaults and validation run later in NewApp.
func Load(serviceName string, opts ...config.LoaderOption) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	return cfg, nil
}
