// Package config loads pipeline configuration from YAML files, .env files and the environment.
package config

import (
	"time"

	"github.com/andriiyaremenko/stages/logger"
)

// Config is the top-level configuration of a set of stages.
type Config struct {
	Name    string           `yaml:"name" mapstructure:"name" validate:"required"`
	Logging logger.Config    `yaml:"logging" mapstructure:"logging"`
	Stages  map[string]Stage `yaml:"stages" mapstructure:"stages" validate:"dive"`
}

// Stage configures a single stage and the container it writes to.
type Stage struct {
	// Cooldown is the minimum interval between asynchronous operation invocations.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown" validate:"gte=0"`
	// Capacity bounds the output container; zero means unbounded.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gte=0"`
	// Path is the sink target of a writer stage.
	Path   string `yaml:"path" mapstructure:"path"`
	Mode   string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=append truncate"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=lines raw"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	c.Logging.ApplyDefaults()

	for name, stage := range c.Stages {
		stage.ApplyDefaults()
		c.Stages[name] = stage
	}
}

// ApplyDefaults applies default values to stage configuration.
func (s *Stage) ApplyDefaults() {
	if s.Mode == "" {
		s.Mode = "append"
	}
	if s.Format == "" {
		s.Format = "lines"
	}
}

// Stage returns the configuration of the named stage with defaults applied.
func (c *Config) Stage(name string) Stage {
	s := c.Stages[name]
	s.ApplyDefaults()

	return s
}
