package stages

import (
	"io"
	"time"

	"github.com/andriiyaremenko/stages/config"
	"github.com/andriiyaremenko/stages/logger"
	"go.opentelemetry.io/otel/metric"
)

type options struct {
	name     string
	log      *logger.Logger
	meter    metric.MeterProvider
	resource io.Closer
	cooldown time.Duration
	// cooldownSet distinguishes an explicit zero cooldown from the default.
	cooldownSet bool
	mode        OpenMode
	format      Format
}

// Option configures a stage.
type Option func(*options)

func newOptions(defaultName string, opts []Option) options {
	o := options{name: defaultName}
	for _, option := range opts {
		option(&o)
	}

	if o.log == nil {
		o.log = logger.Nop()
	}

	return o
}

// WithName sets the stage name used in logs, metrics and errors.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger. The stage tags it with its name as component.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMeterProvider sets the meter provider. The global provider is used by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

// WithResource registers a resource a Producer releases on Dispose, e.g. an open file reader.
func WithResource(c io.Closer) Option {
	return func(o *options) { o.resource = c }
}

// WithCooldown sets the minimum interval between operation invocations of a ThrottledConsumer.
func WithCooldown(d time.Duration) Option {
	return func(o *options) { o.cooldown, o.cooldownSet = max(d, 0), true }
}

// WithOpenMode sets the mode a Writer opens its target with in Run.
func WithOpenMode(mode OpenMode) Option {
	return func(o *options) { o.mode = mode }
}

// WithFormat sets how a Writer formats items in Run.
func WithFormat(format Format) Option {
	return func(o *options) { o.format = format }
}

// WithStageConfig applies cooldown, mode and format from cfg.
func WithStageConfig(cfg config.Stage) Option {
	return func(o *options) {
		cfg.ApplyDefaults()

		o.cooldown, o.cooldownSet = max(cfg.Cooldown, 0), true
		o.mode, o.format = Append, Lines
		if cfg.Mode == "truncate" {
			o.mode = Truncate
		}
		if cfg.Format == "raw" {
			o.format = Raw
		}
	}
}
