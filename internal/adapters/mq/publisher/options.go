package publisher

import (
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
)

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithName sets the publisher name used in logs.
func WithName(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the publisher.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}
