package service

import (
	"github.com/okian/comborank/internal/adapters/repository"
	"github.com/okian/comborank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource replaces the workbook the history is read from.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSink replaces the configured output sink.
func WithSink(sink repository.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithEditor coordinates the desktop editor around the write.
func WithEditor(e Editor) Option {
	return func(s *Service) {
		if e != nil {
			s.editor = e
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
