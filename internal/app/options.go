package service

import (
	"github.com/chow-chow/rubik/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many goroutines resolve names. One or less resolves inline.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize caps the resolution queue. Zero sizes it to the pass.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.queueSize = size
		}
	}
}

// WithEnrich copies the matched record's name and rating onto linked references.
func WithEnrich(enrich bool) Option {
	return func(s *Service) {
		s.enrich = enrich
	}
}

// WithLockPath sets the file guarding passes across processes. Empty disables it.
func WithLockPath(path string) Option {
	return func(s *Service) {
		s.lockPath = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
