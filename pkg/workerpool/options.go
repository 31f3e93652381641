package workerpool

import (
	"threadpool/internal/metrics"
	"threadpool/pkg/logger"
)

const defaultPoolName = "default"

type options struct {
	name    string
	logger  *logger.CustomZapLogger
	metrics *metrics.PoolMetrics
}

func defaultOptions() options {
	return options{
		name:   defaultPoolName,
		logger: logger.NewNop(),
	}
}

// Option настраивает пул при создании
type Option func(*options)

// WithName задает имя пула (метка в логах и метриках)
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger задает логгер пула
func WithLogger(l *logger.CustomZapLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics включает метрики Prometheus
func WithMetrics(m *metrics.PoolMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
