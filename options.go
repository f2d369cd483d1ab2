package simdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	weights     Weights
	stopWords   []string
	workers     int
	maxItems    int
	taskTimeout time.Duration
	logger      *zap.Logger
}

// WithWeights overrides the combined score weights.
// They must be non-negative and sum to 1. Default: 0.30/0.30/0.25/0.15.
func WithWeights(w Weights) Option {
	return optionFunc(func(c *engineConfig) {
		c.weights = w
	})
}

// WithStopWords replaces the built-in Portuguese/English/Spanish stop-word list.
func WithStopWords(words ...string) Option {
	return optionFunc(func(c *engineConfig) {
		c.stopWords = words
	})
}

// WithWorkers sets how many comparisons run concurrently. Default: 2.
func WithWorkers(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.workers = n
	})
}

// WithMaxItems caps the number of documents compared per call. Default: 200.
func WithMaxItems(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.maxItems = n
	})
}

// WithTaskTimeout bounds a single pairwise comparison. Default: 30s.
func WithTaskTimeout(d time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.taskTimeout = d
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *engineConfig) {
		c.logger = l
	})
}
