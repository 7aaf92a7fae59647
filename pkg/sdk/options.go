package obsoper

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "memory"
	addrs    []string
	password string

	keyPrefix  string
	cacheSize  int
	workers    int
	neighbours int
	cell       string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores grids in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory keeps grids in process memory. Grids are lost on Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
	})
}

// WithKeyPrefix namespaces the stored keys. Default: "obsoper:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithSearchCacheSize bounds how many grid searches are kept built in memory.
// Default: 16.
func WithSearchCacheSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = n
	})
}

// WithWorkers bounds the goroutines one lookup is split across.
// Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithNeighbours caps the candidate vertices a cartesian lookup tries.
// Default: 8.
func WithNeighbours(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.neighbours = k
	})
}

// WithCellTest selects the point-in-cell test: "polygon" (default) or
// "unit_square".
func WithCellTest(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cell = name
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
