package tomasulo

import (
	"github.com/rv32toma/tomasulo/timing/cache"
	"github.com/rv32toma/tomasulo/timing/latency"
)

// defaultROBCapacity, defaultRSCapacity, and defaultLSBCapacity are the
// structural capacities used when no Option overrides them.
const (
	defaultROBCapacity = 32
	defaultRSCapacity  = 32
	defaultLSBCapacity = 32
)

// config collects everything an Option can adjust before the Engine's
// sub-components are constructed. It exists only for the duration of
// New; nothing outside this package ever sees it.
type config struct {
	robCapacity int
	rsCapacity  int
	lsbCapacity int

	latency *latency.Table
	icache  *cache.Config

	commitHook func(pc uint32, committed bool)
}

func defaultConfig() config {
	return config{
		robCapacity: defaultROBCapacity,
		rsCapacity:  defaultRSCapacity,
		lsbCapacity: defaultLSBCapacity,
	}
}

// Option is a functional option for configuring an Engine at construction.
type Option func(*config)

// WithROBCapacity overrides the reorder buffer's entry capacity.
func WithROBCapacity(n int) Option {
	return func(c *config) {
		c.robCapacity = n
	}
}

// WithRSCapacity overrides the reservation station's entry capacity.
func WithRSCapacity(n int) Option {
	return func(c *config) {
		c.rsCapacity = n
	}
}

// WithLSBCapacity overrides the load/store buffer's entry capacity.
func WithLSBCapacity(n int) Option {
	return func(c *config) {
		c.lsbCapacity = n
	}
}

// WithLatencyTable overrides the ALU, load/store buffer, and predictor
// unit's per-unit execution latencies, as loaded from a JSON timing
// configuration.
func WithLatencyTable(table *latency.Table) Option {
	return func(c *config) {
		c.latency = table
	}
}

// WithCommitHook registers a callback invoked once per cycle in which
// an instruction commits (including the termination trap), with the committed
// instruction's fetch pc. Intended for the optional register-dump trace
// sink; purely observational, never consulted by the engine itself.
func WithCommitHook(fn func(pc uint32)) Option {
	return func(c *config) {
		c.commitHook = func(pc uint32, committed bool) {
			if committed {
				fn(pc)
			}
		}
	}
}

// WithInstructionCache enables an L1 instruction cache in front of
// fetch, configured by cfg. Disabled by default: fetch goes straight to
// memory with no miss penalty.
func WithInstructionCache(cfg cache.Config) Option {
	return func(c *config) {
		c.icache = &cfg
	}
}
