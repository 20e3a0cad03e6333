// Package core provides the cycle-accurate CPU core model. It wraps the
// out-of-order Tomasulo engine to give callers (the CLI, tests, and the
// optional instruction-cache front end) a single high-level handle on a
// run: feed it a program counter, Tick it, and read back statistics.
package core

import (
	"github.com/rv32toma/tomasulo/emu"
	"github.com/rv32toma/tomasulo/timing/cache"
	"github.com/rv32toma/tomasulo/timing/tomasulo"
)

// Stats holds performance statistics for a completed or in-progress run.
type Stats struct {
	Cycles    uint64
	Committed uint64
	Flushes   uint64
}

// CPI returns cycles committed per retired instruction.
func (s Stats) CPI() float64 {
	if s.Committed == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Committed)
}

// Core wraps the Tomasulo engine and the register file and memory it
// operates over.
type Core struct {
	engine *tomasulo.Engine

	regFile *emu.RegFile
	memory  *emu.Memory
}

// NewCore creates a new Core with the given register file and memory,
// applying any engine options (structural capacities) supplied.
func NewCore(regFile *emu.RegFile, memory *emu.Memory, opts ...tomasulo.Option) *Core {
	return &Core{
		engine:  tomasulo.New(regFile, memory, opts...),
		regFile: regFile,
		memory:  memory,
	}
}

// SetPC sets the initial program counter.
func (c *Core) SetPC(pc uint32) {
	c.engine.SetPC(pc)
}

// Tick executes one cycle. It returns an error only on a fatal engine
// condition (decode failure, fetch out of image, or invalid unit
// input); the caller should treat that as fatal.
func (c *Core) Tick() error {
	return c.engine.Tick()
}

// Halted returns true if the core has hit the termination trap.
func (c *Core) Halted() bool {
	return c.engine.Halted()
}

// ExitCode returns the exit code if the core has halted.
func (c *Core) ExitCode() uint8 {
	return c.engine.ExitCode()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.engine.Stats()
	return Stats{Cycles: s.Cycles, Committed: s.Committed, Flushes: s.Flushes}
}

// PredictorStats exposes the branch predictor's accuracy counters.
func (c *Core) PredictorStats() tomasulo.PredictorStats {
	return c.engine.PredictorStats()
}

// ICacheStats exposes the optional instruction cache's hit/miss
// counters, zero-valued if no instruction cache was configured.
func (c *Core) ICacheStats() cache.Statistics {
	return c.engine.ICacheStats()
}

// Run executes the core until it halts or Tick returns an error,
// returning the exit code.
func (c *Core) Run() (uint8, error) {
	for !c.engine.Halted() {
		if err := c.engine.Tick(); err != nil {
			return 0, err
		}
	}
	return c.engine.ExitCode(), nil
}

// RunWithCap executes the core until it halts or cap cycles have
// elapsed, whichever comes first. Hitting the cap is not itself an
// error: it reports capped=true and returns whatever a0's low byte
// happens to be at that point, per the cycle-cap-is-a-warning rule.
func (c *Core) RunWithCap(cap uint64) (code uint8, capped bool, err error) {
	for !c.engine.Halted() {
		if c.engine.Stats().Cycles >= cap {
			return uint8(c.regFile.Read(10)), true, nil
		}
		if err := c.engine.Tick(); err != nil {
			return 0, false, err
		}
	}
	return c.engine.ExitCode(), false, nil
}

// RunCycles executes the core for up to the given number of cycles,
// stopping early if it halts. It returns true if still running (not
// halted) when the budget was exhausted.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles; i++ {
		if c.engine.Halted() {
			return false, nil
		}
		if err := c.engine.Tick(); err != nil {
			return true, err
		}
	}
	return !c.engine.Halted(), nil
}
