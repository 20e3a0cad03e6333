// Package latency provides instruction timing models for the
// out-of-order core: how many cycles each functional unit spends
// executing a dispatched instruction before it can broadcast its
// result. Values can be configured via TimingConfig, typically loaded
// from a JSON file.
package latency

import (
	"github.com/rv32toma/tomasulo/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with the simulator's default
// timing values.
func NewTable() *Table {
	return &Table{config: DefaultTimingConfig()}
}

// NewTableWithConfig creates a new latency table with a custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{config: config}
}

// GetLatency returns the execution latency in cycles for the given
// instruction's routed functional unit. An invalid (undecoded)
// instruction is treated as single-cycle.
func (t *Table) GetLatency(in insts.Instruction) uint64 {
	switch in.Format {
	case insts.FormatR, insts.FormatI, insts.FormatU:
		return t.config.ALULatency
	case insts.FormatB, insts.FormatIJump, insts.FormatJ:
		return t.config.BranchLatency
	case insts.FormatILoad:
		return t.config.LoadLatency
	case insts.FormatS:
		return t.config.StoreLatency
	default:
		return 1
	}
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(in insts.Instruction) bool {
	return in.Format == insts.FormatILoad || in.Format == insts.FormatS
}

// IsLoadOp returns true if the instruction is a load.
func (t *Table) IsLoadOp(in insts.Instruction) bool {
	return in.Format == insts.FormatILoad
}

// IsStoreOp returns true if the instruction is a store.
func (t *Table) IsStoreOp(in insts.Instruction) bool {
	return in.Format == insts.FormatS
}

// IsBranchOp returns true if the instruction resolves through the
// predictor unit (conditional branch, JAL, or JALR).
func (t *Table) IsBranchOp(in insts.Instruction) bool {
	switch in.Format {
	case insts.FormatB, insts.FormatIJump, insts.FormatJ:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
