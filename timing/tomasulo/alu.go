package tomasulo

import "github.com/rv32toma/tomasulo/insts"

// ALUInput is dispatched into the ALU unit by the front-end. A and B are
// already-resolved operand values; for immediate-form instructions B is
// the sign-extended immediate, and for AUIPC A is the instruction's own
// PC, resolved at issue time the same way any other pending-ROB operand
// would be.
type ALUInput struct {
	A, B int32
	Kind insts.Kind
	Tag  uint32
}

// ALUUnit is a single-issue functional unit. By default it has one
// cycle of latency, modeled with the same double-buffered latch/next/
// current slot pattern used for the predictor: a result computed this
// cycle becomes visible to broadcast consumers only on the following
// tick. A configured latency greater than one cycle instead counts
// down, exactly as the load/store buffer does for memory operations.
type ALUUnit struct {
	latency uint64

	pending    *ALUInput
	cyclesLeft uint64
	executing  bool

	next    *ALUResult
	current *ALUResult
}

// NewALUUnit returns an idle, single-cycle ALU unit.
func NewALUUnit() *ALUUnit {
	return &ALUUnit{latency: 1}
}

// NewALUUnitWithLatency returns an idle ALU unit with a configured
// execution latency, as loaded from a latency.Table.
func NewALUUnitWithLatency(cycles uint64) *ALUUnit {
	if cycles == 0 {
		cycles = 1
	}
	return &ALUUnit{latency: cycles}
}

// Available reports whether the unit can accept a new instruction this
// cycle.
func (u *ALUUnit) Available() bool {
	return u.pending == nil
}

// Dispatch hands the unit a new instruction. Callers must check
// Available first.
func (u *ALUUnit) Dispatch(in ALUInput) {
	u.pending = &in
	u.executing = false
}

// HasResult reports whether a completed result is ready to broadcast
// this cycle.
func (u *ALUUnit) HasResult() bool {
	return u.current != nil
}

// Result returns this cycle's broadcast result. Callers must check
// HasResult first.
func (u *ALUUnit) Result() ALUResult {
	return *u.current
}

// Tick advances the double buffer and, once a dispatched instruction's
// latency has elapsed, computes its result into the next slot.
func (u *ALUUnit) Tick() {
	u.current = u.next
	u.next = nil

	if u.pending == nil {
		return
	}

	if !u.executing {
		u.executing = true
		u.cyclesLeft = u.latency
	}

	u.cyclesLeft--
	if u.cyclesLeft > 0 {
		return
	}

	result := ALUResult{Tag: u.pending.Tag, Value: Compute(u.pending.Kind, u.pending.A, u.pending.B)}
	u.next = &result
	u.pending = nil
	u.executing = false
}

// Compute performs the arithmetic for a single ALU-routed instruction.
// Shift amounts are masked to 5 bits per RV32I, and SRA/SRAI rely on
// Go's arithmetic right shift for signed operands.
func Compute(kind insts.Kind, a, b int32) int32 {
	switch kind {
	case insts.KindADD, insts.KindADDI:
		return a + b
	case insts.KindSUB:
		return a - b
	case insts.KindAND, insts.KindANDI:
		return a & b
	case insts.KindOR, insts.KindORI:
		return a | b
	case insts.KindXOR, insts.KindXORI:
		return a ^ b
	case insts.KindSLL, insts.KindSLLI:
		return a << (uint32(b) & 0x1F)
	case insts.KindSRL, insts.KindSRLI:
		return int32(uint32(a) >> (uint32(b) & 0x1F))
	case insts.KindSRA, insts.KindSRAI:
		return a >> (uint32(b) & 0x1F)
	case insts.KindSLT, insts.KindSLTI:
		if a < b {
			return 1
		}
		return 0
	case insts.KindSLTU, insts.KindSLTIU:
		if uint32(a) < uint32(b) {
			return 1
		}
		return 0
	case insts.KindLUI:
		return b
	case insts.KindAUIPC:
		return a + b
	default:
		return 0
	}
}
