// Package tomasulo implements the out-of-order execution core: the
// reorder buffer, reservation station, load/store buffer, ALU unit,
// and branch predictor, wired together by Engine into the cycle-by-cycle
// fetch/issue/dispatch/commit loop described for the simulator's
// front-end.
package tomasulo

import "github.com/rv32toma/tomasulo/insts"

// NoTag marks a reservation-station operand slot that isn't waiting on
// any in-flight ROB entry — either because the operand already holds a
// concrete value, or because the slot doesn't apply to this entry.
const NoTag = ^uint32(0)

// ROBEntry is one reorder buffer slot. ID is assigned once, monotonically,
// and never reused — including across a flush — so a stale tag held by a
// reservation station or register can never alias a different, later
// instruction.
type ROBEntry struct {
	ID  uint32
	PC  uint32
	Instruction insts.Instruction

	HasDest bool
	Dest    uint8

	Ready        bool
	Value        int32
	Mispredicted bool
	RedirectPC   uint32
}

// RSEntry is one reservation-station slot: an instruction waiting for
// its operands to become available before it can be routed to a
// functional unit. Qj/Qk hold the ROB tag an operand is still waiting
// on, or NoTag once Vj/Vk holds a concrete value.
type RSEntry struct {
	ID  uint32 // the owning ROB entry's ID; doubles as this op's result tag
	PC  uint32
	Instruction insts.Instruction

	Vj, Vk int32
	Qj, Qk uint32
}

// ReadyToDispatch reports whether both operands have resolved to concrete values.
func (e *RSEntry) ReadyToDispatch() bool {
	return e.Qj == NoTag && e.Qk == NoTag
}

// LSBEntry is one load/store buffer slot.
type LSBEntry struct {
	ROBID  uint32
	IsLoad bool
	Kind   insts.Kind

	Base      int32 // resolved base-register value
	Offset    int32 // immediate offset added to Base at execute time
	StoreData int32 // resolved value to store (stores only)

	Committed  bool // store has retired from the ROB and may now execute
	Executing  bool
	CyclesLeft int
}

// MemResult is what the load/store buffer broadcasts on completion.
type MemResult struct {
	ROBID  uint32
	IsLoad bool
	Value  int32
}

// ALUResult is what the ALU unit broadcasts on completion.
type ALUResult struct {
	Tag   uint32
	Value int32
}

// PredictResult is what the predictor unit broadcasts on completion. A
// branch (no destination register) carries only ROBID + the outcome; a
// JAL/JALR also carries the link value for its destination register.
type PredictResult struct {
	ROBID        uint32
	HasDest      bool
	Value        int32 // link value (pc+4) for JAL/JALR; unused for branches
	Mispredicted bool
	RedirectPC   uint32
}
