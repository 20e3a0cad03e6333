package tomasulo

import (
	"github.com/rv32toma/tomasulo/emu"
	"github.com/rv32toma/tomasulo/insts"
)

// terminationRd/Rs1/Imm identify the trap instruction that ends a run:
// ADDI x10, x0, 255.
const (
	terminationRd  = 10
	terminationRs1 = 0
	terminationImm = 255
)

// CommitOutcome reports what happened when the ROB head was examined
// this cycle, so the front-end can react: stop the run, flush the rest
// of the machine and redirect fetch, or do nothing because the head
// wasn't ready yet.
type CommitOutcome struct {
	Committed bool
	Halted    bool
	ExitCode  uint8
	PC        uint32

	Flushed    bool
	RedirectPC uint32
}

// ReorderBuffer is the ring buffer of in-flight instructions, committing
// strictly in program order from its head. IDs are assigned by a
// monotonic counter that is never reset, including across a flush, so a
// stale tag held elsewhere can never be confused with a later entry
// that happens to reuse a ring slot.
type ReorderBuffer struct {
	entries  []ROBEntry
	capacity int
	nextID   uint32
}

// NewReorderBuffer returns an empty ROB of the given capacity.
func NewReorderBuffer(capacity int) *ReorderBuffer {
	return &ReorderBuffer{entries: make([]ROBEntry, 0, capacity), capacity: capacity}
}

// Full reports whether the ROB has no free slot.
func (r *ReorderBuffer) Full() bool {
	return len(r.entries) >= r.capacity
}

// Add allocates a new entry for instr, fetched from pc, writing to dest
// if hasDest. It returns the entry's ID. Callers must check Full first.
func (r *ReorderBuffer) Add(instr insts.Instruction, hasDest bool, dest uint8, pc uint32) uint32 {
	id := r.nextID
	r.nextID++

	e := ROBEntry{
		ID: id, PC: pc, Instruction: instr,
		HasDest: hasDest, Dest: dest,
	}
	// A store (no destination register, not a branch) has nothing left
	// to wait on once it is in the load/store buffer; everything else
	// becomes ready only when its producing unit broadcasts.
	e.Ready = !hasDest && instr.Format != insts.FormatB

	r.entries = append(r.entries, e)
	return id
}

// find returns a pointer to the live entry with the given ID, or nil.
func (r *ReorderBuffer) find(id uint32) *ROBEntry {
	for i := range r.entries {
		if r.entries[i].ID == id {
			return &r.entries[i]
		}
	}
	return nil
}

// GetValue returns the committed-or-broadcast value of an in-flight
// entry, if it has one yet.
func (r *ReorderBuffer) GetValue(id uint32) (int32, bool) {
	e := r.find(id)
	if e == nil || !e.Ready || !e.HasDest {
		return 0, false
	}
	return e.Value, true
}

// ReceiveALU applies an ALU broadcast to its destination entry.
func (r *ReorderBuffer) ReceiveALU(res ALUResult) {
	if e := r.find(res.Tag); e != nil {
		e.Value = res.Value
		e.Ready = true
	}
}

// ReceiveMem applies a load-completion broadcast to its destination
// entry. Store completions are informational only (a store has already
// committed by the time it runs) and are not routed here.
func (r *ReorderBuffer) ReceiveMem(res MemResult) {
	if e := r.find(res.ROBID); e != nil {
		e.Value = res.Value
		e.Ready = true
	}
}

// ReceivePredictor applies a branch/JAL/JALR resolution to its entry.
func (r *ReorderBuffer) ReceivePredictor(res PredictResult) {
	if e := r.find(res.ROBID); e != nil {
		if res.HasDest {
			e.Value = res.Value
		}
		e.Mispredicted = res.Mispredicted
		e.RedirectPC = res.RedirectPC
		e.Ready = true
	}
}

// Commit examines the ROB head and, if ready, retires it: writing its
// result to the register file (unless it is the termination trap,
// which suppresses the write to preserve a0's value for the exit code),
// and triggering a machine-wide flush if it resolved as a misprediction.
func (r *ReorderBuffer) Commit(rf *emu.RegFile) CommitOutcome {
	if len(r.entries) == 0 {
		return CommitOutcome{}
	}
	head := r.entries[0]
	if !head.Ready {
		return CommitOutcome{}
	}

	in := head.Instruction
	if in.Kind == insts.KindADDI && in.Rd == terminationRd && in.Rs1 == terminationRs1 && in.Imm == terminationImm {
		exitCode := uint8(rf.Read(terminationRd))
		if head.HasDest {
			rf.ReleaseIfOwner(head.Dest, head.ID)
		}
		r.entries = r.entries[1:]
		return CommitOutcome{Committed: true, Halted: true, ExitCode: exitCode, PC: head.PC}
	}

	if head.HasDest {
		rf.CommitIfOwner(head.Dest, head.ID, head.Value)
	}

	outcome := CommitOutcome{Committed: true, PC: head.PC}
	if head.Mispredicted {
		outcome.Flushed = true
		outcome.RedirectPC = head.RedirectPC
	}

	r.entries = r.entries[1:]
	return outcome
}

// HeadID returns the ID of the current head entry and whether one
// exists, used to drive LoadStoreBuffer.CommitUpTo every cycle
// regardless of whether the head itself is a memory op.
func (r *ReorderBuffer) HeadID() (uint32, bool) {
	if len(r.entries) == 0 {
		return 0, false
	}
	return r.entries[0].ID, true
}

// Flush discards every in-flight entry and releases any register still
// pointing at one of them, without resetting the ID counter.
func (r *ReorderBuffer) Flush(rf *emu.RegFile) {
	for _, e := range r.entries {
		if e.HasDest {
			rf.ReleaseIfOwner(e.Dest, e.ID)
		}
	}
	r.entries = r.entries[:0]
}
