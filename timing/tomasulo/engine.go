package tomasulo

import (
	"errors"
	"fmt"

	"github.com/rv32toma/tomasulo/emu"
	"github.com/rv32toma/tomasulo/insts"
	"github.com/rv32toma/tomasulo/timing/cache"
	"github.com/rv32toma/tomasulo/timing/latency"
)

// ErrDecodeFailure is returned by Tick when the word at the current
// program counter does not decode to a recognized RV32I instruction.
var ErrDecodeFailure = errors.New("tomasulo: decode failure")

// ErrFetchOutOfImage is returned by Tick when fetch runs off the end of
// the loaded program image rather than into a trap or an infinite loop.
var ErrFetchOutOfImage = errors.New("tomasulo: fetch out of image")

// ErrInvalidUnitInput is returned when a reservation-station entry
// carries a format/kind combination no functional unit recognizes. This
// indicates a decoder or dispatch bug, never a property of the program
// being run.
var ErrInvalidUnitInput = errors.New("tomasulo: invalid unit input")

// DefaultCycleCap is the number of cycles the CLI passes to
// core.Core.RunWithCap, which gives up after that many cycles and reports the cap as a non-fatal warning, returning
// whatever exit code a0 happens to hold at that point.
const DefaultCycleCap = 1_000_000_000

// Engine ties the reorder buffer, reservation station, load/store
// buffer, ALU unit, and predictor unit together into the cycle-by-cycle
// fetch/issue/dispatch/commit loop.
type Engine struct {
	regs   *emu.RegFile
	mem    *emu.Memory
	decoder *insts.Decoder

	rob *ReorderBuffer
	rs  *ReservationStation
	lsb *LoadStoreBuffer
	alu *ALUUnit
	pred *PredictorUnit

	latencyTable *latency.Table

	icache *cachedFetch

	commitHook func(pc uint32, committed bool)

	pc uint32

	halted   bool
	exitCode uint8

	stats Statistics
}

// New constructs an Engine over the given register file and memory,
// applying any supplied options over the default structural capacities
// (ROB=32, RS=32, LSB=32) and memory latency.
func New(regs *emu.RegFile, mem *emu.Memory, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	table := cfg.latency
	if table == nil {
		table = latency.NewTable()
	}

	e := &Engine{
		regs:         regs,
		mem:          mem,
		decoder:      insts.NewDecoder(),
		rob:          NewReorderBuffer(cfg.robCapacity),
		rs:           NewReservationStation(cfg.rsCapacity),
		latencyTable: table,
		alu:          NewALUUnitWithLatency(table.GetLatency(insts.Instruction{Format: insts.FormatR})),
		lsb: NewLoadStoreBufferWithLatency(cfg.lsbCapacity, mem,
			table.GetLatency(insts.Instruction{Format: insts.FormatILoad}),
			table.GetLatency(insts.Instruction{Format: insts.FormatS})),
		pred: NewPredictorUnitWithLatency(table.GetLatency(insts.Instruction{Format: insts.FormatB})),
	}

	if cfg.icache != nil {
		backing := cache.NewMemoryBacking(mem)
		e.icache = newCachedFetch(cache.New(*cfg.icache, backing), mem)
	}

	e.commitHook = cfg.commitHook

	return e
}

// ICacheStats returns the instruction cache's hit/miss counters. It
// returns the zero value if no instruction cache was configured.
func (e *Engine) ICacheStats() cache.Statistics {
	if e.icache == nil {
		return cache.Statistics{}
	}
	return e.icache.stats()
}

// SetPC sets the initial program counter, used once before the first
// Tick.
func (e *Engine) SetPC(pc uint32) {
	e.pc = pc
}

// Halted reports whether the engine has hit the termination trap.
func (e *Engine) Halted() bool {
	return e.halted
}

// ExitCode returns the low byte of a0 captured at termination. Valid
// only once Halted returns true.
func (e *Engine) ExitCode() uint8 {
	return e.exitCode
}

// Stats returns the running cycle/commit/flush counters.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// PredictorStats exposes the branch predictor's own accuracy counters.
func (e *Engine) PredictorStats() PredictorStats {
	return e.pred.Stats()
}

// Tick advances the machine by exactly one cycle, in the fixed order:
// functional units resolve and broadcast, the front-end dispatches
// newly-ready reservation-station entries, the ROB head commits (which
// may trigger a flush and PC redirect), and finally a new instruction is
// fetched and issued if the ROB has room, no flush happened this cycle,
// and no termination trap is waiting in the ROB.
func (e *Engine) Tick() error {
	e.stats.Cycles++

	e.alu.Tick()
	if e.alu.HasResult() {
		res := e.alu.Result()
		e.rob.ReceiveALU(res)
		e.rs.Snoop(res.Tag, res.Value)
	}

	e.pred.Tick()
	if e.pred.HasResult() {
		res := e.pred.Result()
		e.rob.ReceivePredictor(res)
		if res.HasDest {
			e.rs.Snoop(res.ROBID, res.Value)
		}
	}

	e.lsb.Tick()
	if e.lsb.HasBroadcast() {
		res := e.lsb.Broadcast()
		if res.IsLoad {
			e.rob.ReceiveMem(res)
			e.rs.Snoop(res.ROBID, res.Value)
		}
	}

	if err := e.dispatch(); err != nil {
		return err
	}

	if id, ok := e.rob.HeadID(); ok {
		e.lsb.CommitUpTo(id)
	}

	outcome := e.rob.Commit(e.regs)
	if outcome.Committed {
		e.stats.Committed++
	}
	if e.commitHook != nil {
		e.commitHook(outcome.PC, outcome.Committed)
	}
	if outcome.Halted {
		e.halted = true
		e.exitCode = outcome.ExitCode
		return nil
	}

	flushedThisCycle := outcome.Flushed
	if outcome.Flushed {
		e.stats.Flushes++
		e.rob.Flush(e.regs)
		e.rs.Flush()
		e.lsb.Flush()
		e.pred.Flush()
		e.pc = outcome.RedirectPC
	}

	if !flushedThisCycle && !e.rob.Full() {
		if err := e.fetchAndIssue(); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) fetchAndIssue() error {
	// Nothing past the termination trap is fetched while it sits in the
	// ROB: its commit ends the run, and a flush that discards it empties
	// the ROB, so fetch resumes on the redirected path.
	for _, ent := range e.rob.entries {
		in := ent.Instruction
		if in.Kind == insts.KindADDI && in.Rd == terminationRd && in.Rs1 == terminationRs1 && in.Imm == terminationImm {
			return nil
		}
	}

	fetchPC := e.pc

	if !e.mem.InImage(fetchPC) {
		return fmt.Errorf("%w: pc=0x%x", ErrFetchOutOfImage, fetchPC)
	}

	var word uint32
	if e.icache != nil {
		w, ready, stall := e.icache.fetch(fetchPC)
		if stall {
			return nil // instruction cache miss in flight; issue nothing this cycle
		}
		if !ready {
			return nil
		}
		word = w
	} else {
		word = uint32(e.mem.ReadWord(fetchPC))
	}

	in := e.decoder.Decode(word)
	if in.Kind == insts.KindInvalid {
		return fmt.Errorf("%w: pc=0x%x word=0x%08x", ErrDecodeFailure, fetchPC, word)
	}

	e.pc = fetchPC + 4
	e.issue(in, fetchPC)
	return nil
}

// issue resolves operands against the register file and ROB, inserts a
// reservation-station entry, and — for branches and JAL — speculatively
// redirects fetch. JALR never redirects at issue: its target depends on
// a register value, so fetch continues sequentially and recovery always
// runs through the predictor's forced misprediction at commit.
func (e *Engine) issue(in insts.Instruction, pc uint32) {
	hasDest := in.Format != insts.FormatS && in.Format != insts.FormatB
	id := e.rob.Add(in, hasDest, in.Rd, pc)

	var vj, vk int32
	qj, qk := NoTag, NoTag

	switch in.Format {
	case insts.FormatR:
		vj, qj = e.resolve(in.Rs1)
		vk, qk = e.resolve(in.Rs2)
	case insts.FormatI, insts.FormatILoad, insts.FormatIJump:
		vj, qj = e.resolve(in.Rs1)
		vk = in.Imm
	case insts.FormatS, insts.FormatB:
		vj, qj = e.resolve(in.Rs1)
		vk, qk = e.resolve(in.Rs2)
	case insts.FormatU:
		if in.Kind == insts.KindAUIPC {
			vj = int32(pc)
		}
		vk = in.Imm
	case insts.FormatJ:
		// no operands
	}

	e.rs.Add(RSEntry{ID: id, PC: pc, Instruction: in, Vj: vj, Vk: vk, Qj: qj, Qk: qk})

	switch {
	case in.Format == insts.FormatB:
		if e.pred.PredictTaken() {
			e.pc = pc + uint32(in.Imm)
		}
	case in.Kind == insts.KindJAL:
		e.pc = pc + uint32(in.Imm)
	}

	if hasDest {
		e.regs.MarkPending(in.Rd, id)
	}
}

func (e *Engine) resolve(reg uint8) (int32, uint32) {
	if !e.regs.IsPending(reg) {
		return e.regs.Read(reg), NoTag
	}
	tag := e.regs.TagOf(reg)
	if v, ok := e.rob.GetValue(tag); ok {
		return v, NoTag
	}
	return 0, tag
}

// dispatch scans the reservation station, in program order, for entries
// whose operands have resolved and routes each to its functional unit,
// removing it from the station. At most one entry per unit moves per
// cycle for the ALU and predictor, since each is a single slot. Routing
// is decided by the latency table's instruction-class predicates
// (IsMemoryOp/IsLoadOp/IsStoreOp/IsBranchOp) rather than a raw format
// comparison, the same per-instruction classification the table's
// GetLatency uses to size each unit's execution latency at construction.
//
// Memory-format entries (loads and stores) get an extra ordering gate:
// the reservation station holds them until both operands resolve rather
// than pushing an unresolved placeholder into the load/store buffer (see
// the LSB's own godoc and the open question in the design notes), so an
// entry with unresolved operands must block every younger memory entry
// from entering the buffer this cycle. Otherwise a fast-resolving
// younger load could reach the buffer, and therefore the memory, ahead
// of an older store still waiting on its address or data.
func (e *Engine) dispatch() error {
	entries := e.rs.Entries()
	ready := make([]uint32, 0, len(entries))
	memGated := false
	for _, ent := range entries {
		isMem := e.latencyTable.IsMemoryOp(ent.Instruction)
		if isMem && memGated {
			continue
		}
		if !ent.ReadyToDispatch() {
			if isMem {
				memGated = true
			}
			continue
		}
		ready = append(ready, ent.ID)
	}

	for _, id := range ready {
		ent, ok := e.rs.Find(id)
		if !ok {
			continue // already dispatched earlier this same scan
		}

		var dispatched bool
		switch {
		case e.latencyTable.IsMemoryOp(ent.Instruction):
			dispatched = e.dispatchMemory(ent)
		case e.latencyTable.IsBranchOp(ent.Instruction):
			dispatched = e.dispatchBranch(ent)
		case ent.Instruction.Format == insts.FormatR, ent.Instruction.Format == insts.FormatI, ent.Instruction.Format == insts.FormatU:
			dispatched = e.dispatchALU(ent)
		default:
			return fmt.Errorf("%w: rob id=%d format=%v", ErrInvalidUnitInput, ent.ID, ent.Instruction.Format)
		}

		if dispatched {
			e.rs.Remove(id)
		}
	}

	return nil
}

func (e *Engine) dispatchALU(ent RSEntry) bool {
	if !e.alu.Available() {
		return false
	}
	e.alu.Dispatch(ALUInput{A: ent.Vj, B: ent.Vk, Kind: ent.Instruction.Kind, Tag: ent.ID})
	return true
}

func (e *Engine) dispatchMemory(ent RSEntry) bool {
	if e.lsb.Full() {
		return false
	}
	switch ent.Instruction.Format {
	case insts.FormatILoad:
		e.lsb.Add(LSBEntry{ROBID: ent.ID, IsLoad: e.latencyTable.IsLoadOp(ent.Instruction), Kind: ent.Instruction.Kind, Base: ent.Vj, Offset: ent.Instruction.Imm})
	case insts.FormatS:
		e.lsb.Add(LSBEntry{ROBID: ent.ID, IsLoad: !e.latencyTable.IsStoreOp(ent.Instruction), Kind: ent.Instruction.Kind, Base: ent.Vj, Offset: ent.Instruction.Imm, StoreData: ent.Vk})
	}
	return true
}

func (e *Engine) dispatchBranch(ent RSEntry) bool {
	if !e.pred.Available() {
		return false
	}
	switch ent.Instruction.Format {
	case insts.FormatB:
		e.pred.Dispatch(PredictInput{PC: ent.PC, Rs1: ent.Vj, Rs2: ent.Vk, Imm: ent.Instruction.Imm, Kind: ent.Instruction.Kind, ROBID: ent.ID})
	case insts.FormatIJump:
		e.pred.Dispatch(PredictInput{PC: ent.PC, Rs1: ent.Vj, Imm: ent.Instruction.Imm, Kind: ent.Instruction.Kind, ROBID: ent.ID, HasDest: true})
	case insts.FormatJ:
		e.pred.Dispatch(PredictInput{PC: ent.PC, Imm: ent.Instruction.Imm, Kind: ent.Instruction.Kind, ROBID: ent.ID, HasDest: true})
	}
	return true
}
