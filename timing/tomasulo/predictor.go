package tomasulo

import "github.com/rv32toma/tomasulo/insts"

// PredictorState is a 2-bit saturating counter. Unlike a per-PC branch
// history table, there is exactly one counter shared by every branch in
// the program.
type PredictorState uint8

const (
	StrongNotTaken PredictorState = iota
	WeakNotTaken
	WeakTaken
	StrongTaken
)

// PredictorStats holds observational counters with an Accuracy()
// helper, layered over the single global counter without adding any
// predictor state of its own.
type PredictorStats struct {
	Predictions    uint64
	Correct        uint64
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s PredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// PredictInput is dispatched into the predictor by the front-end.
type PredictInput struct {
	PC           uint32
	Rs1, Rs2     int32
	Imm          int32
	Kind         insts.Kind
	ROBID        uint32
	HasDest      bool
}

// PredictorUnit resolves branches, JAL, and JALR. It holds the single
// global 2-bit counter plus a double-buffered broadcast slot, the same
// countdown-latency pattern as ALUUnit: by default one cycle, or a
// configured number of cycles loaded from a latency.Table.
type PredictorUnit struct {
	state PredictorState

	latency    uint64
	pending    *PredictInput
	cyclesLeft uint64
	executing  bool

	next    *PredictResult
	current *PredictResult

	stats PredictorStats
}

// NewPredictorUnit returns a predictor initialized to weakly-not-taken,
// matching the reset state the original design starts from, with a
// single-cycle resolution latency.
func NewPredictorUnit() *PredictorUnit {
	return &PredictorUnit{state: WeakNotTaken, latency: 1}
}

// NewPredictorUnitWithLatency returns an idle predictor with a
// configured resolution latency, as loaded from a latency.Table.
func NewPredictorUnitWithLatency(cycles uint64) *PredictorUnit {
	if cycles == 0 {
		cycles = 1
	}
	return &PredictorUnit{state: WeakNotTaken, latency: cycles}
}

// Available reports whether the unit can accept a new instruction.
func (p *PredictorUnit) Available() bool {
	return p.pending == nil
}

// Dispatch hands the unit a branch/JAL/JALR to resolve.
func (p *PredictorUnit) Dispatch(in PredictInput) {
	p.pending = &in
	p.executing = false
}

// PredictTaken returns the counter's current taken/not-taken call,
// without mutating any state. The front-end uses this at issue time to
// decide whether to speculatively redirect fetch for a conditional
// branch.
func (p *PredictorUnit) PredictTaken() bool {
	return p.state == WeakTaken || p.state == StrongTaken
}

func (p *PredictorUnit) update(taken bool) {
	switch p.state {
	case StrongTaken:
		if !taken {
			p.state = WeakTaken
		}
	case WeakTaken:
		if taken {
			p.state = StrongTaken
		} else {
			p.state = WeakNotTaken
		}
	case WeakNotTaken:
		if taken {
			p.state = WeakTaken
		} else {
			p.state = StrongNotTaken
		}
	case StrongNotTaken:
		if taken {
			p.state = WeakNotTaken
		}
	}
}

// HasResult reports whether a completed result is ready to broadcast.
func (p *PredictorUnit) HasResult() bool {
	return p.current != nil
}

// Result returns this cycle's broadcast result.
func (p *PredictorUnit) Result() PredictResult {
	return *p.current
}

// Stats returns the predictor's running accuracy counters.
func (p *PredictorUnit) Stats() PredictorStats {
	return p.stats
}

// Flush discards any in-flight (not yet broadcast) instruction. The
// global counter and its statistics are architectural state, not
// speculative state, and survive a flush untouched.
func (p *PredictorUnit) Flush() {
	p.pending = nil
	p.next = nil
}

// Tick advances the double buffer and, once a dispatched instruction's
// latency has elapsed, resolves it.
func (p *PredictorUnit) Tick() {
	p.current = p.next
	p.next = nil

	if p.pending == nil {
		return
	}

	if !p.executing {
		p.executing = true
		p.cyclesLeft = p.latency
	}

	p.cyclesLeft--
	if p.cyclesLeft > 0 {
		return
	}

	in := p.pending
	p.pending = nil
	p.executing = false

	var result PredictResult
	result.ROBID = in.ROBID

	switch in.Kind {
	case insts.KindJAL:
		// Speculative redirect already happened at issue; the predictor
		// can only confirm it here.
		result.HasDest = true
		result.Value = int32(in.PC + 4)
		result.Mispredicted = false
		result.RedirectPC = in.PC + uint32(in.Imm)

	case insts.KindJALR:
		// Fetch never speculatively redirects for JALR (the target
		// depends on a register value unknown until now), so recovery
		// always runs through the misprediction path to correct PC.
		target := uint32(in.Rs1+in.Imm) &^ 1
		result.HasDest = true
		result.Value = int32(in.PC + 4)
		result.Mispredicted = true
		result.RedirectPC = target

	default: // conditional branch
		predicted := p.PredictTaken()
		taken := evaluateBranch(in.Kind, in.Rs1, in.Rs2)
		p.stats.Predictions++
		if predicted == taken {
			p.stats.Correct++
		} else {
			p.stats.Mispredictions++
		}
		p.update(taken)

		result.Mispredicted = predicted != taken
		if taken {
			result.RedirectPC = in.PC + uint32(in.Imm)
		} else {
			result.RedirectPC = in.PC + 4
		}
	}

	p.next = &result
}

func evaluateBranch(kind insts.Kind, rs1, rs2 int32) bool {
	switch kind {
	case insts.KindBEQ:
		return rs1 == rs2
	case insts.KindBNE:
		return rs1 != rs2
	case insts.KindBLT:
		return rs1 < rs2
	case insts.KindBGE:
		return rs1 >= rs2
	case insts.KindBLTU:
		return uint32(rs1) < uint32(rs2)
	case insts.KindBGEU:
		return uint32(rs1) >= uint32(rs2)
	default:
		return false
	}
}
