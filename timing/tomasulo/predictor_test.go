package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32toma/tomasulo/insts"
	"github.com/rv32toma/tomasulo/timing/tomasulo"
)

var _ = Describe("PredictorUnit", func() {
	var p *tomasulo.PredictorUnit

	BeforeEach(func() {
		p = tomasulo.NewPredictorUnit()
	})

	It("resets to weakly-not-taken and predicts not-taken", func() {
		Expect(p.PredictTaken()).To(BeFalse())
	})

	It("saturates toward strongly-taken on repeated taken outcomes", func() {
		beq := func(pc uint32, robid uint32) tomasulo.PredictInput {
			return tomasulo.PredictInput{PC: pc, Rs1: 1, Rs2: 1, Imm: 8, Kind: insts.KindBEQ, ROBID: robid}
		}

		// weakly-not-taken -> weakly-taken -> strongly-taken
		for i, id := range []uint32{1, 2} {
			p.Dispatch(beq(uint32(i*4), id))
			p.Tick()
			p.Tick() // advance the double buffer so the result is published
		}
		Expect(p.PredictTaken()).To(BeTrue())

		p.Dispatch(beq(8, 3))
		p.Tick()
		p.Tick()
		Expect(p.PredictTaken()).To(BeTrue()) // strongly-taken absorbs one more taken
	})

	It("flags a misprediction when the predicted direction doesn't match the outcome", func() {
		// Starting state is weakly-not-taken; a taken branch mispredicts.
		p.Dispatch(tomasulo.PredictInput{PC: 0, Rs1: 1, Rs2: 1, Imm: 8, Kind: insts.KindBEQ, ROBID: 1})
		p.Tick() // latch into "current" next tick

		p.Tick()
		Expect(p.HasResult()).To(BeTrue())
		res := p.Result()
		Expect(res.Mispredicted).To(BeTrue())
		Expect(res.RedirectPC).To(Equal(uint32(8)))
	})

	It("JAL always confirms, never mispredicts, since issue already redirected", func() {
		p.Dispatch(tomasulo.PredictInput{PC: 100, Imm: -8, Kind: insts.KindJAL, ROBID: 1, HasDest: true})
		p.Tick()
		p.Tick()

		res := p.Result()
		Expect(res.Mispredicted).To(BeFalse())
		Expect(res.HasDest).To(BeTrue())
		Expect(res.Value).To(Equal(int32(104)))
		Expect(res.RedirectPC).To(Equal(uint32(92)))
	})

	It("JALR always mispredicts, clearing the low target bit", func() {
		p.Dispatch(tomasulo.PredictInput{PC: 40, Rs1: 101, Imm: 0, Kind: insts.KindJALR, ROBID: 1, HasDest: true})
		p.Tick()
		p.Tick()

		res := p.Result()
		Expect(res.Mispredicted).To(BeTrue())
		Expect(res.RedirectPC).To(Equal(uint32(100))) // 101 &^ 1
		Expect(res.Value).To(Equal(int32(44)))
	})

	It("flush discards an in-flight dispatch but keeps counter state", func() {
		p.Dispatch(tomasulo.PredictInput{PC: 0, Rs1: 1, Rs2: 1, Imm: 8, Kind: insts.KindBEQ, ROBID: 1})
		p.Flush()
		p.Tick()
		Expect(p.HasResult()).To(BeFalse())
	})

	It("tracks prediction accuracy across multiple branches", func() {
		p.Dispatch(tomasulo.PredictInput{PC: 0, Rs1: 0, Rs2: 0, Imm: 8, Kind: insts.KindBEQ, ROBID: 1}) // taken, mispredicts (starts not-taken)
		p.Tick()
		p.Tick()

		stats := p.Stats()
		Expect(stats.Predictions).To(Equal(uint64(1)))
		Expect(stats.Mispredictions).To(Equal(uint64(1)))
		Expect(stats.Correct).To(Equal(uint64(0)))
	})
})
