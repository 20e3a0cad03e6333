package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32toma/tomasulo/insts"
	"github.com/rv32toma/tomasulo/timing/tomasulo"
)

var _ = Describe("Compute", func() {
	It("adds for ADD and ADDI", func() {
		Expect(tomasulo.Compute(insts.KindADD, 3, 4)).To(Equal(int32(7)))
		Expect(tomasulo.Compute(insts.KindADDI, 3, -4)).To(Equal(int32(-1)))
	})

	It("masks shift amounts to 5 bits", func() {
		// 32 & 0x1F == 0, so shifting by 32 is a no-op, not undefined.
		Expect(tomasulo.Compute(insts.KindSLL, 1, 32)).To(Equal(int32(1)))
		Expect(tomasulo.Compute(insts.KindSLL, 1, 33)).To(Equal(int32(2)))
	})

	It("SRL is a logical (zero-filling) shift on negative values", func() {
		result := tomasulo.Compute(insts.KindSRL, -1, 28)
		Expect(result).To(Equal(int32(0xF)))
	})

	It("SRA is an arithmetic (sign-extending) shift on negative values", func() {
		result := tomasulo.Compute(insts.KindSRA, -1, 28)
		Expect(result).To(Equal(int32(-1)))
	})

	It("SLT/SLTU differ on sign interpretation", func() {
		Expect(tomasulo.Compute(insts.KindSLT, -1, 1)).To(Equal(int32(1)))  // -1 < 1 signed
		Expect(tomasulo.Compute(insts.KindSLTU, -1, 1)).To(Equal(int32(0))) // 0xFFFFFFFF is not < 1 unsigned
	})

	It("AUIPC adds the instruction's pc to the already-shifted immediate", func() {
		Expect(tomasulo.Compute(insts.KindAUIPC, 0x1000, 0x2000)).To(Equal(int32(0x3000)))
	})

	It("LUI ignores the first operand entirely", func() {
		Expect(tomasulo.Compute(insts.KindLUI, 999, 0x5000)).To(Equal(int32(0x5000)))
	})
})

var _ = Describe("ALUUnit", func() {
	It("is available until dispatched, then busy until the result is computed", func() {
		u := tomasulo.NewALUUnit()
		Expect(u.Available()).To(BeTrue())

		u.Dispatch(tomasulo.ALUInput{A: 2, B: 3, Kind: insts.KindADD, Tag: 1})
		Expect(u.Available()).To(BeFalse())

		// Single-cycle latency resolves into the "next" slot on this tick,
		// but only becomes the visible "current" result on the following
		// one, the same one-cycle-of-visibility-lag every functional unit
		// in this package shares.
		u.Tick()
		Expect(u.HasResult()).To(BeFalse())
		u.Tick()
		Expect(u.HasResult()).To(BeTrue())
		Expect(u.Result().Value).To(Equal(int32(5)))
		Expect(u.Result().Tag).To(Equal(uint32(1)))
	})

	It("a result is visible for exactly one cycle after it resolves", func() {
		u := tomasulo.NewALUUnit()
		u.Dispatch(tomasulo.ALUInput{A: 1, B: 1, Kind: insts.KindADD, Tag: 1})
		u.Tick()
		u.Tick()
		Expect(u.HasResult()).To(BeTrue())
		u.Tick()
		Expect(u.HasResult()).To(BeFalse())
	})

	It("honors a configured multi-cycle latency", func() {
		u := tomasulo.NewALUUnitWithLatency(3)
		u.Dispatch(tomasulo.ALUInput{A: 10, B: 5, Kind: insts.KindSUB, Tag: 9})

		u.Tick()
		Expect(u.HasResult()).To(BeFalse())
		u.Tick()
		Expect(u.HasResult()).To(BeFalse())
		u.Tick()
		Expect(u.HasResult()).To(BeFalse())
		u.Tick()
		Expect(u.HasResult()).To(BeTrue())
		Expect(u.Result().Value).To(Equal(int32(5)))
	})

	It("treats a configured zero latency as one cycle", func() {
		u := tomasulo.NewALUUnitWithLatency(0)
		u.Dispatch(tomasulo.ALUInput{A: 1, B: 1, Kind: insts.KindADD, Tag: 1})
		u.Tick()
		u.Tick()
		Expect(u.HasResult()).To(BeTrue())
	})

	It("becomes available again once its configured latency has elapsed", func() {
		u := tomasulo.NewALUUnitWithLatency(2)
		u.Dispatch(tomasulo.ALUInput{A: 1, B: 1, Kind: insts.KindADD, Tag: 1})
		Expect(u.Available()).To(BeFalse())
		u.Tick()
		Expect(u.Available()).To(BeFalse())
		u.Tick()
		Expect(u.Available()).To(BeTrue())
	})
})
