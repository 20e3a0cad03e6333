package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32toma/tomasulo/insts"
	"github.com/rv32toma/tomasulo/timing/tomasulo"
)

var _ = Describe("ReservationStation", func() {
	var rs *tomasulo.ReservationStation

	BeforeEach(func() {
		rs = tomasulo.NewReservationStation(2)
	})

	It("reports full at capacity", func() {
		rs.Add(tomasulo.RSEntry{ID: 1, Qj: tomasulo.NoTag, Qk: tomasulo.NoTag})
		Expect(rs.Full()).To(BeFalse())
		rs.Add(tomasulo.RSEntry{ID: 2, Qj: tomasulo.NoTag, Qk: tomasulo.NoTag})
		Expect(rs.Full()).To(BeTrue())
	})

	It("is not ready to dispatch while waiting on an operand tag", func() {
		e := tomasulo.RSEntry{ID: 1, Qj: 7, Qk: tomasulo.NoTag}
		Expect(e.ReadyToDispatch()).To(BeFalse())
	})

	It("becomes ready once both operand tags resolve", func() {
		e := tomasulo.RSEntry{ID: 1, Qj: tomasulo.NoTag, Qk: tomasulo.NoTag}
		Expect(e.ReadyToDispatch()).To(BeTrue())
	})

	It("snoops a broadcast value into every entry waiting on that tag", func() {
		rs.Add(tomasulo.RSEntry{ID: 1, Qj: 99, Qk: tomasulo.NoTag})
		rs.Add(tomasulo.RSEntry{ID: 2, Qj: tomasulo.NoTag, Qk: 99})

		rs.Snoop(99, 123)

		e1, _ := rs.Find(1)
		Expect(e1.Qj).To(Equal(tomasulo.NoTag))
		Expect(e1.Vj).To(Equal(int32(123)))

		e2, _ := rs.Find(2)
		Expect(e2.Qk).To(Equal(tomasulo.NoTag))
		Expect(e2.Vk).To(Equal(int32(123)))
	})

	It("removes by ID regardless of position", func() {
		rs.Add(tomasulo.RSEntry{ID: 1})
		rs.Add(tomasulo.RSEntry{ID: 2})
		rs.Remove(1)

		_, ok := rs.Find(1)
		Expect(ok).To(BeFalse())
		_, ok = rs.Find(2)
		Expect(ok).To(BeTrue())
	})

	It("flush clears every entry", func() {
		rs.Add(tomasulo.RSEntry{ID: 1})
		rs.Flush()
		Expect(rs.Entries()).To(BeEmpty())
	})

	It("Find returns false for an unknown tag", func() {
		_, ok := rs.Find(42)
		Expect(ok).To(BeFalse())
	})

	It("keeps the decoded instruction's format on the entry", func() {
		e := tomasulo.RSEntry{ID: 1, Instruction: insts.Instruction{Format: insts.FormatR, Kind: insts.KindADD}}
		Expect(e.Instruction.Format).To(Equal(insts.FormatR))
	})
})
