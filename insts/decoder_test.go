package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32toma/tomasulo/insts"
)

// encode helpers build machine words the same way an assembler would, so
// the expectations below read close to the instruction they describe.

func encodeR(funct7, rs2, rs1, funct3, rd uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | 0b0110011
}

func encodeI(imm, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeS(imm, rs2, rs1, funct3 uint32) uint32 {
	lo := imm & 0x1F
	hi := (imm >> 5) & 0x7F
	return (hi << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (lo << 7) | 0b0100011
}

func encodeB(imm, rs2, rs1, funct3 uint32) uint32 {
	bit12 := (imm >> 12) & 0x1
	bit11 := (imm >> 11) & 0x1
	bits10to5 := (imm >> 5) & 0x3F
	bits4to1 := (imm >> 1) & 0xF
	return (bit12 << 31) | (bits10to5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (bits4to1 << 8) | (bit11 << 7) | 0b1100011
}

func encodeU(imm, rd, opcode uint32) uint32 {
	return (imm & 0xFFFFF000) | (rd << 7) | opcode
}

func encodeJ(imm, rd uint32) uint32 {
	bit20 := (imm >> 20) & 0x1
	bits10to1 := (imm >> 1) & 0x3FF
	bit11 := (imm >> 11) & 0x1
	bits19to12 := (imm >> 12) & 0xFF
	return (bit20 << 31) | (bits19to12 << 12) | (bit11 << 20) | (bits10to1 << 21) | (rd << 7) | 0b1101111
}

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("R-type", func() {
		It("decodes ADD x1, x2, x3", func() {
			in := decoder.Decode(encodeR(0, 3, 2, 0, 1))
			Expect(in.Kind).To(Equal(insts.KindADD))
			Expect(in.Format).To(Equal(insts.FormatR))
			Expect(in.Rd).To(Equal(uint8(1)))
			Expect(in.Rs1).To(Equal(uint8(2)))
			Expect(in.Rs2).To(Equal(uint8(3)))
		})

		It("decodes SUB as ADD with funct7 0x20", func() {
			in := decoder.Decode(encodeR(0x20, 3, 2, 0, 1))
			Expect(in.Kind).To(Equal(insts.KindSUB))
		})

		It("decodes SRA as SRL with funct7 0x20", func() {
			in := decoder.Decode(encodeR(0x20, 3, 2, 0b101, 1))
			Expect(in.Kind).To(Equal(insts.KindSRA))
		})
	})

	Describe("I-type arithmetic", func() {
		It("decodes ADDI with a negative immediate", func() {
			negOne := int32(-1)
			in := decoder.Decode(encodeI(uint32(negOne)&0xFFF, 5, 0, 6, 0b0010011))
			Expect(in.Kind).To(Equal(insts.KindADDI))
			Expect(in.Imm).To(Equal(int32(-1)))
		})

		It("decodes SLLI with a shift amount, not a full immediate", func() {
			in := decoder.Decode(encodeI(7, 5, 0b001, 6, 0b0010011))
			Expect(in.Kind).To(Equal(insts.KindSLLI))
			Expect(in.Imm).To(Equal(int32(7)))
		})

		It("distinguishes SRAI from SRLI via the high immediate bits", func() {
			in := decoder.Decode(encodeI((0x20<<5)|3, 5, 0b101, 6, 0b0010011))
			Expect(in.Kind).To(Equal(insts.KindSRAI))
			Expect(in.Imm).To(Equal(int32(3)))
		})
	})

	Describe("Loads and stores", func() {
		It("decodes LW", func() {
			in := decoder.Decode(encodeI(8, 2, 0b010, 5, 0b0000011))
			Expect(in.Kind).To(Equal(insts.KindLW))
			Expect(in.Format).To(Equal(insts.FormatILoad))
			Expect(in.Imm).To(Equal(int32(8)))
		})

		It("round-trips a signed store immediate", func() {
			negFour := int32(-4)
			in := decoder.Decode(encodeS(uint32(negFour)&0xFFF, 9, 2, 0b010))
			Expect(in.Kind).To(Equal(insts.KindSW))
			Expect(in.Imm).To(Equal(int32(-4)))
			Expect(in.Rs1).To(Equal(uint8(2)))
			Expect(in.Rs2).To(Equal(uint8(9)))
		})
	})

	Describe("JALR", func() {
		It("decodes with funct3 zero", func() {
			in := decoder.Decode(encodeI(4, 1, 0, 5, 0b1100111))
			Expect(in.Kind).To(Equal(insts.KindJALR))
			Expect(in.Format).To(Equal(insts.FormatIJump))
		})

		It("rejects a nonzero funct3 as invalid", func() {
			in := decoder.Decode(encodeI(4, 1, 1, 5, 0b1100111))
			Expect(in.Kind).To(Equal(insts.KindInvalid))
		})
	})

	Describe("Branches", func() {
		It("round-trips a negative branch offset", func() {
			negEight := int32(-8)
			in := decoder.Decode(encodeB(uint32(negEight)&0x1FFF, 3, 2, 0b000))
			Expect(in.Kind).To(Equal(insts.KindBEQ))
			Expect(in.Imm).To(Equal(int32(-8)))
		})

		It("decodes BLTU", func() {
			in := decoder.Decode(encodeB(16, 3, 2, 0b110))
			Expect(in.Kind).To(Equal(insts.KindBLTU))
			Expect(in.Imm).To(Equal(int32(16)))
		})
	})

	Describe("U-type", func() {
		It("decodes LUI leaving the immediate in place, unshifted", func() {
			in := decoder.Decode(encodeU(0x12345000, 7, 0b0110111))
			Expect(in.Kind).To(Equal(insts.KindLUI))
			Expect(in.Imm).To(Equal(int32(0x12345000)))
		})

		It("decodes AUIPC", func() {
			in := decoder.Decode(encodeU(0x1000, 7, 0b0010111))
			Expect(in.Kind).To(Equal(insts.KindAUIPC))
		})
	})

	Describe("J-type", func() {
		It("round-trips a JAL offset", func() {
			in := decoder.Decode(encodeJ(100, 1))
			Expect(in.Kind).To(Equal(insts.KindJAL))
			Expect(in.Imm).To(Equal(int32(100)))
			Expect(in.Rd).To(Equal(uint8(1)))
		})
	})

	Describe("invalid encodings", func() {
		It("rejects an unknown opcode", func() {
			in := decoder.Decode(0x7F)
			Expect(in.Kind).To(Equal(insts.KindInvalid))
		})
	})
})
