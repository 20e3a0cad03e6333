package insts

// Kind identifies an instruction's encoding format and, within R/I/S/B/U/J,
// its specific operation.
type Kind uint8

// Instruction kinds. Invalid is the zero value so a decode failure never
// silently looks like a NOP.
const (
	KindInvalid Kind = iota

	// R-type
	KindADD
	KindSUB
	KindAND
	KindOR
	KindXOR
	KindSLL
	KindSRL
	KindSRA
	KindSLT
	KindSLTU

	// I-type, arithmetic
	KindADDI
	KindANDI
	KindORI
	KindXORI
	KindSLLI
	KindSRLI
	KindSRAI
	KindSLTI
	KindSLTIU

	// I-type, load
	KindLB
	KindLH
	KindLW
	KindLBU
	KindLHU

	// I-type, jump
	KindJALR

	// S-type
	KindSB
	KindSH
	KindSW

	// B-type
	KindBEQ
	KindBNE
	KindBLT
	KindBGE
	KindBLTU
	KindBGEU

	// U-type
	KindLUI
	KindAUIPC

	// J-type
	KindJAL
)

// Format groups Kinds by their decode shape and operand shape. The
// Tomasulo front-end switches on Format to decide how to issue an
// instruction; it checks Kind only for a few single instructions
// (AUIPC, JAL, the termination trap), and the functional unit that
// executes an instruction switches on its Kind.
type Format uint8

// Instruction formats.
const (
	FormatInvalid Format = iota
	FormatR
	FormatI
	FormatILoad
	FormatIJump
	FormatS
	FormatB
	FormatU
	FormatJ
)

// Instruction is a decoded RV32I instruction. Every field is populated
// regardless of Format; fields that don't apply to a given Kind are left
// at their zero value. This mirrors keeping one flat struct with a
// discriminant instead of a variant/interface hierarchy per instruction
// shape.
type Instruction struct {
	Kind   Kind
	Format Format

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm holds the sign-extended immediate for I/S/B/J types, and the
	// raw (already-upper-bits) 32-bit value for U-type.
	Imm int32

	// Raw is the original 32-bit word, kept for diagnostics.
	Raw uint32
}

// Decoder decodes RV32I machine words into Instruction values.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

const (
	opLoad     = 0b0000011
	opImm      = 0b0010011
	opAUIPC    = 0b0010111
	opStore    = 0b0100011
	opReg      = 0b0110011
	opLUI      = 0b0110111
	opBranch   = 0b1100011
	opJALR     = 0b1100111
	opJAL      = 0b1101111
)

// Decode decodes a 32-bit RV32I instruction word. An unrecognized or
// malformed opcode/funct3/funct7 combination yields a KindInvalid
// instruction rather than an error; the front-end is responsible for
// turning that into a fatal decode-failure condition, because Decode
// itself has no notion of where in the program it was called from.
func (d *Decoder) Decode(word uint32) Instruction {
	opcode := word & 0x7F

	switch opcode {
	case opImm:
		return d.decodeImm(word)
	case opReg:
		return d.decodeReg(word)
	case opLoad:
		return d.decodeLoad(word)
	case opJALR:
		return d.decodeJALR(word)
	case opStore:
		return d.decodeStore(word)
	case opBranch:
		return d.decodeBranch(word)
	case opLUI:
		return d.decodeU(word, KindLUI)
	case opAUIPC:
		return d.decodeU(word, KindAUIPC)
	case opJAL:
		return d.decodeJAL(word)
	default:
		return Instruction{Kind: KindInvalid, Raw: word}
	}
}

func rd(word uint32) uint8  { return uint8((word >> 7) & 0x1F) }
func rs1(word uint32) uint8 { return uint8((word >> 15) & 0x1F) }
func rs2(word uint32) uint8 { return uint8((word >> 20) & 0x1F) }
func funct3(word uint32) uint32 { return (word >> 12) & 0x7 }
func funct7(word uint32) uint32 { return (word >> 25) & 0x7F }

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func (d *Decoder) decodeImm(word uint32) Instruction {
	in := Instruction{Format: FormatI, Raw: word, Rd: rd(word), Rs1: rs1(word)}
	imm := signExtend(word>>20, 12)
	f3 := funct3(word)

	switch f3 {
	case 0b000:
		in.Kind = KindADDI
		in.Imm = imm
	case 0b010:
		in.Kind = KindSLTI
		in.Imm = imm
	case 0b011:
		in.Kind = KindSLTIU
		in.Imm = imm
	case 0b100:
		in.Kind = KindXORI
		in.Imm = imm
	case 0b110:
		in.Kind = KindORI
		in.Imm = imm
	case 0b111:
		in.Kind = KindANDI
		in.Imm = imm
	case 0b001:
		in.Kind = KindSLLI
		in.Imm = int32(rs2(word)) // shamt lives in the rs2 bit field
	case 0b101:
		shamt := rs2(word)
		if funct7(word) == 0b0100000 {
			in.Kind = KindSRAI
		} else {
			in.Kind = KindSRLI
		}
		in.Imm = int32(shamt)
	default:
		return Instruction{Kind: KindInvalid, Raw: word}
	}
	return in
}

func (d *Decoder) decodeReg(word uint32) Instruction {
	in := Instruction{Format: FormatR, Raw: word, Rd: rd(word), Rs1: rs1(word), Rs2: rs2(word)}
	f3 := funct3(word)
	f7 := funct7(word)

	switch f3 {
	case 0b000:
		if f7 == 0b0100000 {
			in.Kind = KindSUB
		} else {
			in.Kind = KindADD
		}
	case 0b001:
		in.Kind = KindSLL
	case 0b010:
		in.Kind = KindSLT
	case 0b011:
		in.Kind = KindSLTU
	case 0b100:
		in.Kind = KindXOR
	case 0b101:
		if f7 == 0b0100000 {
			in.Kind = KindSRA
		} else {
			in.Kind = KindSRL
		}
	case 0b110:
		in.Kind = KindOR
	case 0b111:
		in.Kind = KindAND
	default:
		return Instruction{Kind: KindInvalid, Raw: word}
	}
	return in
}

func (d *Decoder) decodeLoad(word uint32) Instruction {
	in := Instruction{Format: FormatILoad, Raw: word, Rd: rd(word), Rs1: rs1(word), Imm: signExtend(word>>20, 12)}
	switch funct3(word) {
	case 0b000:
		in.Kind = KindLB
	case 0b001:
		in.Kind = KindLH
	case 0b010:
		in.Kind = KindLW
	case 0b100:
		in.Kind = KindLBU
	case 0b101:
		in.Kind = KindLHU
	default:
		return Instruction{Kind: KindInvalid, Raw: word}
	}
	return in
}

func (d *Decoder) decodeJALR(word uint32) Instruction {
	if funct3(word) != 0 {
		return Instruction{Kind: KindInvalid, Raw: word}
	}
	return Instruction{
		Kind: KindJALR, Format: FormatIJump, Raw: word,
		Rd: rd(word), Rs1: rs1(word), Imm: signExtend(word>>20, 12),
	}
}

func (d *Decoder) decodeStore(word uint32) Instruction {
	immLo := (word >> 7) & 0x1F
	immHi := (word >> 25) & 0x7F
	imm := signExtend(immLo|(immHi<<5), 12)

	in := Instruction{Format: FormatS, Raw: word, Rs1: rs1(word), Rs2: rs2(word), Imm: imm}
	switch funct3(word) {
	case 0b000:
		in.Kind = KindSB
	case 0b001:
		in.Kind = KindSH
	case 0b010:
		in.Kind = KindSW
	default:
		return Instruction{Kind: KindInvalid, Raw: word}
	}
	return in
}

func (d *Decoder) decodeBranch(word uint32) Instruction {
	bit11 := (word >> 7) & 0x1
	bits4to1 := (word >> 8) & 0xF
	bits10to5 := (word >> 25) & 0x3F
	bit12 := (word >> 31) & 0x1

	raw := (bit12 << 12) | (bit11 << 11) | (bits10to5 << 5) | (bits4to1 << 1)
	imm := signExtend(raw, 13)

	in := Instruction{Format: FormatB, Raw: word, Rs1: rs1(word), Rs2: rs2(word), Imm: imm}
	switch funct3(word) {
	case 0b000:
		in.Kind = KindBEQ
	case 0b001:
		in.Kind = KindBNE
	case 0b100:
		in.Kind = KindBLT
	case 0b101:
		in.Kind = KindBGE
	case 0b110:
		in.Kind = KindBLTU
	case 0b111:
		in.Kind = KindBGEU
	default:
		return Instruction{Kind: KindInvalid, Raw: word}
	}
	return in
}

func (d *Decoder) decodeU(word uint32, kind Kind) Instruction {
	return Instruction{
		Kind: kind, Format: FormatU, Raw: word,
		Rd: rd(word), Imm: int32(word & 0xFFFFF000),
	}
}

func (d *Decoder) decodeJAL(word uint32) Instruction {
	bit20 := (word >> 31) & 0x1
	bits10to1 := (word >> 21) & 0x3FF
	bit11 := (word >> 20) & 0x1
	bits19to12 := (word >> 12) & 0xFF

	raw := (bit20 << 20) | (bits19to12 << 12) | (bit11 << 11) | (bits10to1 << 1)
	imm := signExtend(raw, 21)

	return Instruction{Kind: KindJAL, Format: FormatJ, Raw: word, Rd: rd(word), Imm: imm}
}
