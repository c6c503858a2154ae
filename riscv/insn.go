// Package riscv provides a minimal RV64I instruction decoder.
//
// It decodes exactly the bitfields the tag-propagation engine and its
// reference host need (opcode, register indices, funct3, and the I/S/UJ
// immediate forms) and nothing more: this is not a full RISC-V decoder.
// Decode never fails: every word is split into the same fields whatever
// its opcode, including instructions the engine does not classify.
package riscv

// Insn is a decoded RV64I-family instruction.
type Insn struct {
	Raw uint32

	Opcode uint8 // bits [6:0]
	Rd     uint8 // bits [11:7]
	Funct3 uint8 // bits [14:12]
	Rs1    uint8 // bits [19:15]
	Rs2    uint8 // bits [24:20]
	Funct7 uint8 // bits [31:25]

	IImm  int64 // I-type immediate, sign-extended
	SImm  int64 // S-type immediate, sign-extended
	UJImm int64 // UJ-type immediate (JAL), sign-extended
}

// Opcodes the engine and its host care about. Names follow the base RV64I
// opcode map; TagCmd and TagPolicy are the two opcodes this ISA extension
// privately allocates for tag-policy instructions.
const (
	OpcodeLoad      uint8 = 0b0000011
	OpcodeStore     uint8 = 0b0100011
	OpcodeOp        uint8 = 0b0110011
	OpcodeOpImm     uint8 = 0b0010011
	OpcodeJAL       uint8 = 0b1101111
	OpcodeJALR      uint8 = 0b1100111
	OpcodeTagCmd    uint8 = 0b0001011
	OpcodeTagPolicy uint8 = 0b0101011

	// OpcodeSystem is the standard RV64I SYSTEM opcode (ECALL/EBREAK). The
	// engine does not classify it; hostsim intercepts it directly, ahead
	// of the engine, the same way a real kernel's syscall entry sits
	// outside any tag-policy hook.
	OpcodeSystem uint8 = 0b1110011
)

// RegRA is the return-address register (x1) in the standard RISC-V ABI.
const RegRA uint8 = 1

// RegSP is the stack-pointer register (x2) in the standard RISC-V ABI.
const RegSP uint8 = 2

// Decode decodes a 32-bit RV64I instruction word.
func Decode(word uint32) Insn {
	in := Insn{
		Raw:    word,
		Opcode: uint8(word & 0x7f),
		Rd:     uint8((word >> 7) & 0x1f),
		Funct3: uint8((word >> 12) & 0x7),
		Rs1:    uint8((word >> 15) & 0x1f),
		Rs2:    uint8((word >> 20) & 0x1f),
		Funct7: uint8((word >> 25) & 0x7f),
	}

	in.IImm = signExtend(uint64(word>>20), 12)
	in.SImm = signExtend(uint64(((word>>25)&0x7f)<<5|((word>>7)&0x1f)), 12)
	in.UJImm = decodeUJImm(word)

	return in
}

// decodeUJImm assembles the 20-bit J-immediate used by JAL: imm[20|10:1|11|19:12].
func decodeUJImm(word uint32) int64 {
	imm20 := (word >> 31) & 0x1
	imm10_1 := (word >> 21) & 0x3ff
	imm11 := (word >> 20) & 0x1
	imm19_12 := (word >> 12) & 0xff

	raw := (imm20 << 20) | (imm19_12 << 12) | (imm11 << 11) | (imm10_1 << 1)
	return signExtend(uint64(raw), 21)
}

// signExtend sign-extends the low `bits` bits of v to int64.
func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}
