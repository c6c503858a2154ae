package riscv_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ptaxisim/engine/riscv"
)

// encodeI builds an I-type word: imm[11:0] | rs1 | funct3 | rd | opcode.
func encodeI(opcode, rd, funct3, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | uint32(rd)<<7 | uint32(opcode)
}

// encodeS builds an S-type word: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode.
func encodeS(opcode, funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7f)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | (u&0x1f)<<7 | uint32(opcode)
}

// encodeR builds an R-type word: funct7 | rs2 | rs1 | funct3 | rd | opcode.
func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return uint32(funct7)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | uint32(rd)<<7 | uint32(opcode)
}

// encodeUJ builds a J-type word for JAL: imm[20|10:1|11|19:12] | rd | opcode.
func encodeUJ(opcode, rd uint8, imm int32) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 0x1
	bits10_1 := (u >> 1) & 0x3ff
	bit11 := (u >> 11) & 0x1
	bits19_12 := (u >> 12) & 0xff
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | uint32(rd)<<7 | uint32(opcode)
}

var _ = Describe("Decode", func() {
	It("extracts opcode, rd, funct3, rs1, rs2, funct7 from an R-type word", func() {
		word := encodeR(riscv.OpcodeOp, 5, 0, 6, 7, 0)
		insn := riscv.Decode(word)

		Expect(insn.Opcode).To(Equal(riscv.OpcodeOp))
		Expect(insn.Rd).To(Equal(uint8(5)))
		Expect(insn.Funct3).To(Equal(uint8(0)))
		Expect(insn.Rs1).To(Equal(uint8(6)))
		Expect(insn.Rs2).To(Equal(uint8(7)))
	})

	It("sign-extends a negative I-immediate", func() {
		word := encodeI(riscv.OpcodeOpImm, 5, 0, 6, -8)
		insn := riscv.Decode(word)

		Expect(insn.IImm).To(Equal(int64(-8)))
	})

	It("decodes a positive I-immediate", func() {
		word := encodeI(riscv.OpcodeLoad, 5, 3, 6, 16)
		insn := riscv.Decode(word)

		Expect(insn.IImm).To(Equal(int64(16)))
	})

	It("decodes an S-immediate split across two fields", func() {
		word := encodeS(riscv.OpcodeStore, 3, 6, 7, -4)
		insn := riscv.Decode(word)

		Expect(insn.SImm).To(Equal(int64(-4)))
		Expect(insn.Rs1).To(Equal(uint8(6)))
		Expect(insn.Rs2).To(Equal(uint8(7)))
	})

	It("decodes a JAL UJ-immediate", func() {
		word := encodeUJ(riscv.OpcodeJAL, 1, 2048)
		insn := riscv.Decode(word)

		Expect(insn.UJImm).To(Equal(int64(2048)))
	})

	It("decodes a negative JAL UJ-immediate", func() {
		word := encodeUJ(riscv.OpcodeJAL, 1, -2048)
		insn := riscv.Decode(word)

		Expect(insn.UJImm).To(Equal(int64(-2048)))
	})
})
