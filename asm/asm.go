// Package asm is a tiny RV64I assembler covering the handful of
// mnemonics the tests and benchmarks need to build instruction streams by
// hand. It is not a general-purpose assembler: there is no parser, no
// labels, no pseudo-ops, just one encoder function per opcode, the same
// way the teacher's benchmarks package hand-encodes ARM64 instructions.
package asm

import "encoding/binary"

// BuildProgram concatenates encoded instruction words into a
// little-endian byte stream ready for loader.Program/hostsim.Memory.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 0, len(instrs)*4)
	for _, inst := range instrs {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, inst)
		program = append(program, buf...)
	}
	return program
}

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return opcode&0x7f | (rd&0x1f)<<7 | (funct3&0x7)<<12 | (rs1&0x1f)<<15 | (rs2&0x1f)<<20 | (funct7&0x7f)<<25
}

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return opcode&0x7f | (rd&0x1f)<<7 | (funct3&0x7)<<12 | (rs1&0x1f)<<15 | (uint32(imm)&0xfff)<<20
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	lo := u & 0x1f
	hi := (u >> 5) & 0x7f
	return opcode&0x7f | lo<<7 | (funct3&0x7)<<12 | (rs1&0x1f)<<15 | (rs2&0x1f)<<20 | hi<<25
}

func encodeUJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 0x1
	b10_1 := (u >> 1) & 0x3ff
	b11 := (u >> 11) & 0x1
	b19_12 := (u >> 12) & 0xff
	return opcode&0x7f | (rd&0x1f)<<7 | (b20<<31 | b19_12<<12 | b11<<20 | b10_1<<21)
}

// Opcodes, mirrored from package riscv so this package stays
// self-contained for fixture-building code that does not otherwise
// depend on the engine.
const (
	opLoad   = 0b0000011
	opStore  = 0b0100011
	opOp     = 0b0110011
	opOpImm  = 0b0010011
	opJAL    = 0b1101111
	opJALR   = 0b1100111
	opSystem = 0b1110011
	opTagCmd = 0b0001011
)

// EncodeADDI encodes ADDI: rd = rs1 + imm.
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(opOpImm, uint32(rd), 0, uint32(rs1), imm)
}

// EncodeADD encodes ADD: rd = rs1 + rs2.
func EncodeADD(rd, rs1, rs2 uint8) uint32 {
	return encodeR(opOp, uint32(rd), 0, uint32(rs1), uint32(rs2), 0)
}

// EncodeSUB encodes SUB: rd = rs1 - rs2.
func EncodeSUB(rd, rs1, rs2 uint8) uint32 {
	return encodeR(opOp, uint32(rd), 0, uint32(rs1), uint32(rs2), 0b0100000)
}

// EncodeOR encodes OR: rd = rs1 | rs2.
func EncodeOR(rd, rs1, rs2 uint8) uint32 {
	return encodeR(opOp, uint32(rd), 0b110, uint32(rs1), uint32(rs2), 0)
}

// EncodeAND encodes AND: rd = rs1 & rs2.
func EncodeAND(rd, rs1, rs2 uint8) uint32 {
	return encodeR(opOp, uint32(rd), 0b111, uint32(rs1), uint32(rs2), 0)
}

// EncodeSW encodes SW: store the low 32 bits of rs2 at rs1+imm.
func EncodeSW(rs1, rs2 uint8, imm int32) uint32 {
	return encodeS(opStore, 0b010, uint32(rs1), uint32(rs2), imm)
}

// EncodeSD encodes SD: store all 64 bits of rs2 at rs1+imm.
func EncodeSD(rs1, rs2 uint8, imm int32) uint32 {
	return encodeS(opStore, 0b011, uint32(rs1), uint32(rs2), imm)
}

// EncodeLW encodes LW: load 32 bits from rs1+imm into rd, sign-extended.
func EncodeLW(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(opLoad, uint32(rd), 0b010, uint32(rs1), imm)
}

// EncodeLD encodes LD: load 64 bits from rs1+imm into rd.
func EncodeLD(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(opLoad, uint32(rd), 0b011, uint32(rs1), imm)
}

// EncodeJAL encodes JAL: rd = pc+4, pc += offset.
func EncodeJAL(rd uint8, offset int32) uint32 {
	return encodeUJ(opJAL, uint32(rd), offset)
}

// EncodeJALR encodes JALR: rd = pc+4, pc = rs1+offset (LSB cleared).
func EncodeJALR(rd, rs1 uint8, offset int32) uint32 {
	return encodeI(opJALR, uint32(rd), 0, uint32(rs1), offset)
}

// EncodeRET encodes the canonical RETURN idiom: JALR x0, ra, 0.
func EncodeRET() uint32 {
	return EncodeJALR(0, 1, 0)
}

// EncodeECALL encodes ECALL, the syscall trap hostsim intercepts directly.
func EncodeECALL() uint32 {
	return encodeI(opSystem, 0, 0, 0, 0)
}

// EncodeTagCmd encodes a TAGCMD instruction: rd receives GETTAG semantics
// from the engine if a matching policy fires, or rs2's value otherwise.
func EncodeTagCmd(rd, rs1, rs2 uint8) uint32 {
	return encodeR(opTagCmd, uint32(rd), 0, uint32(rs1), uint32(rs2), 0)
}
