package hostsim

import "github.com/ptaxisim/engine/riscv"

// ALU computes the functional result of RV64I register-register (OP) and
// register-immediate (OPIMM) instructions. It has no notion of tags; tag
// propagation is handled by the engine and, for the host's own default
// convention, by applyDefaultTagPropagation in host.go.
type ALU struct{}

// funct3 sub-opcodes shared by OP and OPIMM.
const (
	funct3AddSub = 0b000
	funct3SLL    = 0b001
	funct3SLT    = 0b010
	funct3SLTU   = 0b011
	funct3XOR    = 0b100
	funct3SRLSRA = 0b101
	funct3OR     = 0b110
	funct3AND    = 0b111
)

// funct7SubSra marks SUB (OP) and SRA (OP/OPIMM) within their shared
// funct3 group.
const funct7SubSra = 0b0100000

// Exec computes rs1 op rs2 for an OP-format instruction.
func (ALU) Exec(insn riscv.Insn, rs1Val, rs2Val uint64) uint64 {
	switch insn.Funct3 {
	case funct3AddSub:
		if insn.Funct7 == funct7SubSra {
			return rs1Val - rs2Val
		}
		return rs1Val + rs2Val
	case funct3SLL:
		return rs1Val << (rs2Val & 0x3f)
	case funct3SLT:
		return boolToU64(int64(rs1Val) < int64(rs2Val))
	case funct3SLTU:
		return boolToU64(rs1Val < rs2Val)
	case funct3XOR:
		return rs1Val ^ rs2Val
	case funct3SRLSRA:
		if insn.Funct7 == funct7SubSra {
			return uint64(int64(rs1Val) >> (rs2Val & 0x3f))
		}
		return rs1Val >> (rs2Val & 0x3f)
	case funct3OR:
		return rs1Val | rs2Val
	case funct3AND:
		return rs1Val & rs2Val
	default:
		return 0
	}
}

// ExecImm computes rs1 op imm for an OPIMM-format instruction. Shift
// amounts reuse the immediate's low 6 bits; SRAI is distinguished from
// SRLI the same way SRA is from SRL, via bit 30 of the raw word (which
// Decode folds into Funct7 for consistency with the OP format).
func (ALU) ExecImm(insn riscv.Insn, rs1Val uint64) uint64 {
	switch insn.Funct3 {
	case funct3AddSub:
		return uint64(int64(rs1Val) + insn.IImm)
	case funct3SLL:
		return rs1Val << (uint64(insn.IImm) & 0x3f)
	case funct3SLT:
		return boolToU64(int64(rs1Val) < insn.IImm)
	case funct3SLTU:
		return boolToU64(rs1Val < uint64(insn.IImm))
	case funct3XOR:
		return rs1Val ^ uint64(insn.IImm)
	case funct3SRLSRA:
		if insn.Funct7&funct7SubSra != 0 {
			return uint64(int64(rs1Val) >> (uint64(insn.IImm) & 0x3f))
		}
		return rs1Val >> (uint64(insn.IImm) & 0x3f)
	case funct3OR:
		return rs1Val | uint64(insn.IImm)
	case funct3AND:
		return rs1Val & uint64(insn.IImm)
	default:
		return 0
	}
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
