package ptaxi

import (
	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/riscv"
)

// OperandKind tells a resolved Operand apart: a register index, a memory
// address, or an operand that does not exist for this (kind, role) pair.
type OperandKind uint8

// Operand kinds.
const (
	OperandInvalid OperandKind = iota
	OperandRegister
	OperandMemory
)

// Operand is what the resolver returns for a given (instruction kind,
// role): either a register index, a memory address, or invalid.
// Dereferencing an invalid operand is a trap condition, but only at the
// moment a policy actually asks for that operand's tag — resolving it is
// not itself an error.
type Operand struct {
	Kind OperandKind
	Reg  uint8
	Addr uint64
}

// ResolveOperand returns the operand a given (kind, role) addresses for
// insn. rs1Val is the current value of insn.Rs1, needed to compute the
// base of a memory address; callers that don't need a memory operand may
// pass 0.
func ResolveOperand(kind policy.InsnType, role policy.OperandRole, insn riscv.Insn, rs1Val uint64) Operand {
	switch kind {
	case policy.Load, policy.Load64:
		switch role {
		case policy.RoleArg1:
			return Operand{Kind: OperandMemory, Addr: uint64(int64(rs1Val) + insn.IImm)}
		case policy.RoleOut:
			return Operand{Kind: OperandRegister, Reg: insn.Rd}
		default: // RoleArg2: loads have no second source operand.
			return Operand{Kind: OperandInvalid}
		}

	case policy.Store, policy.Store64:
		switch role {
		case policy.RoleArg1:
			return Operand{Kind: OperandRegister, Reg: insn.Rs2}
		case policy.RoleOut:
			return Operand{Kind: OperandMemory, Addr: uint64(int64(rs1Val) + insn.SImm)}
		default: // RoleArg2: stores have no second source operand.
			return Operand{Kind: OperandInvalid}
		}

	case policy.Op, policy.TagCmd:
		switch role {
		case policy.RoleArg1:
			return Operand{Kind: OperandRegister, Reg: insn.Rs1}
		case policy.RoleArg2:
			return Operand{Kind: OperandRegister, Reg: insn.Rs2}
		default:
			return Operand{Kind: OperandRegister, Reg: insn.Rd}
		}

	case policy.OpImm, policy.Copy:
		switch role {
		case policy.RoleArg1:
			return Operand{Kind: OperandRegister, Reg: insn.Rs1}
		case policy.RoleOut:
			return Operand{Kind: OperandRegister, Reg: insn.Rd}
		default: // RoleArg2: no second source operand.
			return Operand{Kind: OperandInvalid}
		}

	case policy.JAL:
		switch role {
		case policy.RoleOut:
			return Operand{Kind: OperandRegister, Reg: insn.Rd}
		default:
			// ARG1 is intentionally invalid: the engine does not tag
			// branch targets. Preserved as an open question rather than
			// guessed at.
			return Operand{Kind: OperandInvalid}
		}

	case policy.JALR, policy.Return:
		switch role {
		case policy.RoleArg1:
			return Operand{Kind: OperandRegister, Reg: insn.Rs1}
		case policy.RoleArg2:
			return Operand{Kind: OperandMemory, Addr: (uint64(int64(rs1Val) + insn.IImm)) &^ 1}
		default:
			return Operand{Kind: OperandRegister, Reg: insn.Rd}
		}

	default:
		return Operand{Kind: OperandInvalid}
	}
}
