package ptaxi

import (
	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/riscv"
)

// widthDoubleWord is the funct3 sub-code value that selects the 64-bit
// load/store variant.
const widthDoubleWord = 3

// Classify maps a decoded instruction onto the engine's closed instruction
// kind enumeration, dispatching on the 7-bit opcode exactly as the
// original per-opcode sources did field by field.
func Classify(insn riscv.Insn) policy.InsnType {
	switch insn.Opcode {
	case riscv.OpcodeLoad:
		if insn.Funct3 == widthDoubleWord {
			return policy.Load64
		}
		return policy.Load
	case riscv.OpcodeStore:
		if insn.Funct3 == widthDoubleWord {
			return policy.Store64
		}
		return policy.Store
	case riscv.OpcodeOp:
		return policy.Op
	case riscv.OpcodeOpImm:
		if insn.Funct3 == 0 && insn.IImm == 0 {
			return policy.Copy
		}
		return policy.OpImm
	case riscv.OpcodeJAL:
		return policy.JAL
	case riscv.OpcodeJALR:
		if insn.IImm == 0 && insn.Rs1 == riscv.RegRA && insn.Funct3 == 0 && insn.Rd == 0 {
			return policy.Return
		}
		return policy.JALR
	case riscv.OpcodeTagCmd:
		return policy.TagCmd
	case riscv.OpcodeTagPolicy:
		return policy.TagPolicy
	default:
		return policy.Unknown
	}
}
