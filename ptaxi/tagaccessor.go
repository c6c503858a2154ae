package ptaxi

import (
	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/riscv"
)

// widthForInsn maps an instruction's funct3 sub-code to the access width
// in bits the tag accessor should use for a memory operand. Loads and
// stores use the same low two funct3 bits for width (0=byte, 1=half,
// 2=word, 3=doubleword); funct3 bit 2 selects the zero-extending loads
// (LBU/LHU/LWU). Store sub-codes 4-7 and load sub-code 7 are
// unrecognized widths.
func widthForInsn(insn riscv.Insn) (int, bool) {
	if insn.Funct3 == 7 || (insn.Funct3&0x4 != 0 && insn.Opcode == riscv.OpcodeStore) {
		return 0, false
	}
	switch insn.Funct3 & 0x3 {
	case 0:
		return 8, true
	case 1:
		return 16, true
	case 2:
		return 32, true
	case 3:
		return 64, true
	default:
		return 0, false
	}
}

// TagAccessor reads and writes the single tag for a resolved operand,
// lazily, via the Host. It is invoked by the matcher only when a policy
// actually references a given role.
type TagAccessor struct {
	host Host
}

// NewTagAccessor creates a TagAccessor backed by host.
func NewTagAccessor(host Host) *TagAccessor {
	return &TagAccessor{host: host}
}

// Read returns the current tag for (kind, role) of insn. rs1Val is the
// current value of insn.Rs1, used only when the operand is a memory
// address.
func (a *TagAccessor) Read(kind policy.InsnType, role policy.OperandRole, insn riscv.Insn, rs1Val uint64) (Tag, error) {
	op := ResolveOperand(kind, role, insn, rs1Val)

	switch op.Kind {
	case OperandRegister:
		if op.Reg == 0 {
			return 0, nil
		}
		return a.host.ReadRegTag(op.Reg), nil

	case OperandMemory:
		width, ok := widthForInsn(insn)
		if !ok {
			return 0, &TrapError{Kind: TrapInvalidWidth, Detail: "unrecognized memory access width"}
		}
		t, err := a.host.ReadMemTag(op.Addr, width)
		if err != nil {
			return 0, err
		}
		return t, nil

	default:
		return 0, &TrapError{Kind: TrapInvalidOperand, Detail: "policy references a nonexistent operand"}
	}
}

// Write sets the tag for (kind, role) of insn to val. rs1Val is the
// current value of insn.Rs1, used only when the operand is a memory
// address.
func (a *TagAccessor) Write(kind policy.InsnType, role policy.OperandRole, insn riscv.Insn, rs1Val uint64, val Tag) error {
	op := ResolveOperand(kind, role, insn, rs1Val)

	switch op.Kind {
	case OperandRegister:
		if op.Reg == 0 {
			return nil
		}
		a.host.WriteRegTag(op.Reg, val)
		return nil

	case OperandMemory:
		width, ok := widthForInsn(insn)
		if !ok {
			return &TrapError{Kind: TrapInvalidWidth, Detail: "unrecognized memory access width"}
		}
		return a.host.WriteMemTag(op.Addr, width, val)

	default:
		return &TrapError{Kind: TrapInvalidOperand, Detail: "policy references a nonexistent operand"}
	}
}
