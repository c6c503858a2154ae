package ptaxi

import "fmt"

// TrapKind distinguishes the reasons the engine raises a tag-violation
// trap.
type TrapKind uint8

// Trap kinds.
const (
	// TrapBlock is raised when a policy's BLOCK action fires.
	TrapBlock TrapKind = iota
	// TrapInvalidOperand is raised when a policy dereferences an operand
	// the resolver marked invalid.
	TrapInvalidOperand
	// TrapInvalidWidth is raised when the tag accessor is asked to read or
	// write a memory tag at an unrecognized width.
	TrapInvalidWidth
)

func (k TrapKind) String() string {
	switch k {
	case TrapBlock:
		return "block"
	case TrapInvalidOperand:
		return "invalid-operand"
	case TrapInvalidWidth:
		return "invalid-width"
	default:
		return "unknown"
	}
}

// TrapError is the tag-violation trap the engine raises on BLOCK, an
// invalid operand dereference, or an unrecognized memory width. It is always
// routed through Host.Trap before surfacing to the caller of ExecuteInsn,
// so a Host can translate it into its own architectural exception type.
type TrapError struct {
	Kind   TrapKind
	PC     uint64
	Detail string
}

func (e *TrapError) Error() string {
	return fmt.Sprintf("tag violation (%s) at pc=0x%x: %s", e.Kind, e.PC, e.Detail)
}
