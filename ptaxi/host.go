// Package ptaxi implements the tag-propagation and policy-enforcement
// engine: instruction classification, operand resolution, tag access,
// policy matching, action dispatch, and the per-context state machine.
//
// The engine never touches simulator state directly. Every register,
// memory, tag, status-register, and trap access goes through the Host
// interface supplied at construction, generalizing the register-read and
// MMU-access macros the original per-opcode sources relied on into
// explicit collaborators.
package ptaxi

import "github.com/ptaxisim/engine/riscv"

// Tag is the 8-bit metadata value attached to every register and every
// addressable memory location. Zero means "no tag" and is the identity
// under every propagation formula a policy can express.
type Tag uint8

// Host is everything the engine needs from the surrounding simulator:
// register and memory access (for tag shadows), a disassembler for debug
// traces, the privileged status register, and a way to raise a trap.
type Host interface {
	// ReadReg returns the value of architectural register idx. Register 0
	// always reads as zero.
	ReadReg(idx uint8) uint64
	// WriteReg writes value to architectural register idx. Writes to
	// register 0 are silently dropped.
	WriteReg(idx uint8, value uint64)

	// ReadRegTag returns the tag attached to register idx. Register 0
	// always reads tag zero.
	ReadRegTag(idx uint8) Tag
	// WriteRegTag sets the tag attached to register idx. Writes to
	// register 0 are silently dropped.
	WriteRegTag(idx uint8, t Tag)

	// ReadMemTag returns the tag attached to the memory word at addr, at
	// the given access width in bits. width must be one of 8/16/32/64.
	ReadMemTag(addr uint64, width int) (Tag, error)
	// WriteMemTag sets the tag attached to the memory word at addr, at the
	// given access width in bits. width must be one of 8/16/32/64.
	WriteMemTag(addr uint64, width int, t Tag) error

	// StatusRegister returns the current value of the privileged status
	// register.
	StatusRegister() uint64
	// SetStatusRegister writes the privileged status register.
	SetStatusRegister(v uint64)
	// IsSupervisor reports whether the processor currently runs at
	// supervisor privilege, at which the engine is intentionally
	// transparent.
	IsSupervisor() bool

	// Disassemble renders insn for debug traces. May return "" if the host
	// has no disassembler.
	Disassemble(insn riscv.Insn) string

	// Trap raises a host trap for the given reason and aborts the
	// in-progress instruction. Implementations that use exceptions for
	// control flow (as the reference simulator does) may never return;
	// implementations that return normally cause the engine to return the
	// error from ExecuteInsn instead.
	Trap(err error) error
}
