package hostsim

import (
	"fmt"
	"io"
	"os"

	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/ptaxi"
	"github.com/ptaxisim/engine/riscv"
)

// StepResult reports what happened during one Step.
type StepResult struct {
	Exited   bool
	ExitCode int64
	Err      error
}

// Host is a minimal RV64I functional simulator implementing ptaxi.Host.
// It fetches, decodes, and retires instructions, routing every one of
// them through a ptaxi.Engine before applying architectural effects. It
// is reference/demo infrastructure: enough ISA to drive the engine and
// its test programs end to end, not a general-purpose RISC-V simulator.
type Host struct {
	Regs   *RegFile
	Mem    *Memory
	engine *ptaxi.Engine
	alu    ALU

	status uint64
	super  bool

	syscallHandler SyscallHandler
	noPartialCopy  bool

	stdout io.Writer
	stderr io.Writer

	instructionCount uint64
	maxInstructions  uint64

	lastTrap error
}

// Option configures a Host at construction.
type Option func(*Host)

// WithStdout overrides the host's stdout writer, used by the write syscall.
func WithStdout(w io.Writer) Option { return func(h *Host) { h.stdout = w } }

// WithStderr overrides the host's stderr writer.
func WithStderr(w io.Writer) Option { return func(h *Host) { h.stderr = w } }

// WithMaxInstructions caps Run at n retired instructions (0 means
// unlimited).
func WithMaxInstructions(n uint64) Option { return func(h *Host) { h.maxInstructions = n } }

// WithStackPointer sets the initial value of the stack pointer register.
func WithStackPointer(sp uint64) Option { return func(h *Host) { h.Regs.WriteReg(riscv.RegSP, sp) } }

// WithNoPartialCopy enables the host's TAG_POLICY_NO_PARTIAL_COPY
// convention: the tag physically written by a STORE is cleared to zero
// rather than carrying the source register's tag through. In the source
// this sits inline in the store's own functional body, ahead of (and
// independent of) any ptaxi policy — it is a host default, not an
// engine behavior, which is why it lives here rather than as a
// ptaxi.Option.
func WithNoPartialCopy() Option { return func(h *Host) { h.noPartialCopy = true } }

// NewHost creates a Host with fresh registers and memory. Call
// AttachEngine once the ptaxi.Engine wrapping this host exists.
func NewHost(opts ...Option) *Host {
	h := &Host{
		Regs:   &RegFile{},
		Mem:    NewMemory(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.syscallHandler == nil {
		h.syscallHandler = NewDefaultSyscallHandler(h.Regs, h.Mem, h.stdout, h.stderr)
	}
	return h
}

// AttachEngine wires the engine this host's Step loop drives. Construction
// is necessarily two-phase: ptaxi.NewEngine takes a Host, so the engine
// can only exist once the host does.
func (h *Host) AttachEngine(e *ptaxi.Engine) { h.engine = e }

// ptaxi.Host implementation.

func (h *Host) ReadReg(idx uint8) uint64           { return h.Regs.ReadReg(idx) }
func (h *Host) WriteReg(idx uint8, value uint64)   { h.Regs.WriteReg(idx, value) }
func (h *Host) ReadRegTag(idx uint8) ptaxi.Tag     { return h.Regs.ReadRegTag(idx) }
func (h *Host) WriteRegTag(idx uint8, t ptaxi.Tag) { h.Regs.WriteRegTag(idx, t) }

func (h *Host) ReadMemTag(addr uint64, width int) (ptaxi.Tag, error) {
	return h.Mem.ReadTag(addr, width)
}

func (h *Host) WriteMemTag(addr uint64, width int, t ptaxi.Tag) error {
	return h.Mem.WriteTag(addr, width, t)
}

func (h *Host) StatusRegister() uint64     { return h.status }
func (h *Host) SetStatusRegister(v uint64) { h.status = v }
func (h *Host) IsSupervisor() bool         { return h.super }

// SetSupervisor sets whether the processor currently runs at supervisor
// privilege, at which the engine is transparent.
func (h *Host) SetSupervisor(v bool) { h.super = v }

func (h *Host) Disassemble(insn riscv.Insn) string {
	return fmt.Sprintf("op=0x%02x rd=x%d rs1=x%d rs2=x%d f3=%d", insn.Opcode, insn.Rd, insn.Rs1, insn.Rs2, insn.Funct3)
}

func (h *Host) Trap(err error) error {
	h.lastTrap = err
	return err
}

// LastTrap returns the most recent error passed to Trap, or nil.
func (h *Host) LastTrap() error { return h.lastTrap }

// InstructionCount returns the number of instructions retired so far.
func (h *Host) InstructionCount() uint64 { return h.instructionCount }

// Step fetches, decodes, and retires one instruction at the current PC.
func (h *Host) Step() StepResult {
	if h.maxInstructions > 0 && h.instructionCount >= h.maxInstructions {
		return StepResult{Err: fmt.Errorf("hostsim: max instructions reached")}
	}

	pc := h.Regs.PC
	word := h.Mem.Read32(pc)
	insn := riscv.Decode(word)

	if insn.Opcode == riscv.OpcodeSystem {
		h.Regs.PC = pc + 4
		result := h.syscallHandler.Handle()
		h.instructionCount++
		return StepResult{Exited: result.Exited, ExitCode: result.ExitCode}
	}

	h.applyDefaultTagPropagation(insn)

	newPC, err := h.engine.ExecuteInsn(pc, insn, func() (uint64, error) {
		return h.executeFunctional(pc, insn)
	})
	h.instructionCount++
	if err != nil {
		return StepResult{Err: err}
	}

	h.Regs.PC = newPC
	return StepResult{}
}

// Run steps until the program exits, errors, or hits the instruction cap.
func (h *Host) Run() int64 {
	for {
		result := h.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(h.stderr, "hostsim: %v\n", result.Err)
			return -1
		}
	}
}

// applyDefaultTagPropagation implements the host's no-policy default for
// OP/OPIMM-family instructions: the destination tag becomes the
// bitwise-OR of the source tags, mirroring the per-opcode sources'
// TAG_LOGIC(TAG_S1, TAG_S2) convention. It runs before the engine so a
// firing policy's own tag_out write, if any, is free to override it.
func (h *Host) applyDefaultTagPropagation(insn riscv.Insn) {
	kind := ptaxi.Classify(insn)
	switch kind {
	case policy.Op:
		h.Regs.WriteRegTag(insn.Rd, h.Regs.ReadRegTag(insn.Rs1)|h.Regs.ReadRegTag(insn.Rs2))
	case policy.OpImm, policy.Copy:
		h.Regs.WriteRegTag(insn.Rd, h.Regs.ReadRegTag(insn.Rs1))
	}
}

// executeFunctional performs insn's architectural effect and returns the
// next PC. It is the step callback ptaxi.Engine.ExecuteInsn invokes after
// matching and tag propagation, never directly.
func (h *Host) executeFunctional(pc uint64, insn riscv.Insn) (uint64, error) {
	kind := ptaxi.Classify(insn)

	switch kind {
	case policy.Load, policy.Load64:
		return pc + 4, h.execLoad(insn)

	case policy.Store, policy.Store64:
		return pc + 4, h.execStore(insn)

	case policy.Op:
		rs1 := h.Regs.ReadReg(insn.Rs1)
		rs2 := h.Regs.ReadReg(insn.Rs2)
		h.Regs.WriteReg(insn.Rd, h.alu.Exec(insn, rs1, rs2))
		return pc + 4, nil

	case policy.OpImm, policy.Copy:
		rs1 := h.Regs.ReadReg(insn.Rs1)
		h.Regs.WriteReg(insn.Rd, h.alu.ExecImm(insn, rs1))
		return pc + 4, nil

	case policy.JAL:
		h.Regs.WriteReg(insn.Rd, pc+4)
		return uint64(int64(pc) + insn.UJImm), nil

	case policy.JALR, policy.Return:
		target := (uint64(int64(h.Regs.ReadReg(insn.Rs1)) + insn.IImm)) &^ 1
		h.Regs.WriteReg(insn.Rd, pc+4)
		return target, nil

	case policy.TagCmd:
		// The engine itself handles TAGCMD's destination write (GETTAG or
		// pass-through); there is no further functional effect here.
		return pc + 4, nil

	default:
		return pc, fmt.Errorf("hostsim: unsupported instruction (opcode 0x%02x) at pc=0x%x", insn.Opcode, pc)
	}
}

func widthBitsToBytes(width int) int { return width / 8 }

func (h *Host) execLoad(insn riscv.Insn) error {
	width, ok := loadStoreWidth(insn)
	if !ok {
		return fmt.Errorf("hostsim: unrecognized load width (funct3=%d)", insn.Funct3)
	}
	addr := uint64(int64(h.Regs.ReadReg(insn.Rs1)) + insn.IImm)

	// funct3 bit 2 clear selects the sign-extending LB/LH/LW.
	signed := insn.Funct3&0x4 == 0
	var value uint64
	switch width {
	case 8:
		value = uint64(h.Mem.Read8(addr))
		if signed {
			value = uint64(int8(value))
		}
	case 16:
		value = uint64(h.Mem.Read16(addr))
		if signed {
			value = uint64(int16(value))
		}
	case 32:
		value = uint64(h.Mem.Read32(addr))
		if signed {
			value = uint64(int32(value))
		}
	case 64:
		value = h.Mem.Read64(addr)
	}
	h.Regs.WriteReg(insn.Rd, value)
	return nil
}

func (h *Host) execStore(insn riscv.Insn) error {
	width, ok := loadStoreWidth(insn)
	if !ok {
		return fmt.Errorf("hostsim: unrecognized store width (funct3=%d)", insn.Funct3)
	}
	addr := uint64(int64(h.Regs.ReadReg(insn.Rs1)) + insn.SImm)
	value := h.Regs.ReadReg(insn.Rs2)

	switch width {
	case 8:
		h.Mem.Write8(addr, uint8(value))
	case 16:
		h.Mem.Write16(addr, uint16(value))
	case 32:
		h.Mem.Write32(addr, uint32(value))
	case 64:
		h.Mem.Write64(addr, value)
	}

	if h.noPartialCopy {
		_ = h.Mem.WriteTag(addr, width, 0)
	} else {
		_ = h.Mem.WriteTag(addr, width, h.Regs.ReadRegTag(insn.Rs2))
	}
	return nil
}

func loadStoreWidth(insn riscv.Insn) (int, bool) {
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

var _ = widthBitsToBytes // reserved for a future sub-word memory backing change
