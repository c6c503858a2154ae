package hostsim_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ptaxisim/engine/hostsim"
	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/ptaxi"
	"github.com/ptaxisim/engine/riscv"
)

// Minimal RV64I encoders, just enough to drive the tests below. The fuller
// encoder set lives in package asm; this is deliberately narrower.

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return opcode | rd<<7 | funct3<<12 | rs1<<15 | rs2<<20 | funct7<<25
}

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return opcode | rd<<7 | funct3<<12 | rs1<<15 | uint32(imm)<<20
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	lo := u & 0x1f
	hi := (u >> 5) & 0x7f
	return opcode | lo<<7 | funct3<<12 | rs1<<15 | rs2<<20 | hi<<25
}

func encodeJAL(rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 0x1
	b10_1 := (u >> 1) & 0x3ff
	b11 := (u >> 11) & 0x1
	b19_12 := (u >> 12) & 0xff
	return 0b1101111 | rd<<7 | (b20<<31 | b19_12<<12 | b11<<20 | b10_1<<21)
}

func addi(rd, rs1 uint32, imm int32) uint32 { return encodeI(0b0010011, rd, 0, rs1, imm) }
func add(rd, rs1, rs2 uint32) uint32        { return encodeR(0b0110011, rd, 0, rs1, rs2, 0) }
func sw(rs1, rs2 uint32, imm int32) uint32  { return encodeS(0b0100011, 2, rs1, rs2, imm) }
func lw(rd, rs1 uint32, imm int32) uint32   { return encodeI(0b0000011, rd, 2, rs1, imm) }
func ecall() uint32                         { return encodeI(0b1110011, 0, 0, 0, 0) }

var _ = Describe("Host", func() {
	var (
		h      *hostsim.Host
		engine *ptaxi.Engine
	)

	BeforeEach(func() {
		h = hostsim.NewHost()
		engine = ptaxi.NewEngine(h)
		h.AttachEngine(engine)
	})

	It("executes an ADDI/ADD sequence and advances the PC", func() {
		h.Mem.Write32(0, addi(5, 0, 7)) // x5 = 7
		h.Mem.Write32(4, addi(6, 0, 3)) // x6 = 3
		h.Mem.Write32(8, add(7, 5, 6))  // x7 = x5 + x6
		h.Mem.Write32(12, ecall())      // never reached: only three steps run

		Expect(h.Step().Err).To(BeNil())
		Expect(h.Step().Err).To(BeNil())
		Expect(h.Step().Err).To(BeNil())

		Expect(h.Regs.ReadReg(7)).To(Equal(uint64(10)))
		Expect(h.Regs.PC).To(Equal(uint64(12)))
	})

	It("propagates the default OR'd tag on an OP instruction with no installed policy", func() {
		h.Mem.Write32(0, add(7, 5, 6))
		h.Regs.WriteRegTag(5, 0x1)
		h.Regs.WriteRegTag(6, 0x2)

		Expect(h.Step().Err).To(BeNil())

		Expect(h.Regs.ReadRegTag(7)).To(Equal(ptaxi.Tag(0x3)))
	})

	It("carries the source tag through on an OPIMM (ADDI with a nonzero immediate), as it does on a COPY", func() {
		h.Mem.Write32(0, addi(7, 5, 1))
		h.Regs.WriteRegTag(5, 0x4)

		Expect(h.Step().Err).To(BeNil())

		Expect(h.Regs.ReadRegTag(7)).To(Equal(ptaxi.Tag(0x4)))
	})

	It("stores the source register's tag into memory by default", func() {
		h.Regs.WriteReg(5, 0x100)
		h.Regs.WriteReg(6, 0xdead)
		h.Regs.WriteRegTag(6, 0x9)
		h.Mem.Write32(0, sw(5, 6, 0))

		Expect(h.Step().Err).To(BeNil())

		Expect(h.Mem.Read32(0x100)).To(Equal(uint32(0xdead)))
		tag, err := h.Mem.ReadTag(0x100, 32)
		Expect(err).To(BeNil())
		Expect(tag).To(Equal(ptaxi.Tag(0x9)))
	})

	It("clears the stored tag when WithNoPartialCopy is set", func() {
		h2 := hostsim.NewHost(hostsim.WithNoPartialCopy())
		e2 := ptaxi.NewEngine(h2)
		h2.AttachEngine(e2)

		h2.Regs.WriteReg(5, 0x100)
		h2.Regs.WriteReg(6, 0xdead)
		h2.Regs.WriteRegTag(6, 0x9)
		h2.Mem.Write32(0, sw(5, 6, 0))

		Expect(h2.Step().Err).To(BeNil())

		tag, err := h2.Mem.ReadTag(0x100, 32)
		Expect(err).To(BeNil())
		Expect(tag).To(Equal(ptaxi.Tag(0)))
	})

	It("loads a value back out of tagged memory", func() {
		h.Regs.WriteReg(5, 0x200)
		h.Mem.Write32(0x200, 0x2a)
		Expect(h.Mem.WriteTag(0x200, 32, 0x7)).To(BeNil())

		h.Mem.Write32(0, lw(8, 5, 0))
		Expect(h.Step().Err).To(BeNil())

		Expect(h.Regs.ReadReg(8)).To(Equal(uint64(0x2a)))
	})

	It("blocks a tagged store when a BLOCK policy is installed", func() {
		a, b, c := policy.Encode(policy.Policy{
			InsnType:     policy.Store,
			TagArg1Mask:  0xff,
			TagArg1Match: 0x1,
			Action:       policy.ActionBlock,
		})
		engine.AddPolicy(a, b, c)
		engine.RunTagCommand(0)

		h.Regs.WriteReg(5, 0x100)
		h.Regs.WriteReg(6, 0xdead)
		h.Regs.WriteRegTag(6, 0x1)
		h.Mem.Write32(0, sw(5, 6, 0))

		result := h.Step()
		Expect(result.Err).NotTo(BeNil())
		var trapErr *ptaxi.TrapError
		Expect(result.Err).To(BeAssignableToTypeOf(trapErr))
	})

	It("intercepts SYSTEM opcodes as syscalls, ahead of the engine", func() {
		h.Regs.WriteReg(10, 42) // a0: exit code
		h.Regs.WriteReg(17, hostsim.SyscallExit)
		h.Mem.Write32(0, ecall())

		result := h.Step()
		Expect(result.Exited).To(BeTrue())
		Expect(result.ExitCode).To(Equal(int64(42)))
	})

	It("writes to stdout via the write syscall", func() {
		var buf bytes.Buffer
		h3 := hostsim.NewHost(hostsim.WithStdout(&buf))
		e3 := ptaxi.NewEngine(h3)
		h3.AttachEngine(e3)

		msg := []byte("hi")
		h3.Mem.LoadProgram(0x300, msg)
		h3.Regs.WriteReg(10, 1) // fd 1
		h3.Regs.WriteReg(11, 0x300)
		h3.Regs.WriteReg(12, uint64(len(msg)))
		h3.Regs.WriteReg(17, hostsim.SyscallWrite)
		h3.Mem.Write32(0, ecall())

		Expect(h3.Step().Err).To(BeNil())
		Expect(buf.String()).To(Equal("hi"))
	})

	It("honors WithMaxInstructions", func() {
		h4 := hostsim.NewHost(hostsim.WithMaxInstructions(1))
		e4 := ptaxi.NewEngine(h4)
		h4.AttachEngine(e4)
		h4.Mem.Write32(0, addi(5, 0, 1))
		h4.Mem.Write32(4, addi(5, 0, 2))

		Expect(h4.Step().Err).To(BeNil())
		Expect(h4.Step().Err).NotTo(BeNil())
	})

	It("jumps via JAL and writes the link register", func() {
		h.Mem.Write32(0, encodeJAL(1, 8))
		Expect(h.Step().Err).To(BeNil())
		Expect(h.Regs.PC).To(Equal(uint64(8)))
		Expect(h.Regs.ReadReg(1)).To(Equal(uint64(4)))
	})

	It("leaves exactly one live copy of the return-address tag after a NO_RETURN_COPY store", func() {
		h5 := hostsim.NewHost()
		e5 := ptaxi.NewEngine(h5, ptaxi.WithNoReturnCopy())
		h5.AttachEngine(e5)
		e5.RunTagCommand(0)

		h5.Regs.WriteReg(5, 0x100)
		h5.Regs.WriteReg(riscv.RegRA, 0xdead)
		h5.Regs.WriteRegTag(riscv.RegRA, 0x42)
		h5.Mem.Write32(0, sw(5, uint32(riscv.RegRA), 0))

		Expect(h5.Step().Err).To(BeNil())

		tag, err := h5.Mem.ReadTag(0x100, 32)
		Expect(err).To(BeNil())
		Expect(tag).To(Equal(ptaxi.Tag(0x42)))
		Expect(h5.Regs.ReadRegTag(riscv.RegRA)).To(Equal(ptaxi.Tag(0)))
	})
})
