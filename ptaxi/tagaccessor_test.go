package ptaxi_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/ptaxi"
	"github.com/ptaxisim/engine/riscv"
)

var _ = Describe("TagAccessor", func() {
	var (
		host     *mockHost
		accessor *ptaxi.TagAccessor
	)

	BeforeEach(func() {
		host = newMockHost()
		accessor = ptaxi.NewTagAccessor(host)
	})

	It("reads and writes a register tag", func() {
		insn := riscv.Insn{Rs1: 3, Rd: 4}
		Expect(accessor.Write(policy.Copy, policy.RoleOut, insn, 0, ptaxi.Tag(0x5))).To(Succeed())
		t, err := accessor.Read(policy.Copy, policy.RoleOut, insn, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(ptaxi.Tag(0x5)))
	})

	It("treats register 0 as permanently tag-zero", func() {
		insn := riscv.Insn{Rs1: 0, Rd: 0}
		Expect(accessor.Write(policy.Copy, policy.RoleOut, insn, 0, ptaxi.Tag(0xff))).To(Succeed())
		t, err := accessor.Read(policy.Copy, policy.RoleOut, insn, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(ptaxi.Tag(0)))
	})

	It("reads and writes a memory tag through a resolved address", func() {
		insn := riscv.Insn{Rs1: 1, Rd: 2, IImm: 0x10}
		Expect(accessor.Write(policy.Load, policy.RoleArg1, insn, 0x100, ptaxi.Tag(0x7))).To(Succeed())
		t, err := accessor.Read(policy.Load, policy.RoleArg1, insn, 0x100)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(ptaxi.Tag(0x7)))
	})

	It("traps with TrapInvalidOperand for a role that does not exist", func() {
		insn := riscv.Insn{}
		_, err := accessor.Read(policy.Load, policy.RoleArg2, insn, 0)
		Expect(err).To(HaveOccurred())
		var trapErr *ptaxi.TrapError
		Expect(err).To(BeAssignableToTypeOf(trapErr))
		Expect(err.(*ptaxi.TrapError).Kind).To(Equal(ptaxi.TrapInvalidOperand))
	})
})
