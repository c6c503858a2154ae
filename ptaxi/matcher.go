package ptaxi

import (
	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/riscv"
)

// Match evaluates ctx's policy list against insn in insertion order,
// short-circuiting on the first failed predicate per entry and on a
// decisive (BLOCK/ALLOW) action across entries. It returns the
// accumulated action and the index of the last policy examined (equal to
// len(ctx.Policies) if the list was exhausted without a decisive action).
//
// Tag loads are lazy and idempotent: each role's tag is read through
// accessor at most once, the first time some policy's predicate or
// out-tag update references it.
func Match(ctx *Context, kind policy.InsnType, insn riscv.Insn, host Host, accessor *TagAccessor, counters *Counters, benchmarkMode bool) (policy.Action, int, error) {
	rs1Val := host.ReadReg(insn.Rs1)

	var (
		tagArg1, tagArg2, tagOut, tagOutUpdated Tag
		loadedArg1, loadedArg2, loadedOut       bool
		hasMatch                                bool
		action                                  policy.Action
	)

	loadArg1 := func() (Tag, error) {
		if !loadedArg1 {
			t, err := accessor.Read(kind, policy.RoleArg1, insn, rs1Val)
			if err != nil {
				return 0, err
			}
			tagArg1, loadedArg1 = t, true
			if benchmarkMode {
				counters.TagRead++
			}
		}
		return tagArg1, nil
	}
	loadArg2 := func() (Tag, error) {
		if !loadedArg2 {
			t, err := accessor.Read(kind, policy.RoleArg2, insn, rs1Val)
			if err != nil {
				return 0, err
			}
			tagArg2, loadedArg2 = t, true
			if benchmarkMode {
				counters.TagRead++
			}
		}
		return tagArg2, nil
	}
	loadOut := func() (Tag, error) {
		if !loadedOut {
			t, err := accessor.Read(kind, policy.RoleOut, insn, rs1Val)
			if err != nil {
				return 0, err
			}
			tagOut, tagOutUpdated, loadedOut = t, t, true
			if benchmarkMode {
				counters.TagRead++
			}
		}
		return tagOut, nil
	}

	i := 0
	for ; i < len(ctx.Policies); i++ {
		entry := &ctx.Policies[i]
		p := entry.Policy

		match := kind == p.InsnType
		if match && p.Rs1Mask != 0 {
			match = (insn.Rs1 & p.Rs1Mask) == p.Rs1Match
		}
		if match && p.Rs2Mask != 0 {
			match = (insn.Rs2 & p.Rs2Mask) == p.Rs2Match
		}
		if match && p.PrivMask != 0 {
			match = (ctx.PrivBits & p.PrivMask) == p.PrivMatch
		}
		if match && p.Rs1ValMask != 0 {
			match = (uint8(rs1Val) & p.Rs1ValMask) == p.Rs1ValMatch
		}
		if match && p.Rs2ValMask != 0 {
			rs2Val := host.ReadReg(insn.Rs2)
			match = (uint8(rs2Val) & p.Rs2ValMask) == p.Rs2ValMatch
		}
		if match && p.TagArg1Mask != 0 {
			t, err := loadArg1()
			if err != nil {
				return 0, i, err
			}
			match = (uint8(t) & p.TagArg1Mask) == p.TagArg1Match
		}
		if match && p.TagArg2Mask != 0 {
			t, err := loadArg2()
			if err != nil {
				return 0, i, err
			}
			match = (uint8(t) & p.TagArg2Mask) == p.TagArg2Match
		}
		// tag_out is loaded whenever either the mask or the to-modify bits
		// are set, not only when the mask is: a policy may want the out
		// tag's pre-firing value purely to compute the update, without
		// constraining it. The mask predicate itself applies only when the
		// mask is nonzero, like every other predicate.
		if match && (p.TagOutMask != 0 || p.TagOutToModify != 0) {
			t, err := loadOut()
			if err != nil {
				return 0, i, err
			}
			if p.TagOutMask != 0 {
				match = (uint8(t) & p.TagOutMask) == p.TagOutMatch
			}
		}

		if !match {
			continue
		}

		hasMatch = true
		entry.MatchCount++
		if entry.MatchCount <= uint64(p.IgnoreCount) {
			continue
		}

		tagOutUpdated = (tagOutUpdated &^ Tag(p.TagOutToModify)) | Tag(p.TagOutSet)
		if p.PrivToModify != 0 {
			ctx.PrivBits = (ctx.PrivBits &^ p.PrivToModify) | p.PrivSet
		}
		action |= p.Action

		if p.Action == policy.ActionBlock || p.Action == policy.ActionAllow {
			break
		}
	}

	wrote := false
	if loadedOut && tagOut != tagOutUpdated {
		if err := accessor.Write(kind, policy.RoleOut, insn, rs1Val, tagOutUpdated); err != nil {
			return 0, i, err
		}
		wrote = true
	}

	if benchmarkMode {
		counters.recordInsn(hasMatch, loadedArg1, loadedArg2, loadedOut, wrote)
	}

	return action, i, nil
}
