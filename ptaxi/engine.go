package ptaxi

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/riscv"
)

// gcStride is the word size, in bytes, the GC action scrubs the stack
// region at.
const gcStride = 8

// Engine is the tag-propagation and policy-enforcement engine. It owns no
// simulator state of its own beyond the context table and benchmark
// counters; everything else is read and written through a Host.
type Engine struct {
	host         Host
	stores       *ContextStore
	access       *TagAccessor
	counts       Counters
	bench        bool
	log          *logrus.Logger
	noReturnCopy bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger overrides the engine's diagnostic logger.
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) {
		e.log = log
		e.stores.log = log
	}
}

// WithNoReturnCopy enables the NO_RETURN_COPY built-in behavior: whenever
// an enabled, non-supervisor context stores the return-address register
// (x1) to memory, the engine clears that register's tag immediately
// afterward so only one live copy of the return-address tag exists. See
// builtin.go.
func WithNoReturnCopy() Option {
	return func(e *Engine) {
		e.noReturnCopy = true
	}
}

// NewEngine creates an Engine backed by host.
func NewEngine(host Host, opts ...Option) *Engine {
	log := logrus.New()
	e := &Engine{
		host:   host,
		stores: NewContextStore(log),
		access: NewTagAccessor(host),
		log:    log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddPolicy decodes a, b, c into a Policy and appends it to the current
// context, allocating a fresh context id if the status register doesn't
// name one yet.
func (e *Engine) AddPolicy(a, b, c uint64) {
	id := e.stores.ContextID(e.host, e.bench, true)
	ctx := e.stores.Get(id)
	ctx.Policies = append(ctx.Policies, policy.Entry{Policy: policy.Decode(a, b, c)})
}

// RunTagCommand enables enforcement on the current context when cmd == 0;
// other values are reserved and only logged.
func (e *Engine) RunTagCommand(cmd uint64) {
	id := e.stores.ContextID(e.host, e.bench, true)
	if cmd == 0 {
		e.log.WithField("context_id", id).Info("ptaxi: enforcement enabled")
		e.stores.Get(id).Enabled = true
	} else {
		e.log.WithField("cmd", cmd).Warn("ptaxi: unrecognized tag command")
	}
	e.dumpPolicies(id)
}

// StartBenchmark enables benchmark-counter collection and switches the
// current context to the fixed debug sentinel id.
func (e *Engine) StartBenchmark() {
	if e.bench {
		return
	}
	e.counts.Reset()
	e.bench = true
}

// StopBenchmark disables benchmark-counter collection and returns the
// RESULT CSV line.
func (e *Engine) StopBenchmark() string {
	if !e.bench {
		return ""
	}
	e.dumpPolicies(DebugModeContextID)
	csv := e.counts.CSV()
	e.bench = false
	return csv
}

// Counters exposes the live benchmark counters (read-only use expected).
func (e *Engine) Counters() Counters {
	return e.counts
}

// ExecuteInsn drives one retired instruction: matching, action dispatch,
// tag propagation, the host's functional step, and stack-pointer
// tracking. step performs the instruction's normal architectural effect
// (register/PC update) and returns the resulting PC.
func (e *Engine) ExecuteInsn(pc uint64, insn riscv.Insn, step func() (uint64, error)) (uint64, error) {
	kind := Classify(insn)

	// TAGCMD with a nonzero destination captures the pre-match tag value
	// of its second source register, for GETTAG to hand back later —
	// this must happen before matching can overwrite it.
	var preMatchTag Tag
	if kind == policy.TagCmd && insn.Rd != 0 {
		preMatchTag = e.host.ReadRegTag(insn.Rs2)
	}

	id := e.stores.ContextID(e.host, e.bench, false)
	ctx := e.stores.Get(id)

	var action policy.Action
	lastIndex := -2
	if id != 0 && ctx.Enabled && !e.host.IsSupervisor() {
		var err error
		action, lastIndex, err = Match(ctx, kind, insn, e.host, e.access, &e.counts, e.bench)
		if err != nil {
			return pc, e.host.Trap(err)
		}
	}

	if !e.bench {
		if action&policy.ActionDebugLine != 0 {
			e.log.WithFields(logrus.Fields{"pc": fmt.Sprintf("0x%x", pc), "insn": e.host.Disassemble(insn)}).Info("ptaxi: DEBUG_LINE")
		}
		if action&policy.ActionDebugDetail != 0 {
			detailID := e.stores.ContextID(e.host, e.bench, true)
			e.logDebugDetail(pc, insn, detailID, lastIndex)
		}
		if action&policy.ActionBlock != 0 {
			blockID := e.stores.ContextID(e.host, e.bench, true)
			e.dumpPolicies(blockID)
			return pc, e.host.Trap(&TrapError{Kind: TrapBlock, PC: pc, Detail: e.host.Disassemble(insn)})
		}
	}

	if action&policy.ActionGC != 0 {
		e.gc(id)
	}

	if kind == policy.TagCmd && insn.Rd != 0 {
		if action&policy.ActionGetTag != 0 {
			e.host.WriteReg(insn.Rd, uint64(preMatchTag))
		} else {
			e.host.WriteReg(insn.Rd, e.host.ReadReg(insn.Rs2))
		}
	}

	newPC, err := step()
	if err != nil {
		return newPC, err
	}

	// NO_RETURN_COPY clears the return-address register's own tag only
	// after the functional step has retired: the store must still observe
	// the register's pre-clear tag when it copies it to memory, so that
	// exactly one live copy of the tag survives (the memory copy), not
	// zero.
	if e.noReturnCopy && (kind == policy.Store || kind == policy.Store64) &&
		insn.Rs2 == riscv.RegRA && id != 0 && ctx.Enabled && !e.host.IsSupervisor() {
		if err := e.access.Write(kind, policy.RoleArg1, insn, e.host.ReadReg(insn.Rs1), 0); err != nil {
			return pc, e.host.Trap(err)
		}
	}

	if insn.Rd == riscv.RegSP && !e.host.IsSupervisor() {
		if spID := e.stores.ContextID(e.host, e.bench, false); spID != 0 {
			spCtx := e.stores.Get(spID)
			curSP := e.host.ReadReg(riscv.RegSP)
			if spCtx.LowestSPAddr == 0 || curSP < spCtx.LowestSPAddr {
				spCtx.LowestSPAddr = curSP
			}
		}
	}

	return newPC, nil
}

// gc scrubs the stack tags between a context's lowest observed SP and the
// current SP: for addr in [lowest-8, cur_sp-8) stride 8,
// set the 64-bit tag at addr to 0, then raise the watermark to cur_sp.
func (e *Engine) gc(id uint8) {
	ctx := e.stores.Get(id)
	curSP := e.host.ReadReg(riscv.RegSP)
	lowest := ctx.LowestSPAddr

	for addr := lowest - gcStride; addr < curSP-gcStride; addr += gcStride {
		_ = e.host.WriteMemTag(addr, 64, 0)
	}
	ctx.LowestSPAddr = curSP
}

func (e *Engine) logDebugDetail(pc uint64, insn riscv.Insn, contextID uint8, lastIndex int) {
	e.log.WithFields(logrus.Fields{
		"pc":         fmt.Sprintf("0x%x", pc),
		"insn":       e.host.Disassemble(insn),
		"exit_rule":  lastIndex,
		"context_id": contextID,
		"rs1":        insn.Rs1,
		"rs2":        insn.Rs2,
		"rs1val":     e.host.ReadReg(insn.Rs1),
		"rs2val":     e.host.ReadReg(insn.Rs2),
	}).Info("ptaxi: DEBUG_DETAIL")
	e.dumpPolicies(contextID)
}

func (e *Engine) dumpPolicies(id uint8) {
	ctx := e.stores.Get(id)
	for i, entry := range ctx.Policies {
		e.log.WithFields(logrus.Fields{
			"index":        i,
			"insn_type":    entry.Policy.InsnType,
			"rs1val_match": entry.Policy.Rs1ValMatch,
			"action":       entry.Policy.Action,
			"match_count":  entry.MatchCount,
		}).Debug("ptaxi: policy")
	}
}
