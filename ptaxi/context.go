package ptaxi

import (
	"github.com/sirupsen/logrus"

	"github.com/ptaxisim/engine/policy"
)

// MaxContexts is the number of context ids the status-register field can
// address (7 bits).
const MaxContexts = 1 << 7

// StatusRegContextShift is the bit offset of the 7-bit context-id field
// within the privileged status register.
const StatusRegContextShift = 9

// StatusRegContextMask masks the 7-bit context-id field after shifting it
// into position.
const StatusRegContextMask = uint64(MaxContexts-1) << StatusRegContextShift

// DebugModeContextID is the fixed context id used while benchmark mode is
// active, bypassing the status-register lookup entirely.
const DebugModeContextID = 42

// Context holds the per-context control state: whether enforcement is on,
// the context's privilege bits, the stack-scrub watermark, and its
// append-only policy list.
type Context struct {
	Enabled      bool
	PrivBits     uint8
	LowestSPAddr uint64
	Policies     []policy.Entry
}

func (c Context) clone() Context {
	policies := make([]policy.Entry, len(c.Policies))
	copy(policies, c.Policies)
	return Context{
		Enabled:      c.Enabled,
		PrivBits:     c.PrivBits,
		LowestSPAddr: c.LowestSPAddr,
		Policies:     policies,
	}
}

// ContextStore is the ordered array of contexts indexed by context id.
// Context 0 always exists, never enforces, and acts as the prototype new
// contexts are copied from. The store grows but never shrinks and ids are
// never reused within a run.
type ContextStore struct {
	states []Context
	log    *logrus.Logger
}

// NewContextStore creates a store with context 0 initialized to the
// non-enforcing default.
func NewContextStore(log *logrus.Logger) *ContextStore {
	if log == nil {
		log = logrus.New()
	}
	return &ContextStore{
		states: []Context{{}},
		log:    log,
	}
}

// ensure grows the store, copying context 0, so every id up to and
// including id maps to initialized state.
func (cs *ContextStore) ensure(id uint8) {
	for len(cs.states) <= int(id) {
		cs.states = append(cs.states, cs.states[0].clone())
	}
}

// Get returns the context for id, growing the store if necessary.
func (cs *ContextStore) Get(id uint8) *Context {
	cs.ensure(id)
	return &cs.states[id]
}

// Default returns context 0, used as the prototype for newly allocated
// contexts (e.g. to install built-in policies before any guest id is
// observed).
func (cs *ContextStore) Default() *Context {
	return &cs.states[0]
}

// ContextID determines the current context id from the host's status
// register (or the fixed debug sentinel in benchmark mode), without
// allocating a new id. If addIfNeeded is true and the status-register
// field is currently zero, a fresh id is allocated and written back.
// Allocation that would exceed MaxContexts silently falls back to context
// 0 (non-enforcing) and logs a diagnostic.
func (cs *ContextStore) ContextID(host Host, benchmarkMode, addIfNeeded bool) uint8 {
	var id uint8
	if benchmarkMode {
		id = DebugModeContextID
	} else {
		id = uint8((host.StatusRegister() & StatusRegContextMask) >> StatusRegContextShift)
	}

	if addIfNeeded && id == 0 {
		next := len(cs.states)
		if next >= MaxContexts {
			cs.log.WithField("requested", next).Warn("ptaxi: context table exhausted, falling back to context 0")
			return 0
		}
		id = uint8(next)
		old := host.StatusRegister()
		host.SetStatusRegister(old | (uint64(id) << StatusRegContextShift))
	}

	cs.ensure(id)
	return id
}
