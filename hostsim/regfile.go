// Package hostsim provides a reference Host implementation for the
// ptaxi engine: a register file, byte-addressable tagged memory, and a
// minimal RV64I functional step loop. None of it is the enforcement
// core; it exists so the engine can be exercised end to end without a
// real ISA simulator.
package hostsim

import "github.com/ptaxisim/engine/ptaxi"

// RegFile is the RV64 integer register file, shadowed one-for-one by a
// tag array. Register 0 is hardwired to value and tag zero.
type RegFile struct {
	X    [32]uint64
	Tags [32]ptaxi.Tag
	PC   uint64
}

// ReadReg reads register idx. Register 0 always reads as zero.
func (r *RegFile) ReadReg(idx uint8) uint64 {
	if idx == 0 {
		return 0
	}
	return r.X[idx]
}

// WriteReg writes value to register idx. Writes to register 0 are dropped.
func (r *RegFile) WriteReg(idx uint8, value uint64) {
	if idx == 0 {
		return
	}
	r.X[idx] = value
}

// ReadRegTag returns the tag shadowing register idx. Register 0 always
// reads tag zero.
func (r *RegFile) ReadRegTag(idx uint8) ptaxi.Tag {
	if idx == 0 {
		return 0
	}
	return r.Tags[idx]
}

// WriteRegTag sets the tag shadowing register idx. Writes to register 0
// are dropped.
func (r *RegFile) WriteRegTag(idx uint8, t ptaxi.Tag) {
	if idx == 0 {
		return
	}
	r.Tags[idx] = t
}
