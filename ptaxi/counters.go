package ptaxi

import "fmt"

// Counters accumulates instruction, match, and tag-traffic counts while
// benchmark mode is active. Its primary use is comparing policy designs
// under identical workloads.
type Counters struct {
	Insns      uint64
	MatchInsns uint64
	TagRead    uint64
	TagWrite   uint64

	// Needs is a 16-entry histogram indexed by a 4-bit code
	// (loadedArg1<<3 | loadedArg2<<2 | loadedOut<<1 | performedWrite).
	Needs [16]uint64
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
	*c = Counters{}
}

// needsIndex packs the four lazy-load/write flags into the histogram
// index the benchmark histogram uses.
func needsIndex(loadedArg1, loadedArg2, loadedOut, wrote bool) uint8 {
	var idx uint8
	if loadedArg1 {
		idx |= 1 << 3
	}
	if loadedArg2 {
		idx |= 1 << 2
	}
	if loadedOut {
		idx |= 1 << 1
	}
	if wrote {
		idx |= 1
	}
	return idx
}

// recordInsn folds one instruction's tag-traffic shape into the
// histogram and the running totals.
func (c *Counters) recordInsn(matched, loadedArg1, loadedArg2, loadedOut, wrote bool) {
	c.Insns++
	if matched {
		c.MatchInsns++
	}
	if wrote {
		c.TagWrite++
	}
	c.Needs[needsIndex(loadedArg1, loadedArg2, loadedOut, wrote)]++
}

// CSV renders the counters as the single RESULT line benchmark output requires:
// "RESULT", insns, match_insns, tag_read, tag_write, needs[0..15].
func (c *Counters) CSV() string {
	s := fmt.Sprintf("RESULT,%d,%d,%d,%d", c.Insns, c.MatchInsns, c.TagRead, c.TagWrite)
	for _, n := range c.Needs {
		s += fmt.Sprintf(",%d", n)
	}
	return s
}
