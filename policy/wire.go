package policy

// Policies are installed over the wire as three 64-bit words (add_policy's
// a, b, c operands). The layout is defined once, as a table of bit
// positions, and Encode/Decode are generated from that single table rather
// than duplicating the offsets — this is the only place the layout is
// allowed to be spelled out.
//
// Word 0: instruction-shape and privilege constraints.
// Word 1: source-register-value constraints, truncated to one byte each
//
//	(policies key off specific low bytes of a value, not its full
//	64 bits — e.g. "immediate looks like a syscall number"), plus
//	ignore-count and the action bitset.
//
// Word 2: tag constraints and the out-tag update.
type field struct {
	word   int
	offset uint
	width  uint
}

var (
	fInsnType     = field{0, 0, 8}
	fRs1Mask      = field{0, 8, 5}
	fRs1Match     = field{0, 13, 5}
	fRs2Mask      = field{0, 18, 5}
	fRs2Match     = field{0, 23, 5}
	fPrivMask     = field{0, 28, 8}
	fPrivMatch    = field{0, 36, 8}
	fPrivToModify = field{0, 44, 8}
	fPrivSet      = field{0, 52, 8}
	// bits [60:64) of word 0 are reserved.

	fRs1ValMask  = field{1, 0, 8}
	fRs1ValMatch = field{1, 8, 8}
	fRs2ValMask  = field{1, 16, 8}
	fRs2ValMatch = field{1, 24, 8}
	fIgnoreCount = field{1, 32, 16}
	fActionWord1 = field{1, 48, 8}
	// bits [56:64) of word 1 are reserved.

	fTagArg1Mask    = field{2, 0, 8}
	fTagArg1Match   = field{2, 8, 8}
	fTagArg2Mask    = field{2, 16, 8}
	fTagArg2Match   = field{2, 24, 8}
	fTagOutMask     = field{2, 32, 8}
	fTagOutMatch    = field{2, 40, 8}
	fTagOutToModify = field{2, 48, 8}
	fTagOutSet      = field{2, 56, 8}
)

func (f field) get(words [3]uint64) uint64 {
	mask := uint64(1)<<f.width - 1
	return (words[f.word] >> f.offset) & mask
}

func (f field) set(words *[3]uint64, v uint64) {
	mask := uint64(1)<<f.width - 1
	words[f.word] = (words[f.word] &^ (mask << f.offset)) | ((v & mask) << f.offset)
}

// Encode packs a Policy into the three 64-bit words add_policy expects.
func Encode(p Policy) (a, b, c uint64) {
	var words [3]uint64

	fInsnType.set(&words, uint64(p.InsnType))
	fRs1Mask.set(&words, uint64(p.Rs1Mask))
	fRs1Match.set(&words, uint64(p.Rs1Match))
	fRs2Mask.set(&words, uint64(p.Rs2Mask))
	fRs2Match.set(&words, uint64(p.Rs2Match))
	fPrivMask.set(&words, uint64(p.PrivMask))
	fPrivMatch.set(&words, uint64(p.PrivMatch))
	fPrivToModify.set(&words, uint64(p.PrivToModify))
	fPrivSet.set(&words, uint64(p.PrivSet))

	fRs1ValMask.set(&words, uint64(p.Rs1ValMask))
	fRs1ValMatch.set(&words, uint64(p.Rs1ValMatch))
	fRs2ValMask.set(&words, uint64(p.Rs2ValMask))
	fRs2ValMatch.set(&words, uint64(p.Rs2ValMatch))
	fIgnoreCount.set(&words, uint64(p.IgnoreCount))
	fActionWord1.set(&words, uint64(p.Action))

	fTagArg1Mask.set(&words, uint64(p.TagArg1Mask))
	fTagArg1Match.set(&words, uint64(p.TagArg1Match))
	fTagArg2Mask.set(&words, uint64(p.TagArg2Mask))
	fTagArg2Match.set(&words, uint64(p.TagArg2Match))
	fTagOutMask.set(&words, uint64(p.TagOutMask))
	fTagOutMatch.set(&words, uint64(p.TagOutMatch))
	fTagOutToModify.set(&words, uint64(p.TagOutToModify))
	fTagOutSet.set(&words, uint64(p.TagOutSet))

	return words[0], words[1], words[2]
}

// Decode unpacks the three 64-bit words add_policy receives into a Policy.
func Decode(a, b, c uint64) Policy {
	words := [3]uint64{a, b, c}

	return Policy{
		InsnType: InsnType(fInsnType.get(words)),

		Rs1Mask:  uint8(fRs1Mask.get(words)),
		Rs1Match: uint8(fRs1Match.get(words)),
		Rs2Mask:  uint8(fRs2Mask.get(words)),
		Rs2Match: uint8(fRs2Match.get(words)),

		PrivMask:     uint8(fPrivMask.get(words)),
		PrivMatch:    uint8(fPrivMatch.get(words)),
		PrivToModify: uint8(fPrivToModify.get(words)),
		PrivSet:      uint8(fPrivSet.get(words)),

		Rs1ValMask:  uint8(fRs1ValMask.get(words)),
		Rs1ValMatch: uint8(fRs1ValMatch.get(words)),
		Rs2ValMask:  uint8(fRs2ValMask.get(words)),
		Rs2ValMatch: uint8(fRs2ValMatch.get(words)),
		IgnoreCount: uint16(fIgnoreCount.get(words)),
		Action:      Action(fActionWord1.get(words)),

		TagArg1Mask:    uint8(fTagArg1Mask.get(words)),
		TagArg1Match:   uint8(fTagArg1Match.get(words)),
		TagArg2Mask:    uint8(fTagArg2Mask.get(words)),
		TagArg2Match:   uint8(fTagArg2Match.get(words)),
		TagOutMask:     uint8(fTagOutMask.get(words)),
		TagOutMatch:    uint8(fTagOutMatch.get(words)),
		TagOutToModify: uint8(fTagOutToModify.get(words)),
		TagOutSet:      uint8(fTagOutSet.get(words)),
	}
}
