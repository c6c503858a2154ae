package hostsim

import (
	"fmt"

	"github.com/ptaxisim/engine/ptaxi"
)

// Memory is byte-addressable guest memory with a sparse tag shadow. Data
// is backed by a flat byte slice sized to the highest loaded address;
// tags are sparse since real workloads touch only a small fraction of
// their address space at tag granularity.
type Memory struct {
	data []byte
	tags map[uint64]ptaxi.Tag
}

// NewMemory creates an empty Memory.
func NewMemory() *Memory {
	return &Memory{tags: make(map[uint64]ptaxi.Tag)}
}

func (m *Memory) grow(addr uint64, n int) {
	need := addr + uint64(n)
	if need <= uint64(len(m.data)) {
		return
	}
	grown := make([]byte, need)
	copy(grown, m.data)
	m.data = grown
}

// LoadProgram copies data into memory starting at addr, growing the
// backing store as needed.
func (m *Memory) LoadProgram(addr uint64, data []byte) {
	m.grow(addr, len(data))
	copy(m.data[addr:], data)
}

// Read32 reads a little-endian 32-bit instruction word at addr.
func (m *Memory) Read32(addr uint64) uint32 {
	m.grow(addr, 4)
	return uint32(m.data[addr]) | uint32(m.data[addr+1])<<8 |
		uint32(m.data[addr+2])<<16 | uint32(m.data[addr+3])<<24
}

// Read8/Read16/Read64 read little-endian guest data at addr.
func (m *Memory) Read8(addr uint64) uint8 {
	m.grow(addr, 1)
	return m.data[addr]
}

func (m *Memory) Read16(addr uint64) uint16 {
	m.grow(addr, 2)
	return uint16(m.data[addr]) | uint16(m.data[addr+1])<<8
}

func (m *Memory) Read64(addr uint64) uint64 {
	m.grow(addr, 8)
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(m.data[addr+uint64(i)]) << (8 * i)
	}
	return v
}

// Write8/Write16/Write32/Write64 write little-endian guest data at addr.
func (m *Memory) Write8(addr uint64, v uint8) {
	m.grow(addr, 1)
	m.data[addr] = v
}

func (m *Memory) Write16(addr uint64, v uint16) {
	m.grow(addr, 2)
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
}

func (m *Memory) Write32(addr uint64, v uint32) {
	m.grow(addr, 4)
	for i := 0; i < 4; i++ {
		m.data[addr+uint64(i)] = byte(v >> (8 * i))
	}
}

func (m *Memory) Write64(addr uint64, v uint64) {
	m.grow(addr, 8)
	for i := 0; i < 8; i++ {
		m.data[addr+uint64(i)] = byte(v >> (8 * i))
	}
}

// ReadTag returns the tag at addr, for the given access width in bits.
// width only needs validating here; the tag shadow itself is addressed
// at byte granularity, keyed solely by addr.
func (m *Memory) ReadTag(addr uint64, width int) (ptaxi.Tag, error) {
	if !validWidth(width) {
		return 0, fmt.Errorf("hostsim: invalid tag access width %d at 0x%x", width, addr)
	}
	return m.tags[addr], nil
}

// WriteTag sets the tag at addr.
func (m *Memory) WriteTag(addr uint64, width int, t ptaxi.Tag) error {
	if !validWidth(width) {
		return fmt.Errorf("hostsim: invalid tag access width %d at 0x%x", width, addr)
	}
	if t == 0 {
		delete(m.tags, addr)
		return nil
	}
	m.tags[addr] = t
	return nil
}

func validWidth(width int) bool {
	switch width {
	case 8, 16, 32, 64:
		return true
	default:
		return false
	}
}
