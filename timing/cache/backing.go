package cache

import (
	"github.com/rv32toma/tomasulo/emu"
)

// MemoryBacking wraps emu.Memory as a BackingStore, translating the
// cache's 64-bit addressing convention down to the 32-bit address space
// the simulator's memory model actually uses.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// Read fetches data from the backing memory.
func (m *MemoryBacking) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = uint8(m.memory.ReadByte(uint32(addr) + uint32(i)))
	}
	return data
}
