package tomasulo

import "github.com/rv32toma/tomasulo/insts"

// defaultLoadStoreLatency is the number of cycles a load or store takes
// to execute once it reaches the head of the buffer and is allowed to
// run, absent an overriding latency.Table. It models a flat,
// single-level memory with no cache hierarchy.
const defaultLoadStoreLatency = 3

// LoadStoreBuffer is a FIFO-ordered, fixed-capacity queue of in-flight
// memory operations. Entries execute strictly in ROB-id order: only the
// oldest live entry may ever run, so a younger load can never race ahead
// of an older, still-unresolved store. Lookup by ROB id, not by slot, so
// entries can be updated or removed regardless of their position in the
// backing slice.
type LoadStoreBuffer struct {
	entries  []LSBEntry
	capacity int
	memory   Memory

	loadLatency  uint64
	storeLatency uint64

	broadcast     *MemResult
	nextBroadcast *MemResult
}

// Memory is the narrow interface the buffer needs from the byte-addressed
// backing store; it is satisfied by *emu.Memory.
type Memory interface {
	Load(addr uint32, width int, signed bool) int32
	Store(addr uint32, value int32, width int)
}

// NewLoadStoreBuffer returns an empty buffer of the given capacity,
// backed by mem, using the default fixed latency for both loads and
// stores.
func NewLoadStoreBuffer(capacity int, mem Memory) *LoadStoreBuffer {
	return NewLoadStoreBufferWithLatency(capacity, mem, defaultLoadStoreLatency, defaultLoadStoreLatency)
}

// NewLoadStoreBufferWithLatency returns an empty buffer using the given
// per-operation latencies, as loaded from a latency.Table.
func NewLoadStoreBufferWithLatency(capacity int, mem Memory, loadLatency, storeLatency uint64) *LoadStoreBuffer {
	if loadLatency == 0 {
		loadLatency = defaultLoadStoreLatency
	}
	if storeLatency == 0 {
		storeLatency = defaultLoadStoreLatency
	}
	return &LoadStoreBuffer{
		entries: make([]LSBEntry, 0, capacity), capacity: capacity, memory: mem,
		loadLatency: loadLatency, storeLatency: storeLatency,
	}
}

// Full reports whether the buffer has no free slot.
func (b *LoadStoreBuffer) Full() bool {
	return len(b.entries) >= b.capacity
}

// Add inserts a new load or store, ready to execute once it reaches the
// head of the queue (and, for a store, once it has been committed).
func (b *LoadStoreBuffer) Add(e LSBEntry) {
	b.entries = append(b.entries, e)
}

// CommitUpTo marks every live entry whose ROB id is at or below robID as
// committed, unblocking any store among them to begin executing. It is
// safe to call every cycle regardless of whether the ROB head is itself
// a memory op.
func (b *LoadStoreBuffer) CommitUpTo(robID uint32) {
	for i := range b.entries {
		if b.entries[i].ROBID <= robID {
			b.entries[i].Committed = true
		}
	}
}

// HasBroadcast reports whether a completed access is ready to publish
// this cycle.
func (b *LoadStoreBuffer) HasBroadcast() bool {
	return b.broadcast != nil
}

// Broadcast returns this cycle's completed access. Callers must check
// HasBroadcast first.
func (b *LoadStoreBuffer) Broadcast() MemResult {
	return *b.broadcast
}

func (b *LoadStoreBuffer) oldest() *LSBEntry {
	var oldest *LSBEntry
	for i := range b.entries {
		if oldest == nil || b.entries[i].ROBID < oldest.ROBID {
			oldest = &b.entries[i]
		}
	}
	return oldest
}

func (b *LoadStoreBuffer) remove(robID uint32) {
	for i := range b.entries {
		if b.entries[i].ROBID == robID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

func widthOf(kind insts.Kind) (width int, signed bool) {
	switch kind {
	case insts.KindLB:
		return 1, true
	case insts.KindLBU, insts.KindSB:
		return 1, false
	case insts.KindLH:
		return 2, true
	case insts.KindLHU, insts.KindSH:
		return 2, false
	default: // LW, SW
		return 4, false
	}
}

// Tick advances the buffer by one cycle. Only the globally oldest live
// entry is ever considered: if it cannot yet execute, the whole buffer
// stalls, even if a younger entry is ready, which is what gives the
// buffer its FIFO memory-ordering guarantee.
func (b *LoadStoreBuffer) Tick() {
	b.broadcast = b.nextBroadcast
	b.nextBroadcast = nil

	entry := b.oldest()
	if entry == nil {
		return
	}

	if !entry.Executing {
		canRun := entry.IsLoad || entry.Committed
		if !canRun {
			return // head blocks the whole buffer until it can run
		}
		entry.Executing = true
		if entry.IsLoad {
			entry.CyclesLeft = int(b.loadLatency)
		} else {
			entry.CyclesLeft = int(b.storeLatency)
		}
	}

	entry.CyclesLeft--
	if entry.CyclesLeft > 0 {
		return
	}

	addr := uint32(entry.Base + entry.Offset)
	width, signed := widthOf(entry.Kind)

	var result MemResult
	result.ROBID = entry.ROBID
	result.IsLoad = entry.IsLoad
	if entry.IsLoad {
		result.Value = b.memory.Load(addr, width, signed)
	} else {
		b.memory.Store(addr, entry.StoreData, width)
	}

	b.nextBroadcast = &result
	b.remove(entry.ROBID)
}

// Flush cancels every entry that has not yet committed, regardless of
// how much execution progress it has made. A committed store is a
// completed architectural effect and survives; anything else was only
// ever speculative.
func (b *LoadStoreBuffer) Flush() {
	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.Committed {
			kept = append(kept, e)
		}
	}
	b.entries = kept
	if len(b.entries) == 0 {
		b.broadcast = nil
		b.nextBroadcast = nil
	}
}
