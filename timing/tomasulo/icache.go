package tomasulo

import (
	"github.com/rv32toma/tomasulo/emu"
	"github.com/rv32toma/tomasulo/timing/cache"
)

// cachedFetch fetches instruction words through an optional L1
// instruction cache instead of going straight to memory. It never sits
// between the load/store buffer and memory — only fetch is cache-gated,
// so enabling it changes front-end timing without touching the fixed
// load/store latency architecture.
type cachedFetch struct {
	cache   *cache.Cache
	memory  *emu.Memory
	pending   bool
	pendingPC uint32
	latency   uint64
	word      uint32
}

func newCachedFetch(icache *cache.Cache, memory *emu.Memory) *cachedFetch {
	return &cachedFetch{cache: icache, memory: memory}
}

// fetch returns the word at pc, whether it is ready this cycle, and
// whether the front-end must stall. A redirect to a different pc while
// a miss is still pending cancels the in-flight request, mirroring a
// real cache's fetch unit abandoning a stale line request on a flush.
func (f *cachedFetch) fetch(pc uint32) (word uint32, ready bool, stall bool) {
	if f.pending && f.pendingPC != pc {
		f.pending = false
		f.latency = 0
	}

	if f.pending {
		f.latency--
		if f.latency > 0 {
			return 0, false, true
		}
		f.pending = false
		return f.word, true, false
	}

	result := f.cache.Read(uint64(pc), 4)
	if result.Hit {
		return uint32(result.Data), true, false
	}

	f.pending = true
	f.pendingPC = pc
	f.latency = result.Latency - 1
	f.word = uint32(result.Data)

	if f.latency > 0 {
		return 0, false, true
	}
	f.pending = false
	return f.word, true, false
}

// stats exposes the underlying cache's hit/miss counters.
func (f *cachedFetch) stats() cache.Statistics {
	return f.cache.Stats()
}
