package cache

import (
	"github.com/sarchlab/ramsim/mem/cache/internal/mshr"
	"github.com/sarchlab/ramsim/mem/cache/internal/tagging"
)

// Builder can build cache levels. The zero defaults describe a last-level
// cache; feed different sizes and latencies for upper levels.
type Builder struct {
	system *System

	byteSize     int
	wayAssoc     int
	blockSize    int
	mshrCapacity int
	latency      int64
	ownLatency   int64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		byteSize:     4 * 1024 * 1024,
		wayAssoc:     8,
		blockSize:    64,
		mshrCapacity: 16,
		latency:      47,
		ownLatency:   31,
	}
}

// WithSystem sets the cache system the level belongs to.
func (b Builder) WithSystem(system *System) Builder {
	b.system = system
	return b
}

// WithByteSize sets the total capacity in bytes.
func (b Builder) WithByteSize(byteSize int) Builder {
	b.byteSize = byteSize
	return b
}

// WithWayAssociativity sets the number of ways per set.
func (b Builder) WithWayAssociativity(wayAssoc int) Builder {
	b.wayAssoc = wayAssoc
	return b
}

// WithBlockSize sets the block size in bytes.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithMSHRCapacity sets the number of in-flight misses the level tracks.
func (b Builder) WithMSHRCapacity(capacity int) Builder {
	b.mshrCapacity = capacity
	return b
}

// WithLatency sets the full access latency of the level in cycles, as
// seen from the core. Hits and last-level fills are charged this amount.
func (b Builder) WithLatency(latency int64) Builder {
	b.latency = latency
	return b
}

// WithOwnLatency sets the share of the access latency attributable to
// this level alone, charged during invalidation walks.
func (b Builder) WithOwnLatency(ownLatency int64) Builder {
	b.ownLatency = ownLatency
	return b
}

// Build builds a cache level. Malformed size, associativity, or block
// size parameters panic here, at construction.
func (b Builder) Build(name string) *Cache {
	if b.system == nil {
		panic("cache: builder needs a system")
	}

	return &Cache{
		name:       name,
		system:     b.system,
		size:       b.byteSize,
		assoc:      b.wayAssoc,
		blockSize:  b.blockSize,
		decoder:    tagging.NewDecoder(b.byteSize, b.wayAssoc, b.blockSize),
		sets:       make(map[uint64]*tagging.Set),
		mshr:       mshr.New(b.mshrCapacity),
		latency:    b.latency,
		ownLatency: b.ownLatency,
	}
}
