// Package tagging maintains the tag state of set-associative caches.
package tagging

import "math/bits"

// A Decoder slices a flat address into block offset, set index, and tag.
type Decoder struct {
	blockOffsetBits uint
	indexBits       uint
	indexMask       uint64
	blockMask       uint64
	setCount        uint64
}

// NewDecoder creates a decoder for a cache of the given total byte size,
// way associativity, and block byte size. All three must be powers of two
// and the size must not be smaller than the block size. Violations are
// configuration errors and panic.
func NewDecoder(size, assoc, blockSize int) Decoder {
	mustBePowerOfTwo(size, "cache size")
	mustBePowerOfTwo(assoc, "associativity")
	mustBePowerOfTwo(blockSize, "block size")

	if size < blockSize {
		panic("cache size must not be smaller than the block size")
	}

	setCount := size / (blockSize * assoc)
	mustBePowerOfTwo(setCount, "set count")

	return Decoder{
		blockOffsetBits: log2(blockSize),
		indexBits:       log2(setCount),
		indexMask:       uint64(setCount - 1),
		blockMask:       ^uint64(blockSize - 1),
		setCount:        uint64(setCount),
	}
}

// SetCount returns the number of sets the decoder indexes into.
func (d Decoder) SetCount() uint64 {
	return d.setCount
}

// Index returns the set index of an address.
func (d Decoder) Index(addr uint64) uint64 {
	return (addr >> d.blockOffsetBits) & d.indexMask
}

// Tag returns the tag of an address.
func (d Decoder) Tag(addr uint64) uint64 {
	return addr >> (d.blockOffsetBits + d.indexBits)
}

// Align rounds an address down to its block boundary.
func (d Decoder) Align(addr uint64) uint64 {
	return addr & d.blockMask
}

func mustBePowerOfTwo(v int, what string) {
	if v <= 0 || v&(v-1) != 0 {
		panic(what + " must be a power of two")
	}
}

func log2(v int) uint {
	return uint(bits.TrailingZeros64(uint64(v)))
}
