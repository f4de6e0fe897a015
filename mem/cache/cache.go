// Package cache models a tree of set-associative cache levels with MSHR
// based miss handling and LRU replacement.
//
// Multiple private caches may feed one shared lower cache. A request
// enters at a first-level cache through Send. Hits complete through the
// System hit list after the level's latency. Misses allocate a locked
// line and an MSHR entry, then travel down the tree; the last level
// drains into the System wait list toward the memory controller, which
// reports completion back through Callback.
package cache

import (
	"fmt"

	"github.com/sarchlab/ramsim/mem"
	"github.com/sarchlab/ramsim/mem/cache/internal/mshr"
	"github.com/sarchlab/ramsim/mem/cache/internal/tagging"
)

// A Cache is one level of the hierarchy.
type Cache struct {
	name   string
	system *System

	size      int
	assoc     int
	blockSize int

	decoder tagging.Decoder
	sets    map[uint64]*tagging.Set
	mshr    *mshr.MSHR

	higher []*Cache
	lower  *Cache

	// latency is the full access latency of this level as seen from the
	// core, charged on hits and on last-level fills. ownLatency is the
	// share attributable to this level alone, charged during invalidation
	// walks.
	latency    int64
	ownLatency int64

	retryList []*mem.Request

	stats Stats
}

// Name returns the name of the cache level.
func (c *Cache) Name() string {
	return c.name
}

// ConnectLowerCache places c directly above lower in the tree. Multiple
// caches may share one lower cache.
func (c *Cache) ConnectLowerCache(lower *Cache) {
	if lower == nil {
		panic("cache: connecting a nil lower cache")
	}

	c.lower = lower
	lower.higher = append(lower.higher, c)
}

// Send presents a request to this cache level. It returns false when the
// request cannot be taken this cycle (MSHR full, or no evictable line) and
// the caller must retry later.
func (c *Cache) Send(req *mem.Request) bool {
	c.stats.TotalAccess++

	if req.Type == mem.WriteAccess {
		c.stats.WriteAccess++
	} else {
		c.stats.ReadAccess++
	}

	set := c.lines(req.Address)
	tag := c.decoder.Tag(req.Address)

	if line := set.FindByTag(tag); line != nil && !line.Lock {
		set.Touch(line, req.Type == mem.WriteAccess)
		c.system.scheduleHit(c.system.clk+c.latency, req)

		debugf("%s: hit 0x%x, finishes at %d",
			c.name, req.Address, c.system.clk+c.latency)

		return true
	}

	return c.handleMiss(set, req)
}

func (c *Cache) handleMiss(set *tagging.Set, req *mem.Request) bool {
	c.stats.TotalMiss++

	dirty := req.Type == mem.WriteAccess
	if dirty {
		c.stats.WriteMiss++
	} else {
		c.stats.ReadMiss++
	}

	// A write miss is serviced as a read from the levels below. The dirty
	// bit is applied to the line allocated here.
	aligned := c.decoder.Align(req.Address)

	if entry := c.mshr.Lookup(aligned); entry != nil {
		c.stats.MSHRHit++
		entry.Line.Dirty = entry.Line.Dirty || dirty

		return true
	}

	if c.mshr.IsFull() {
		c.stats.MSHRUnavailable++
		return false
	}

	if c.allLinesLocked(set) {
		c.stats.SetUnavailable++
		return false
	}

	line := c.allocateLine(set, req.Address)
	if line == nil {
		return false
	}

	line.Dirty = dirty
	c.mshr.Add(aligned, line)

	fwd := *req
	fwd.Type = mem.ReadAccess

	if c.lower != nil {
		if !c.lower.Send(&fwd) {
			c.retryList = append(c.retryList, &fwd)
		}
	} else {
		c.system.scheduleToMemory(c.system.clk+c.latency, &fwd)
	}

	return true
}

// Invalidate removes the copy of an address at this level and recursively
// at every level above. It returns the propagation delay and whether any
// removed copy was dirty.
//
// When the set exists but the tag is absent, the call still reports this
// level's latency with dirty=false and does not walk upward. Eviction
// timing sums depend on this exact behavior.
func (c *Cache) Invalidate(addr uint64) (delay int64, dirty bool) {
	delay = c.ownLatency

	set, ok := c.sets[c.decoder.Index(addr)]
	if !ok || set.Len() == 0 {
		return 0, false
	}

	line := set.FindByTag(c.decoder.Tag(addr))
	if line == nil {
		return delay, false
	}

	if line.Lock {
		panic(fmt.Sprintf("cache: %s invalidating locked line 0x%x",
			c.name, addr))
	}

	debugf("%s: invalidate 0x%x", c.name, addr)

	lineDirty := line.Dirty
	set.Remove(line)

	if len(c.higher) == 0 {
		return delay, lineDirty
	}

	maxDelay := delay

	for _, hc := range c.higher {
		hcDelay, hcDirty := hc.Invalidate(addr)

		// A dirty reply costs the write-back on top of the walk.
		if hcDirty {
			maxDelay = max(maxDelay, delay+hcDelay*2)
		} else {
			maxDelay = max(maxDelay, delay+hcDelay)
		}

		dirty = dirty || lineDirty || hcDirty
	}

	return maxDelay, dirty
}

// Callback notifies this level that a request it forwarded has completed.
// The matching MSHR entry is resolved, its line unlocked, and every higher
// cache is notified in turn.
func (c *Cache) Callback(req *mem.Request) {
	aligned := c.decoder.Align(req.Address)

	if entry, ok := c.mshr.Remove(aligned); ok {
		entry.Line.Lock = false
	}

	for _, hc := range c.higher {
		hc.Callback(req)
	}
}

// Tick retries requests that the lower cache rejected earlier, ticking the
// lower cache first. The last level has no retry work of its own; its
// traffic is driven by the System.
func (c *Cache) Tick() {
	if c.lower == nil {
		return
	}

	if c.lower.lower != nil {
		c.lower.Tick()
	}

	remaining := c.retryList[:0]

	for _, req := range c.retryList {
		if !c.lower.Send(req) {
			remaining = append(remaining, req)
		}
	}

	c.retryList = remaining
}

// lines returns the set for an address, creating it on first touch.
func (c *Cache) lines(addr uint64) *tagging.Set {
	index := c.decoder.Index(addr)

	set, ok := c.sets[index]
	if !ok {
		set = &tagging.Set{}
		c.sets[index] = set
	}

	return set
}

func (c *Cache) allLinesLocked(set *tagging.Set) bool {
	if set.Len() < c.assoc {
		return false
	}

	for _, l := range set.Lines() {
		if !l.Lock {
			return false
		}
	}

	return true
}

// allocateLine makes room in the set and installs a fresh locked, clean
// line for addr at the MRU position. It returns nil when every candidate
// victim is pinned by this level or a level above.
func (c *Cache) allocateLine(
	set *tagging.Set,
	addr uint64,
) *tagging.Line {
	if c.needEviction(set, addr) {
		victim := c.findVictim(set)
		if victim == nil {
			return nil
		}

		c.evict(set, victim)
	}

	line := &tagging.Line{
		Addr: addr,
		Tag:  c.decoder.Tag(addr),
		Lock: true,
	}
	set.PushMRU(line)

	return line
}

func (c *Cache) needEviction(set *tagging.Set, addr uint64) bool {
	if set.FindByTag(c.decoder.Tag(addr)) != nil {
		// The MSHR merge path keeps a second allocation for a resident
		// tag from ever being requested.
		panic(fmt.Sprintf(
			"cache: %s allocating already-resident tag for 0x%x",
			c.name, addr))
	}

	return set.Len() >= c.assoc
}

// findVictim picks the least recently used line that is unlocked at this
// level and at every level above.
func (c *Cache) findVictim(set *tagging.Set) *tagging.Line {
	for _, l := range set.Lines() {
		ok := !l.Lock

		for _, hc := range c.higher {
			ok = ok && hc.checkUnlock(l.Addr)
		}

		if ok {
			return l
		}
	}

	return nil
}

// checkUnlock reports whether the copy of addr at this level (if any) and
// at every level above is unlocked.
func (c *Cache) checkUnlock(addr uint64) bool {
	set, ok := c.sets[c.decoder.Index(addr)]
	if !ok {
		return true
	}

	line := set.FindByTag(c.decoder.Tag(addr))
	if line == nil {
		return true
	}

	if line.Lock {
		return false
	}

	for _, hc := range c.higher {
		if !hc.checkUnlock(line.Addr) {
			return false
		}
	}

	return true
}

// evict removes a victim line, invalidating its copies above first. Below
// the last level the victim only refreshes the lower cache's LRU state;
// at the last level a dirty victim becomes a write-back to memory.
func (c *Cache) evict(set *tagging.Set, victim *tagging.Line) {
	c.stats.Eviction++

	debugf("%s: evict 0x%x", c.name, victim.Addr)

	addr := victim.Addr
	dirty := victim.Dirty

	var invalidateTime int64

	for _, hc := range c.higher {
		hcDelay, hcDirty := hc.Invalidate(addr)

		if hcDirty {
			hcDelay += c.ownLatency
		}

		invalidateTime = max(invalidateTime, hcDelay)
		dirty = dirty || hcDirty
	}

	if c.lower != nil {
		c.lower.refreshLRU(addr, dirty)
	} else if dirty {
		wb := mem.NewRequest(addr, mem.WriteAccess)
		c.system.scheduleToMemory(
			c.system.clk+invalidateTime+c.latency, wb)

		debugf("%s: write back 0x%x, issue at %d",
			c.name, addr, c.system.clk+invalidateTime+c.latency)
	}

	set.Remove(victim)
}

// refreshLRU moves a line that a higher level evicted to the MRU position
// here, folding in the dirtiness collected above. The line must be
// resident; a higher level can only hold what this level holds.
func (c *Cache) refreshLRU(addr uint64, dirty bool) {
	set, ok := c.sets[c.decoder.Index(addr)]
	if !ok {
		panic(fmt.Sprintf(
			"cache: %s refreshing 0x%x in an untouched set", c.name, addr))
	}

	line := set.FindByTag(c.decoder.Tag(addr))
	if line == nil {
		panic(fmt.Sprintf(
			"cache: %s refreshing non-resident line 0x%x", c.name, addr))
	}

	set.Touch(line, dirty)
}
