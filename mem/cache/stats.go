package cache

import "github.com/sarchlab/ramsim/datarecording"

// Stats aggregates the access counters of one cache level. MSHRHit counts
// misses merged into an in-flight entry; MSHRUnavailable and
// SetUnavailable count rejected sends.
type Stats struct {
	ReadAccess  uint64
	WriteAccess uint64
	TotalAccess uint64

	ReadMiss  uint64
	WriteMiss uint64
	TotalMiss uint64

	Eviction uint64

	MSHRHit         uint64
	MSHRUnavailable uint64
	SetUnavailable  uint64
}

// Stats returns a copy of the level's counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// A StatsRecord is one recordable row of per-level counters.
type StatsRecord struct {
	Cache string

	ReadAccess  uint64
	WriteAccess uint64
	TotalAccess uint64

	ReadMiss  uint64
	WriteMiss uint64
	TotalMiss uint64

	Eviction uint64

	MSHRHit         uint64
	MSHRUnavailable uint64
	SetUnavailable  uint64
}

// RecordStats inserts the level's counters into a recorder table. The
// table must have been created with a StatsRecord sample.
func (c *Cache) RecordStats(
	recorder datarecording.DataRecorder,
	tableName string,
) {
	recorder.InsertData(tableName, StatsRecord{
		Cache:           c.name,
		ReadAccess:      c.stats.ReadAccess,
		WriteAccess:     c.stats.WriteAccess,
		TotalAccess:     c.stats.TotalAccess,
		ReadMiss:        c.stats.ReadMiss,
		WriteMiss:       c.stats.WriteMiss,
		TotalMiss:       c.stats.TotalMiss,
		Eviction:        c.stats.Eviction,
		MSHRHit:         c.stats.MSHRHit,
		MSHRUnavailable: c.stats.MSHRUnavailable,
		SetUnavailable:  c.stats.SetUnavailable,
	})
}
