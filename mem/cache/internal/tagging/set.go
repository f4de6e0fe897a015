package tagging

// A Line is the state of one resident cache block.
//
// Lines are always heap allocated, so a *Line stays a valid handle for as
// long as the line is resident. MSHR entries rely on this to unlock the
// line they allocated once the fill returns.
type Line struct {
	Addr  uint64
	Tag   uint64
	Lock  bool
	Dirty bool
}

// A Set is the list of lines resident in one set, ordered from least
// recently used (front) to most recently used (back).
type Set struct {
	lines []*Line
}

// Len returns the number of resident lines.
func (s *Set) Len() int {
	return len(s.lines)
}

// Lines exposes the resident lines in LRU order.
func (s *Set) Lines() []*Line {
	return s.lines
}

// FindByTag returns the resident line with the given tag, or nil.
func (s *Set) FindByTag(tag uint64) *Line {
	for _, l := range s.lines {
		if l.Tag == tag {
			return l
		}
	}

	return nil
}

// PushMRU appends a line at the most-recently-used position.
func (s *Set) PushMRU(line *Line) {
	s.lines = append(s.lines, line)
}

// Remove drops a line from the set.
func (s *Set) Remove(line *Line) bool {
	for i, l := range s.lines {
		if l == line {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return true
		}
	}

	return false
}

// Touch refreshes a resident line to the most-recently-used position and
// ORs the dirty flag into it.
func (s *Set) Touch(line *Line, dirty bool) {
	s.Remove(line)

	line.Dirty = line.Dirty || dirty
	s.PushMRU(line)
}
