package console

import "sync"

// DefaultHistoryLines is the number of raw lines retained for replay.
const DefaultHistoryLines = 200

// Ring retains the most recent console lines. Safe for concurrent use: the
// device producer appends while HTTP handlers read.
type Ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewRing returns a ring retaining the last n lines. A size of zero or less
// selects DefaultHistoryLines.
func NewRing(n int) *Ring {
	if n <= 0 {
		n = DefaultHistoryLines
	}
	return &Ring{lines: make([]string, n)}
}

// Append records one line, evicting the oldest when full.
func (r *Ring) Append(line string) {
	r.mu.Lock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// Lines returns a copy of the retained lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]string, r.next)
		copy(out, r.lines[:r.next])
		return out
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	out = append(out, r.lines[:r.next]...)
	return out
}
