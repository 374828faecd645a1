package levels

// History is a bounded undo stack of manager snapshots. Each entry carries
// an opaque mark, typically the length of a move log at the time of the
// snapshot, so callers can rewind their own records alongside the board.
type History struct {
	limit   int
	entries []historyEntry
}

type historyEntry struct {
	snap Snapshot
	mark int
}

// DefaultHistoryLimit bounds History when no limit is given.
const DefaultHistoryLimit = 64

// NewHistory returns an empty stack holding at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records a snapshot. The oldest entry is dropped when full.
func (h *History) Push(s Snapshot, mark int) {
	if len(h.entries) == h.limit {
		h.entries = append(h.entries[:0], h.entries[1:]...)
	}
	h.entries = append(h.entries, historyEntry{snap: s, mark: mark})
}

// Pop removes and returns the most recent snapshot.
func (h *History) Pop() (Snapshot, int, bool) {
	if len(h.entries) == 0 {
		return Snapshot{}, 0, false
	}
	e := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return e.snap, e.mark, true
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.entries) }

// Clear drops every snapshot.
func (h *History) Clear() { h.entries = h.entries[:0] }
