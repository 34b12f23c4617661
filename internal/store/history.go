package store

// DefaultHistoryLimit bounds the number of undo entries kept.
const DefaultHistoryLimit = 200

// History is a linear undo stack. Entries are full state snapshots; they
// share unchanged layers with each other through the copy-on-write arena.
type History struct {
	past    []State
	present State
	future  []State
	limit   int
}

// NewHistory starts a history at initial. A limit <= 0 means unbounded.
func NewHistory(initial State, limit int) *History {
	return &History{present: initial, limit: limit}
}

func (h *History) Present() State { return h.present }

// Len returns the number of entries that can be undone.
func (h *History) Len() int { return len(h.past) }

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Push records the current present as an undo entry and moves to next.
// Any redo entries are discarded.
func (h *History) Push(next State) {
	h.past = append(h.past, h.present.withoutTransients())
	if h.limit > 0 && len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
	h.present = next
}

// Replace moves to next without recording an entry.
func (h *History) Replace(next State) {
	h.present = next
}

// Undo steps back one entry. The viewport is not part of the undo stack and
// carries over from the present.
func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, h.present.withoutTransients())
	prev.Viewport = h.present.Viewport
	h.present = prev
	return true
}

func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, h.present.withoutTransients())
	next.Viewport = h.present.Viewport
	h.present = next
	return true
}
