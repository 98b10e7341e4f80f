// Package history keeps a bounded undo/redo stack of image states.
//
// The stack holds full image snapshots, not diffs. Every image handed in is
// deep-copied on the way onto a stack, so callers may keep mutating their
// buffers. Depth is capped; when a new state would exceed the cap, the
// oldest state is evicted so memory use stays proportional to the cap
// regardless of session length.
package history

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// DefaultLimit is the default maximum undo depth.
const DefaultLimit = 20

// History is a bounded undo/redo stack. Safe for concurrent use.
type History struct {
	mu    sync.Mutex
	undo  []image.Image
	redo  []image.Image
	limit int
}

// New creates a history with the given depth limit. Non-positive limits fall
// back to DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// SaveState records a deep copy of img as an undoable state and clears the
// redo stack. Call it with the pre-mutation image, immediately before
// applying an edit.
func (h *History) SaveState(img image.Image) {
	snapshot := imaging.Clone(img)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo = append(h.undo, snapshot)
	if len(h.undo) > h.limit {
		// Evict the oldest state, keeping the slice's backing array from
		// pinning evicted images.
		copy(h.undo, h.undo[1:])
		h.undo[len(h.undo)-1] = nil
		h.undo = h.undo[:h.limit]
	}
	h.redo = nil
}

// Undo pops the most recent undoable state and pushes a copy of current
// onto the redo stack. Returns false when there is nothing to undo; current
// is untouched in that case.
func (h *History) Undo(current image.Image) (image.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.undo)
	if n == 0 {
		return nil, false
	}
	img := h.undo[n-1]
	h.undo[n-1] = nil
	h.undo = h.undo[:n-1]
	h.redo = append(h.redo, imaging.Clone(current))
	return img, true
}

// Redo pops the most recent redoable state and pushes a copy of current
// back onto the undo stack without clearing redo. Returns false when there
// is nothing to redo.
func (h *History) Redo(current image.Image) (image.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.redo)
	if n == 0 {
		return nil, false
	}
	img := h.redo[n-1]
	h.redo[n-1] = nil
	h.redo = h.redo[:n-1]
	h.undo = append(h.undo, imaging.Clone(current))
	return img, true
}

// CanUndo reports whether an undoable state exists.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether a redoable state exists.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Depth returns the current undo and redo stack sizes.
func (h *History) Depth() (undoDepth, redoDepth int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo), len(h.redo)
}

// Clear drops all recorded states, typically when a new image is loaded.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = nil
	h.redo = nil
}
