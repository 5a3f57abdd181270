package mxfcore

import "sort"

// reorderSlot is one staged entry awaiting commit, tagged with the
// edit unit it belongs to so out-of-order arrivals can be sorted and
// retrospectively inserted before the current start.
type reorderSlot struct {
	editUnit int64
	entry    IndexEntry
	complete bool
}

// ReorderIndex is the write-time staging buffer that accepts
// out-of-order entries by edit unit (as a decode-ordered essence
// stream's temporal offsets are resolved) and commits complete,
// edit-unit-ordered runs to an IndexSegment.
//
// A ReorderIndex must outlive every IndexSegment it feeds; it is owned
// by the Body writer and segments are produced by value (a copy of
// entries) at commit time.
type ReorderIndex struct {
	slots []reorderSlot
}

// NewReorderIndex returns an empty staging buffer.
func NewReorderIndex() *ReorderIndex {
	return &ReorderIndex{}
}

// Stage records entry for editUnit. complete indicates the entry's
// TemporalOffset is now fully resolved. Staging the
// same edit unit twice replaces the earlier slot, supporting
// retrospective insertion before the current start by shifting
// in-place.
func (r *ReorderIndex) Stage(editUnit int64, entry IndexEntry, complete bool) {
	for i, s := range r.slots {
		if s.editUnit == editUnit {
			r.slots[i] = reorderSlot{editUnit: editUnit, entry: entry, complete: complete}
			return
		}
	}
	r.slots = append(r.slots, reorderSlot{editUnit: editUnit, entry: entry, complete: complete})
}

// Pending reports how many staged entries await commit.
func (r *ReorderIndex) Pending() int { return len(r.slots) }

// Commit pushes every contiguous, complete run of staged entries
// starting at the lowest staged edit unit into seg, in edit-unit
// order, leaving any incomplete or non-contiguous tail staged for a
// later commit. It stops early (without error) if adding the next
// entry would overflow seg's 65,535-byte size cap — the caller is
// expected to start a new segment and call Commit again against it.
func (r *ReorderIndex) Commit(seg *IndexSegment) error {
	sort.Slice(r.slots, func(i, j int) bool { return r.slots[i].editUnit < r.slots[j].editUnit })

	i := 0
	for i < len(r.slots) {
		s := r.slots[i]
		if !s.complete {
			break
		}
		if seg.IndexDuration > 0 {
			expected := seg.IndexStartPosition + seg.IndexDuration
			if s.editUnit != expected {
				break
			}
		} else if seg.IndexDuration == 0 && len(seg.IndexEntryArray) == 0 {
			seg.IndexStartPosition = s.editUnit
		}

		if !seg.CanAddEntry(len(s.entry.SliceOffsetArray), len(s.entry.PosTableArray)) {
			break
		}
		if err := seg.AddEntry(s.entry); err != nil {
			return err
		}
		i++
	}

	r.slots = append([]reorderSlot(nil), r.slots[i:]...)
	return nil
}
