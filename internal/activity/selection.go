package activity

import "sort"

// SelectionPhase is the logical state of the interactive selection.
type SelectionPhase int

const (
	// SelIdle: nothing focused, nothing pinned.
	SelIdle SelectionPhase = iota
	// SelBrowsing: one record focused; falls back to idle after the
	// inactivity budget runs out.
	SelBrowsing
	// SelPinned: one or more records pinned for bulk action. Pins never
	// time out and take precedence over focus.
	SelPinned
)

// DefaultInactivityBudget is how many consecutive no-input ticks a
// browsing focus survives before it is dropped.
const DefaultInactivityBudget = 30

// Selection tracks which records are focused or pinned across ticks. It
// references records by pid only, so it must be reconciled against each new
// record list: pids that vanished from the server are dropped silently.
//
// The value is owned exclusively by the poll loop; there is no internal
// locking.
type Selection struct {
	focused   int32 // 0 = none (pid 0 never appears in snapshots)
	pinned    map[int32]struct{}
	idleTicks int
	budget    int
}

// NewSelection returns an idle selection. budget <= 0 uses the default
// inactivity budget.
func NewSelection(budget int) Selection {
	if budget <= 0 {
		budget = DefaultInactivityBudget
	}
	return Selection{pinned: make(map[int32]struct{}), budget: budget}
}

// Phase derives the current logical state.
func (s *Selection) Phase() SelectionPhase {
	if len(s.pinned) > 0 {
		return SelPinned
	}
	if s.focused != 0 {
		return SelBrowsing
	}
	return SelIdle
}

// Focused returns the focused pid, if any.
func (s *Selection) Focused() (int32, bool) {
	return s.focused, s.focused != 0
}

// IsPinned reports whether a pid is in the pinned set.
func (s *Selection) IsPinned(pid int32) bool {
	_, ok := s.pinned[pid]
	return ok
}

// Selected returns the pids a bulk action applies to: the pinned set when
// non-empty, else the focused pid, else nothing. Sorted for stable output.
func (s *Selection) Selected() []int32 {
	if len(s.pinned) > 0 {
		pids := make([]int32, 0, len(s.pinned))
		for pid := range s.pinned {
			pids = append(pids, pid)
		}
		sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
		return pids
	}
	if s.focused != 0 {
		return []int32{s.focused}
	}
	return nil
}

// Next moves focus to the following record, wrapping at the end. On an
// empty list it is a no-op; with no prior focus it lands on the first
// record.
func (s *Selection) Next(records []ProcessRecord) {
	s.move(records, +1, 0)
}

// Prev moves focus to the preceding record, wrapping at the start. With no
// prior focus it lands on the last record.
func (s *Selection) Prev(records []ProcessRecord) {
	s.move(records, -1, len(records)-1)
}

// Page moves focus by stride records (negative = up), clamping at the list
// bounds rather than wrapping.
func (s *Selection) Page(records []ProcessRecord, stride int) {
	if len(records) == 0 {
		return
	}
	idx := s.focusIndex(records)
	if idx < 0 {
		idx = 0
	}
	idx += stride
	if idx < 0 {
		idx = 0
	}
	if idx >= len(records) {
		idx = len(records) - 1
	}
	s.focusOn(records[idx].PID)
}

// First focuses the first record.
func (s *Selection) First(records []ProcessRecord) {
	if len(records) == 0 {
		return
	}
	s.focusOn(records[0].PID)
}

// Last focuses the last record.
func (s *Selection) Last(records []ProcessRecord) {
	if len(records) == 0 {
		return
	}
	s.focusOn(records[len(records)-1].PID)
}

// TogglePin pins the focused record, or unpins it if already pinned.
// Unpinning the last pinned record falls back to plain browsing on the
// still-focused record.
func (s *Selection) TogglePin() {
	if s.focused == 0 {
		return
	}
	if _, ok := s.pinned[s.focused]; ok {
		delete(s.pinned, s.focused)
	} else {
		s.pinned[s.focused] = struct{}{}
	}
	s.resetBudget()
}

// Clear drops focus and all pins: used for the explicit cancel input and
// after a confirmed destructive action.
func (s *Selection) Clear() {
	s.focused = 0
	s.pinned = make(map[int32]struct{})
	s.idleTicks = 0
}

// TickIdle counts one tick without navigation input. When the inactivity
// budget is exhausted a browsing focus is dropped; pins are unaffected.
func (s *Selection) TickIdle() {
	if s.Phase() != SelBrowsing {
		return
	}
	s.idleTicks++
	if s.idleTicks >= s.budget {
		s.focused = 0
		s.idleTicks = 0
	}
}

// Reconcile intersects the selection with the pid set of the newest record
// list. Stale pins vanish without user-visible error; a vanished focus
// drops back to idle unless pins are still held.
func (s *Selection) Reconcile(records []ProcessRecord) {
	present := make(map[int32]struct{}, len(records))
	for _, r := range records {
		present[r.PID] = struct{}{}
	}
	for pid := range s.pinned {
		if _, ok := present[pid]; !ok {
			delete(s.pinned, pid)
		}
	}
	if s.focused != 0 {
		if _, ok := present[s.focused]; !ok {
			s.focused = 0
		}
	}
}

// move implements wrapping navigation. fallback is the index used when
// nothing is focused yet (or the focus is not in the list).
func (s *Selection) move(records []ProcessRecord, delta, fallback int) {
	if len(records) == 0 {
		return
	}
	idx := s.focusIndex(records)
	if idx < 0 {
		idx = fallback
	} else {
		idx = (idx + delta + len(records)) % len(records)
	}
	s.focusOn(records[idx].PID)
}

func (s *Selection) focusIndex(records []ProcessRecord) int {
	if s.focused == 0 {
		return -1
	}
	for i, r := range records {
		if r.PID == s.focused {
			return i
		}
	}
	return -1
}

func (s *Selection) focusOn(pid int32) {
	s.focused = pid
	s.resetBudget()
}

func (s *Selection) resetBudget() {
	s.idleTicks = 0
}
