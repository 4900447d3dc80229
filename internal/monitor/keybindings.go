package monitor

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/pgtop/internal/activity"
)

// Key bindings as constants for consistency.
const (
	KeyQuit    = "q"
	KeyQuitAlt = "ctrl+c"
	KeyPause   = "p"

	KeyFaster = "-"
	KeySlower = "+"

	KeyModeRunning  = "1"
	KeyModeWaiting  = "2"
	KeyModeBlocking = "3"

	KeySortDuration = "t"
	KeySortCPU      = "c"
	KeySortMem      = "m"
	KeySortRead     = "r"
	KeySortWrite    = "w"

	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeyPageUp      = "pgup"
	KeyPageDown    = "pgdown"
	KeySelectFirst = "home"
	KeySelectLast  = "end"

	KeyTogglePin = " "
	KeyClear     = "esc"
	KeyExpand    = "enter"

	KeyTerminate = "K"
	KeyCancel    = "C"
	KeyConfirm   = "y"
	KeyDeny      = "n"

	KeyToggleHelp = "?"
)

// pageStride is how many rows pgup/pgdown move the focus.
const pageStride = 10

// HandleKeyMsg processes keyboard input. Returns true if the key was
// handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// An armed destructive action swallows everything except y/n.
	if m.pending != SignalNone {
		switch key {
		case KeyConfirm:
			return true, m.confirmSignal()
		case KeyDeny, KeyClear:
			m.pending = SignalNone
			m.pendingPIDs = nil
			m.setStatus("aborted")
			return true, nil
		case KeyQuitAlt:
			m.quitting = true
			return true, tea.Quit
		}
		return true, nil
	}

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyClear {
		m.showHelp = false
		return true, nil
	}

	// Detail view: Esc returns to the table, everything else scrolls
	// the viewport.
	if m.viewMode == ViewDetail {
		switch key {
		case KeyClear, KeyExpand:
			m.viewMode = ViewTable
			return true, nil
		case KeyQuit, KeyQuitAlt:
			m.quitting = true
			return true, tea.Quit
		}
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return true, cmd
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyPause:
		m.paused = !m.paused
		if m.paused {
			m.setStatus("paused")
		} else {
			m.setStatus("resumed")
		}
		return true, nil

	case KeySlower:
		m.adjustInterval(intervalStep)
		return true, nil

	case KeyFaster:
		m.adjustInterval(-intervalStep)
		return true, nil

	case KeyModeRunning:
		return true, m.setMode(activity.ModeRunning)
	case KeyModeWaiting:
		return true, m.setMode(activity.ModeWaiting)
	case KeyModeBlocking:
		return true, m.setMode(activity.ModeBlocking)

	case KeySortDuration:
		m.setSortKey(activity.SortDuration)
		return true, nil
	case KeySortCPU:
		m.setSortKey(activity.SortCPU)
		return true, nil
	case KeySortMem:
		m.setSortKey(activity.SortMem)
		return true, nil
	case KeySortRead:
		m.setSortKey(activity.SortRead)
		return true, nil
	case KeySortWrite:
		m.setSortKey(activity.SortWrite)
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		m.selection.Prev(m.snapshot.Records)
		m.clampScroll()
		return true, nil
	case KeySelectNext, KeySelectNextJ:
		m.selection.Next(m.snapshot.Records)
		m.clampScroll()
		return true, nil
	case KeyPageUp:
		m.selection.Page(m.snapshot.Records, -pageStride)
		m.clampScroll()
		return true, nil
	case KeyPageDown:
		m.selection.Page(m.snapshot.Records, pageStride)
		m.clampScroll()
		return true, nil
	case KeySelectFirst:
		m.selection.First(m.snapshot.Records)
		m.clampScroll()
		return true, nil
	case KeySelectLast:
		m.selection.Last(m.snapshot.Records)
		m.clampScroll()
		return true, nil

	case KeyTogglePin:
		m.selection.TogglePin()
		return true, nil

	case KeyClear:
		m.selection.Clear()
		return true, nil

	case KeyExpand:
		if _, ok := m.selection.Focused(); ok {
			m.viewMode = ViewDetail
			m.updateDetailContent()
		}
		return true, nil

	case KeyTerminate:
		m.requestSignal(SignalTerminate)
		return true, nil
	case KeyCancel:
		m.requestSignal(SignalCancel)
		return true, nil
	}

	return false, nil
}
