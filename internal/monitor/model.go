// Package monitor is the interactive terminal UI: a Bubble Tea model
// that polls the server on an adjustable interval, reconciles selection
// and rate state across snapshots, and renders the activity table.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/pgtop/internal/activity"
	"github.com/rileyhilliard/pgtop/internal/logger"
)

// ViewMode defines the current display mode.
type ViewMode int

const (
	ViewTable ViewMode = iota
	ViewDetail
)

// SignalKind distinguishes the two destructive actions.
type SignalKind int

const (
	SignalNone SignalKind = iota
	SignalCancel
	SignalTerminate
)

// String returns the verb shown in confirmation prompts.
func (k SignalKind) String() string {
	switch k {
	case SignalCancel:
		return "cancel"
	case SignalTerminate:
		return "terminate"
	default:
		return ""
	}
}

// past returns the verb for a completed action.
func (k SignalKind) past() string {
	switch k {
	case SignalCancel:
		return "cancelled"
	case SignalTerminate:
		return "terminated"
	default:
		return ""
	}
}

// Sink receives each applied snapshot, e.g. for CSV export. Nil disables
// export.
type Sink interface {
	Append(activity.RenderSnapshot) error
}

// Options configures a new model.
type Options struct {
	Mode        activity.QueryMode // initial mode, zero value = running
	Interval    time.Duration
	MinInterval time.Duration
	MaxInterval time.Duration
	Budget      int // selection inactivity budget in ticks, 0 = default
	Sink        Sink
	Prune       func(live []int32) // sampler handle cleanup, nil when remote
	Log         logger.Logger
}

// fetchTimeout bounds a single poll round trip. Slower than this and the
// snapshot is useless anyway; the next tick will retry.
const fetchTimeout = 10 * time.Second

// statusTTL is how long transient status-line messages stay visible.
const statusTTL = 5 * time.Second

// intervalStep is the increment for the +/- interval keys.
const intervalStep = time.Second

// Model is the Bubble Tea model for the activity monitor.
type Model struct {
	assembler *activity.Assembler
	registry  activity.Registry
	selection activity.Selection
	snapshot  activity.RenderSnapshot
	haveSnap  bool

	mode    activity.QueryMode
	sortKey activity.SortKey

	interval    time.Duration
	minInterval time.Duration
	maxInterval time.Duration

	paused   bool
	fetching bool
	quitting bool

	width  int
	height int
	scroll int // first visible row index

	viewMode      ViewMode
	detailView    viewport.Model
	viewportReady bool
	showHelp      bool

	// Pending destructive action awaiting y/n confirmation.
	pending     SignalKind
	pendingPIDs []int32

	status    string
	statusExp time.Time

	sink       Sink
	prune      func(live []int32)
	log        logger.Logger
	lastUpdate time.Time
	lastErr    string
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// snapshotMsg carries the result of one poll. It is tagged with the mode
// it was fetched under so a result racing a mode switch can be discarded.
type snapshotMsg struct {
	mode activity.QueryMode
	snap activity.RenderSnapshot
	reg  activity.Registry
	err  error
}

// signalMsg carries the outcome of a cancel/terminate round trip.
type signalMsg struct {
	kind  SignalKind
	pid   int32
	ok    bool
	err   error
	total int // how many pids the action covered
	done  int // position of this pid, 1-based
}

// New creates the monitor model. The assembler decides local vs remote;
// the model only threads registry and selection state through it.
func New(assembler *activity.Assembler, opts Options) Model {
	log := opts.Log
	if log == nil {
		log = logger.Noop()
	}
	return Model{
		assembler:   assembler,
		registry:    activity.NewRegistry(),
		selection:   activity.NewSelection(opts.Budget),
		mode:        opts.Mode,
		sortKey:     activity.SortDuration,
		interval:    opts.Interval,
		minInterval: opts.MinInterval,
		maxInterval: opts.MaxInterval,
		sink:        opts.Sink,
		prune:       opts.Prune,
		log:         log,
	}
}

// Init starts the tick timer and the first poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.fetchCmd())
}

// Update handles messages and advances the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		// Resize re-renders the retained snapshot; it never refetches.
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		m.clampScroll()

	case tickMsg:
		m.expireStatus()
		m.selection.TickIdle()
		cmds := []tea.Cmd{m.tickCmd()}
		if !m.paused && !m.fetching {
			m.fetching = true
			cmds = append(cmds, m.fetchCmd())
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.fetching = false
		m.applySnapshot(msg)

	case signalMsg:
		m.applySignal(msg)
	}

	return m, nil
}

// View renders the current display mode.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	base := m.render()
	if m.showHelp {
		return m.renderHelpOverlay(base)
	}
	return base
}

// tickCmd schedules the next tick after the current interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd runs one poll in the background. The registry travels by
// value into the closure, so a mode switch mid-flight cannot corrupt it.
func (m Model) fetchCmd() tea.Cmd {
	mode := m.mode
	reg := m.registry
	assembler := m.assembler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		snap, next, err := assembler.Tick(ctx, mode, reg)
		return snapshotMsg{mode: mode, snap: snap, reg: next, err: err}
	}
}

// signalCmds builds one command per target pid so outcomes stream back
// individually.
func (m Model) signalCmds(kind SignalKind, pids []int32) tea.Cmd {
	assembler := m.assembler
	cmds := make([]tea.Cmd, 0, len(pids))
	for i, pid := range pids {
		pid, i := pid, i
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			var ok bool
			var err error
			if kind == SignalTerminate {
				ok, err = assembler.Terminate(ctx, pid)
			} else {
				ok, err = assembler.Cancel(ctx, pid)
			}
			return signalMsg{kind: kind, pid: pid, ok: ok, err: err, total: len(pids), done: i + 1}
		})
	}
	return tea.Batch(cmds...)
}

// applySnapshot folds a poll result into the model.
func (m *Model) applySnapshot(msg snapshotMsg) {
	// A result fetched under a previous mode describes the wrong table.
	if msg.mode != m.mode {
		m.log.Debug("dropping stale %s snapshot (now in %s)", msg.mode, m.mode)
		return
	}

	if msg.err != nil {
		// Keep showing the last good snapshot; surface the failure.
		m.lastErr = msg.err.Error()
		m.setStatus("poll failed: " + shortError(msg.err))
		return
	}
	m.lastErr = ""
	m.lastUpdate = msg.snap.TakenAt

	if msg.mode == activity.ModeRunning {
		m.registry = msg.reg
		if m.prune != nil {
			m.prune(msg.snap.PIDs())
		}
	}

	activity.SortRecords(msg.snap.Records, m.sortKey, m.mode, m.assembler.Local())
	m.snapshot = msg.snap
	m.haveSnap = true
	m.selection.Reconcile(msg.snap.Records)
	m.clampScroll()

	if m.viewMode == ViewDetail {
		m.updateDetailContent()
	}

	if m.sink != nil && len(msg.snap.Records) > 0 {
		if err := m.sink.Append(msg.snap); err != nil {
			m.log.Error("export: %v", err)
			m.setStatus("export failed: " + shortError(err))
		}
	}
}

// applySignal reports one cancel/terminate outcome on the status line.
func (m *Model) applySignal(msg signalMsg) {
	switch {
	case msg.err != nil:
		m.setStatus(fmt.Sprintf("%s %d failed: %s", msg.kind, msg.pid, shortError(msg.err)))
	case !msg.ok:
		m.setStatus(fmt.Sprintf("backend %d already gone", msg.pid))
	case msg.total > 1:
		m.setStatus(fmt.Sprintf("%s backend %d (%d/%d)", msg.kind.past(), msg.pid, msg.done, msg.total))
	default:
		m.setStatus(fmt.Sprintf("%s backend %d", msg.kind.past(), msg.pid))
	}
}

// setMode switches the query mode. The previous snapshot is dropped so
// rows from one mode are never rendered under another's columns; the
// running-mode registry is retained for when running mode returns.
func (m *Model) setMode(mode activity.QueryMode) tea.Cmd {
	if mode == m.mode {
		return nil
	}
	m.mode = mode
	m.snapshot = activity.RenderSnapshot{Mode: mode}
	m.haveSnap = false
	m.selection.Clear()
	m.scroll = 0
	m.pending = SignalNone
	if !m.fetching {
		m.fetching = true
		return m.fetchCmd()
	}
	return nil
}

// setSortKey re-sorts the retained snapshot immediately.
func (m *Model) setSortKey(key activity.SortKey) {
	m.sortKey = key
	if !key.ApplicableTo(m.mode, m.assembler.Local()) {
		m.setStatus(fmt.Sprintf("%s sort needs local running mode; using duration", key))
	}
	activity.SortRecords(m.snapshot.Records, key, m.mode, m.assembler.Local())
	m.clampScroll()
}

// adjustInterval changes the refresh period by delta, clamped to the
// configured bounds.
func (m *Model) adjustInterval(delta time.Duration) {
	next := m.interval + delta
	if next < m.minInterval {
		next = m.minInterval
	}
	if next > m.maxInterval {
		next = m.maxInterval
	}
	if next == m.interval {
		return
	}
	m.interval = next
	m.setStatus("refresh every " + next.String())
}

// requestSignal arms the confirmation prompt for the current selection.
func (m *Model) requestSignal(kind SignalKind) {
	pids := m.selection.Selected()
	if len(pids) == 0 {
		m.setStatus("nothing selected")
		return
	}
	m.pending = kind
	m.pendingPIDs = pids
}

// confirmSignal fires the armed action.
func (m *Model) confirmSignal() tea.Cmd {
	kind, pids := m.pending, m.pendingPIDs
	m.pending = SignalNone
	m.pendingPIDs = nil
	m.selection.Clear()
	return m.signalCmds(kind, pids)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusExp = time.Now().Add(statusTTL)
}

func (m *Model) expireStatus() {
	if m.status != "" && time.Now().After(m.statusExp) {
		m.status = ""
	}
}

// clampScroll keeps the focused row inside the visible window and the
// window inside the record list.
func (m *Model) clampScroll() {
	rows := m.visibleRows()
	n := len(m.snapshot.Records)
	if m.scroll > n-rows {
		m.scroll = n - rows
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
	if pid, ok := m.selection.Focused(); ok {
		idx := recordIndex(m.snapshot.Records, pid)
		if idx < 0 {
			return
		}
		if idx < m.scroll {
			m.scroll = idx
		}
		if rows > 0 && idx >= m.scroll+rows {
			m.scroll = idx - rows + 1
		}
	}
}

// Paused reports whether polling is suspended.
func (m Model) Paused() bool { return m.paused }

// Interval returns the current refresh period.
func (m Model) Interval() time.Duration { return m.interval }

// Mode returns the current query mode.
func (m Model) Mode() activity.QueryMode { return m.mode }

// SecondsSinceUpdate returns how stale the rendered snapshot is.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}

func (m *Model) resizeViewport() {
	h := m.height - detailChromeHeight
	if h < 1 {
		h = 1
	}
	if !m.viewportReady {
		m.detailView = viewport.New(m.width, h)
		m.viewportReady = true
	} else {
		m.detailView.Width = m.width
		m.detailView.Height = h
	}
	if m.viewMode == ViewDetail {
		m.updateDetailContent()
	}
}

func recordIndex(records []activity.ProcessRecord, pid int32) int {
	for i, r := range records {
		if r.PID == pid {
			return i
		}
	}
	return -1
}

func shortError(err error) string {
	s := err.Error()
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
