package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pgtop/internal/activity"
)

// Vertical chrome around the row window: header, blank, column header,
// status line, footer.
const tableChromeHeight = 5

// Chrome around the detail viewport.
const detailChromeHeight = 3

// DatabaseWidth is the fixed display width for database and user names.
const DatabaseWidth = 16

// column is one fixed-width table column.
type column struct {
	title string
	width int // 0 = remainder of the line
	value func(activity.ProcessRecord) string
}

// render draws the current view mode.
func (m Model) render() string {
	if m.viewMode == ViewDetail {
		return m.renderDetail()
	}
	return m.renderTable()
}

// renderTable draws the header, the visible row window and the footer.
func (m Model) renderTable() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	cols := m.columns()
	b.WriteString(ColumnHeaderStyle.Render(renderCells(cols, activity.ProcessRecord{}, true)))
	b.WriteString("\n")

	if !m.haveSnap {
		b.WriteString(ModeInactiveStyle.Render("  waiting for first snapshot..."))
		b.WriteString("\n")
	} else if len(m.snapshot.Records) == 0 {
		b.WriteString(ModeInactiveStyle.Render("  no matching backends"))
		b.WriteString("\n")
	} else {
		rows := m.visibleRows()
		end := m.scroll + rows
		if end > len(m.snapshot.Records) {
			end = len(m.snapshot.Records)
		}
		for _, rec := range m.snapshot.Records[m.scroll:end] {
			b.WriteString(m.rowStyle(rec).Render(renderCells(cols, rec, false)))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the mode tabs, refresh interval, aggregate IO and
// snapshot age.
func (m Model) renderHeader() string {
	modes := []struct {
		mode  activity.QueryMode
		label string
	}{
		{activity.ModeRunning, "1:running"},
		{activity.ModeWaiting, "2:waiting"},
		{activity.ModeBlocking, "3:blocking"},
	}
	var tabs []string
	for _, t := range modes {
		if t.mode == m.mode {
			tabs = append(tabs, ModeActiveStyle.Render(t.label))
		} else {
			tabs = append(tabs, ModeInactiveStyle.Render(t.label))
		}
	}

	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("pgtop")
	parts := []string{title, strings.Join(tabs, " ")}

	parts = append(parts, fmt.Sprintf("every %s", m.interval))
	if m.paused {
		parts = append(parts, PausedStyle.Render("PAUSED"))
	}

	if m.mode == activity.ModeRunning && m.assembler.Local() {
		parts = append(parts, fmt.Sprintf("io %s r / %s w",
			FormatRate(m.snapshot.IO.ReadBytesPerSec),
			FormatRate(m.snapshot.IO.WriteBytesPerSec)))
	}

	parts = append(parts, fmt.Sprintf("sort %s",
		activity.EffectiveSortKey(m.sortKey, m.mode, m.assembler.Local())))

	if age := m.SecondsSinceUpdate(); age > 1 && m.haveSnap {
		parts = append(parts, fmt.Sprintf("%ds ago", age))
	}

	return HeaderStyle.Render(strings.Join(parts, "  |  "))
}

// renderStatusLine shows the armed confirmation prompt or the transient
// status message.
func (m Model) renderStatusLine() string {
	if m.pending != SignalNone {
		return ConfirmStyle.Render(fmt.Sprintf("%s %s? (y/n)",
			m.pending, formatPIDs(m.pendingPIDs)))
	}
	if m.lastErr != "" && m.status == "" {
		return StatusLineStyle.Render(m.lastErr)
	}
	if m.status != "" {
		return StatusLineStyle.Render(m.status)
	}
	return ""
}

// renderFooter shows the key hints for the current mode.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"p pause",
		"+/- speed",
		"1/2/3 mode",
		"space pin",
		"C cancel",
		"K kill",
		"? help",
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// rowStyle picks the style for one record: focus and pins beat the
// high-risk lock highlight.
func (m Model) rowStyle(rec activity.ProcessRecord) lipgloss.Style {
	if pid, ok := m.selection.Focused(); ok && pid == rec.PID {
		return RowFocusedStyle
	}
	if m.selection.IsPinned(rec.PID) {
		return RowPinnedStyle
	}
	if rec.Kind == activity.KindLock && rec.LockMode.HighRisk() {
		return RowHighRiskStyle
	}
	return RowStyle
}

// columns returns the layout for the current mode. Resource columns only
// exist in local running mode.
func (m Model) columns() []column {
	cols := []column{
		{"PID", 7, func(r activity.ProcessRecord) string { return fmt.Sprintf("%d", r.PID) }},
		{"DATABASE", DatabaseWidth, func(r activity.ProcessRecord) string { return truncate(r.Database, DatabaseWidth) }},
		{"USER", 12, func(r activity.ProcessRecord) string { return truncate(r.User, 12) }},
	}

	if m.mode == activity.ModeRunning {
		if m.assembler.Local() {
			cols = append(cols,
				column{"CPU%", 6, func(r activity.ProcessRecord) string {
					return formatPct(r, func(l *activity.LocalStats) float64 { return l.CPUPercent })
				}},
				column{"MEM%", 6, func(r activity.ProcessRecord) string {
					return formatPct(r, func(l *activity.LocalStats) float64 { return l.MemPercent })
				}},
				column{"READ/s", 10, func(r activity.ProcessRecord) string {
					return formatLocalRate(r, func(l *activity.LocalStats) float64 { return l.ReadRate })
				}},
				column{"WRITE/s", 10, func(r activity.ProcessRecord) string {
					return formatLocalRate(r, func(l *activity.LocalStats) float64 { return l.WriteRate })
				}},
			)
		}
		cols = append(cols,
			column{"TIME", 8, func(r activity.ProcessRecord) string { return FormatDuration(r.Duration) }},
			column{"W", 2, func(r activity.ProcessRecord) string { return waitFlag(r) }},
			column{"STATE", 10, func(r activity.ProcessRecord) string { return truncate(r.State.String(), 10) }},
		)
	} else {
		cols = append(cols,
			column{"MODE", 20, func(r activity.ProcessRecord) string { return truncate(string(r.LockMode), 20) }},
			column{"TYPE", 12, func(r activity.ProcessRecord) string { return truncate(string(r.LockType), 12) }},
			column{"RELATION", 16, func(r activity.ProcessRecord) string { return truncate(r.Relation, 16) }},
			column{"TIME", 8, func(r activity.ProcessRecord) string { return FormatDuration(r.Duration) }},
		)
	}

	cols = append(cols, column{"QUERY", 0, func(r activity.ProcessRecord) string { return r.Query }})
	return cols
}

// renderCells lays one record out across the fixed column grid. header
// selects the title row instead.
func renderCells(cols []column, rec activity.ProcessRecord, header bool) string {
	var b strings.Builder
	for i, c := range cols {
		text := c.title
		if !header {
			text = c.value(rec)
		}
		if c.width == 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(pad(text, c.width))
		if i < len(cols)-1 {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// visibleRows is how many records fit under the chrome.
func (m Model) visibleRows() int {
	if m.height == 0 {
		return 40
	}
	rows := m.height - tableChromeHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

// renderDetail shows the focused record in a scrollable viewport.
func (m Model) renderDetail() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.detailView.View())
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("esc back | up/down scroll | q quit"))
	return b.String()
}

// updateDetailContent refreshes the viewport with the focused record.
func (m *Model) updateDetailContent() {
	if !m.viewportReady {
		m.resizeViewport()
	}
	pid, ok := m.selection.Focused()
	if !ok {
		m.detailView.SetContent("no backend selected")
		return
	}
	idx := recordIndex(m.snapshot.Records, pid)
	if idx < 0 {
		m.detailView.SetContent(fmt.Sprintf("backend %d is gone", pid))
		return
	}
	m.detailView.SetContent(detailContent(m.snapshot.Records[idx]))
}

// detailContent renders every field of one record, including the full
// untruncated query text.
func detailContent(rec activity.ProcessRecord) string {
	label := lipgloss.NewStyle().Foreground(ColorTextSecondary).Width(12)
	var lines []string
	add := func(k, v string) {
		if v != "" {
			lines = append(lines, label.Render(k)+v)
		}
	}

	add("pid", fmt.Sprintf("%d", rec.PID))
	add("database", rec.Database)
	add("app", rec.AppName)
	add("user", rec.User)
	add("client", rec.Client)
	add("state", rec.State.String())
	add("time", FormatDuration(rec.Duration))
	if rec.Kind == activity.KindLock {
		add("lock mode", string(rec.LockMode))
		add("lock type", string(rec.LockType))
		add("relation", rec.Relation)
	} else {
		add("wait", rec.WaitEvent)
		if rec.ParallelWorker {
			add("worker", "parallel")
		}
	}
	if rec.Local != nil {
		add("cpu", fmt.Sprintf("%.1f%%", rec.Local.CPUPercent))
		add("mem", fmt.Sprintf("%.1f%%", rec.Local.MemPercent))
		add("read", FormatRate(rec.Local.ReadRate))
		add("write", FormatRate(rec.Local.WriteRate))
	}
	lines = append(lines, "", label.Render("query"), rec.Query)
	return strings.Join(lines, "\n")
}

func waitFlag(r activity.ProcessRecord) string {
	if r.Waiting {
		return "W"
	}
	return ""
}

func formatPct(r activity.ProcessRecord, f func(*activity.LocalStats) float64) string {
	if r.Local == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", f(r.Local))
}

func formatLocalRate(r activity.ProcessRecord, f func(*activity.LocalStats) float64) string {
	if r.Local == nil {
		return "-"
	}
	return FormatRate(f(r.Local))
}

func formatPIDs(pids []int32) string {
	if len(pids) == 1 {
		return fmt.Sprintf("backend %d", pids[0])
	}
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = fmt.Sprintf("%d", pid)
	}
	return fmt.Sprintf("%d backends (%s)", len(pids), strings.Join(parts, ", "))
}

// truncate shortens s to width cells with a trailing ellipsis.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// pad right-pads (or truncates) s to exactly width cells.
func pad(s string, width int) string {
	s = truncate(s, width)
	if len(s) < width {
		return s + strings.Repeat(" ", width-len(s))
	}
	return s
}

// FormatDuration renders a duration in seconds compactly.
func FormatDuration(seconds float64) string {
	switch {
	case seconds < 10:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 60:
		return fmt.Sprintf("%.0fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm%02ds", int(seconds)/60, int(seconds)%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(seconds)/3600, int(seconds)%3600/60)
	}
}

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSecond float64) string {
	if bytesPerSecond < 1024 {
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	} else if bytesPerSecond < 1024*1024 {
		return fmt.Sprintf("%.1f KB/s", bytesPerSecond/1024)
	} else if bytesPerSecond < 1024*1024*1024 {
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB/s", bytesPerSecond/(1024*1024*1024))
}
