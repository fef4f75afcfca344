// Package ui renders fix-all progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"remedy/internal/fix"
	"remedy/internal/source"
)

type progressModel struct {
	title   string
	events  <-chan fix.Event
	spinner spinner.Model
	prog    progress.Model
	items   []docItem
	index   map[source.DocumentID]int
	applied int
	width   int
	done    bool
}

type docItem struct {
	id      source.DocumentID
	label   string
	status  fix.Status
	applied int
}

type eventMsg fix.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-document fix
// progress. labels maps document ids to display names; the model quits when
// events is closed.
func NewProgressModel(title string, docs []source.DocumentID, labels map[source.DocumentID]string, events <-chan fix.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]docItem, 0, len(docs))
	index := make(map[source.DocumentID]int, len(docs))
	for i, id := range docs {
		label := labels[id]
		if label == "" {
			label = string(id)
		}
		items = append(items, docItem{id: id, label: label, status: fix.StatusQueued})
		index[id] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(fix.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// maxRows caps the document list; finished rows scroll out first.
const maxRows = 12

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = map[fix.Status]lipgloss.Style{
		fix.StatusDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		fix.StatusCached:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		fix.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		fix.StatusWorking: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
)

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	var b strings.Builder
	lead := m.spinner.View()
	if m.done {
		lead = "done:"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s (%d fixed)", lead, m.title, m.applied)))
	b.WriteString("\n\n")

	rows, hidden := m.visibleRows()
	nameWidth := max(m.width-20, 20)
	for _, item := range rows {
		st, ok := statusStyle[item.status]
		if !ok {
			st = dimStyle
		}
		b.WriteString("  ")
		b.WriteString(st.Render(fmt.Sprintf("%8s", item.status)))
		b.WriteString(" ")
		b.WriteString(truncate(item.label, nameWidth))
		if item.applied > 0 {
			fmt.Fprintf(&b, " (%d)", item.applied)
		}
		b.WriteByte('\n')
	}
	if hidden > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", hidden)))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	pct := m.percent()
	if m.done {
		pct = 1
	}
	b.WriteString(m.prog.ViewAs(pct))
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render(m.tally()))
	b.WriteByte('\n')
	return b.String()
}

// visibleRows keeps unfinished documents and fills the rest of the window
// with the most recent finished ones.
func (m *progressModel) visibleRows() ([]docItem, int) {
	if len(m.items) <= maxRows {
		return m.items, 0
	}
	keep := make([]bool, len(m.items))
	n := 0
	for i, item := range m.items {
		if !isFinal(item.status) && n < maxRows {
			keep[i] = true
			n++
		}
	}
	for i := len(m.items) - 1; i >= 0 && n < maxRows; i-- {
		if !keep[i] {
			keep[i] = true
			n++
		}
	}
	rows := make([]docItem, 0, maxRows)
	hidden := 0
	for i, item := range m.items {
		if keep[i] {
			rows = append(rows, item)
		} else {
			hidden++
		}
	}
	return rows, hidden
}

func (m *progressModel) tally() string {
	counts := make(map[fix.Status]int, 5)
	for _, item := range m.items {
		counts[item.status]++
	}
	return fmt.Sprintf("%d/%d documents  done %d  cached %d  failed %d",
		counts[fix.StatusDone]+counts[fix.StatusCached]+counts[fix.StatusError], len(m.items),
		counts[fix.StatusDone], counts[fix.StatusCached], counts[fix.StatusError])
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev fix.Event) tea.Cmd {
	if ev.Document == "" {
		// итог всего прогона
		if ev.Status == fix.StatusDone {
			m.applied = ev.Applied
		}
		return nil
	}
	idx, ok := m.index[ev.Document]
	if !ok {
		return nil
	}
	m.items[idx].status = ev.Status
	if isFinal(ev.Status) {
		m.items[idx].applied = ev.Applied
		m.applied += ev.Applied
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 1
	}
	total := 0.0
	for _, item := range m.items {
		switch {
		case isFinal(item.status):
			total += 1
		case item.status == fix.StatusWorking:
			total += 0.5
		}
	}
	return total / float64(len(m.items))
}

func isFinal(s fix.Status) bool {
	return s == fix.StatusDone || s == fix.StatusCached || s == fix.StatusError
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
