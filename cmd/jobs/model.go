package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-replay/internal/ledger"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
)

// Application states.
const (
	StateStatusSelect = iota
	StateJobList
	StateJobDetail
)

// EntryLister reads recorded jobs. *ledger.Ledger implements it.
type EntryLister interface {
	List(ctx context.Context, status scheduler.Status) ([]ledger.Entry, error)
	Counts(ctx context.Context) (map[scheduler.Status]int, error)
}

// Model is the Bubble Tea model for browsing the job ledger.
type Model struct {
	state      int
	lister     EntryLister
	statusList list.Model
	jobTable   table.Model
	detail     viewport.Model
	entries    []ledger.Entry
	status     scheduler.Status
	selected   *ledger.Entry
	err        error
	width      int
	height     int
}

// NewModel creates a Model reading from lister.
func NewModel(lister EntryLister) Model {
	return Model{
		state:      StateStatusSelect,
		lister:     lister,
		statusList: NewStatusList(nil),
		jobTable:   NewJobTable(),
		detail:     viewport.New(80, 20),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadCounts()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusList.SetSize(msg.Width, msg.Height-4)
		m.jobTable.SetWidth(msg.Width)
		m.jobTable.SetHeight(msg.Height - 6)
		m.detail.Width = msg.Width
		m.detail.Height = msg.Height - 6

		return m, nil

	case CountsLoadedMsg:
		index := m.statusList.Index()
		m.statusList.SetItems(StatusItems(msg.Counts))
		m.statusList.Select(index)

		return m, nil

	case EntriesLoadedMsg:
		m.entries = msg.Entries
		m.err = nil
		m.jobTable = UpdateJobRows(m.jobTable, m.entries)
		m.state = StateJobList

		return m, nil

	case LoadErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	switch m.state {
	case StateStatusSelect:
		return m.updateStatusSelect(msg)
	case StateJobList:
		return m.updateJobList(msg)
	case StateJobDetail:
		return m.updateJobDetail(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateJobList:
		m.state = StateStatusSelect
		m.entries = nil
		m.err = nil

		return m, m.loadCounts()
	case StateJobDetail:
		m.state = StateJobList
		m.selected = nil
	}

	return m, nil
}

func (m Model) updateStatusSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.statusList.SelectedItem().(listItem); ok {
			m.status = item.status

			return m, m.loadEntries(item.status)
		}
	}

	var cmd tea.Cmd
	m.statusList, cmd = m.statusList.Update(msg)

	return m, cmd
}

func (m Model) updateJobList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		cursor := m.jobTable.Cursor()
		if cursor >= 0 && cursor < len(m.entries) {
			entry := m.entries[cursor]
			m.selected = &entry
			m.detail.SetContent(RenderEntry(entry))
			m.detail.GotoTop()
			m.state = StateJobDetail
		}

		return m, nil
	}

	var cmd tea.Cmd
	m.jobTable, cmd = m.jobTable.Update(msg)

	return m, cmd
}

func (m Model) updateJobDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)

	return m, cmd
}

func (m Model) loadCounts() tea.Cmd {
	lister := m.lister

	return func() tea.Msg {
		counts, err := lister.Counts(context.Background())
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return CountsLoadedMsg{Counts: counts}
	}
}

func (m Model) loadEntries(status scheduler.Status) tea.Cmd {
	lister := m.lister

	return func() tea.Msg {
		entries, err := lister.List(context.Background(), status)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return EntriesLoadedMsg{Entries: entries}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateStatusSelect:
		s.WriteString(TitleStyle.Render("Argo Replay - Job Ledger"))
		s.WriteString("\n\n")
		m.writeError(&s)
		s.WriteString(m.statusList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, q to quit"))

	case StateJobList:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Jobs - %s", statusLabel(m.status))))
		s.WriteString("\n\n")
		m.writeError(&s)

		if len(m.entries) == 0 {
			s.WriteString("No jobs recorded.\n")
		} else {
			s.WriteString(m.jobTable.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(fmt.Sprintf("Enter: details | Esc: back | q: quit | %d jobs", len(m.entries))))

	case StateJobDetail:
		if m.selected != nil {
			s.WriteString(TitleStyle.Render(fmt.Sprintf("Job %s", m.selected.Key)))
			s.WriteString("\n\n")
		}

		s.WriteString(m.detail.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("↑/↓: scroll | Esc: back | q: quit"))
	}

	return s.String()
}

func (m Model) writeError(s *strings.Builder) {
	if m.err != nil {
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}
}
