package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-replay/internal/ledger"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
)

// listItem implements list.Item for the status filter.
type listItem struct {
	status scheduler.Status
	count  int
}

func (i listItem) Title() string       { return statusLabel(i.status) }
func (i listItem) Description() string { return fmt.Sprintf("%d jobs", i.count) }
func (i listItem) FilterValue() string { return statusLabel(i.status) }

// statusLabel names a filter. The empty status matches every job.
func statusLabel(status scheduler.Status) string {
	if status == "" {
		return "All"
	}

	return string(status)
}

// StatusItems builds the filter entries: All first, then every finished status.
func StatusItems(counts map[scheduler.Status]int) []list.Item {
	total := 0
	for _, n := range counts {
		total += n
	}

	items := []list.Item{listItem{status: "", count: total}}

	for _, status := range scheduler.AllStatuses {
		if status == scheduler.StatusPending || status == scheduler.StatusRunning {
			continue
		}

		items = append(items, listItem{status: status, count: counts[status]})
	}

	return items
}

// NewStatusList creates the status filter list.
func NewStatusList(counts map[scheduler.Status]int) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(StatusItems(counts), delegate, 0, 0)
	l.Title = "Filter by Status"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewJobTable creates the table listing recorded jobs.
func NewJobTable() table.Model {
	columns := []table.Column{
		{Title: "Job", Width: 24},
		{Title: "Status", Width: 14},
		{Title: "Duration", Width: 12},
		{Title: "Recorded", Width: 20},
		{Title: "Error", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateJobRows replaces the table rows with entries, keeping their order.
func UpdateJobRows(t table.Model, entries []ledger.Entry) table.Model {
	rows := make([]table.Row, 0, len(entries))

	for _, e := range entries {
		rows = append(rows, table.Row{
			e.Key,
			FormatStatus(e.Status),
			e.Duration.Round(time.Millisecond).String(),
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			firstLine(e.Error),
		})
	}

	t.SetRows(rows)
	t.SetCursor(0)

	return t
}

// RenderEntry formats one entry for the detail view.
func RenderEntry(e ledger.Entry) string {
	var s strings.Builder

	fmt.Fprintf(&s, "Status:   %s\n", FormatStatus(e.Status))
	fmt.Fprintf(&s, "Started:  %s\n", e.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(&s, "Duration: %s\n", e.Duration)

	if e.Error != "" {
		fmt.Fprintf(&s, "Error:    %s\n", ErrorStyle.Render(e.Error))
	}

	if e.Value != "" {
		s.WriteString("\n")
		s.WriteString(TitleStyle.Render("Result"))
		s.WriteString("\n")
		s.WriteString(e.Value)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(TitleStyle.Render("Logs"))
	s.WriteString("\n")

	if e.Logs == "" {
		s.WriteString(HelpStyle.Render("(no logs)"))
	} else {
		s.WriteString(e.Logs)
	}

	return s.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}

	return s
}
