package inspect

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gauntlet/internal/corpus"
	"gauntlet/internal/groundtruth"
)

// difficulty filter cycle; "" shows everything
var difficultyCycle = []string{"", "easy", "medium", "hard"}

// GTModel browses a ground-truth set: cycle the difficulty filter, mark
// rows for curation, inspect the source excerpt, and export the curated
// subset to a new CSV.
type GTModel struct {
	questions []groundtruth.Question
	corpus    *corpus.Corpus // nil disables source excerpts
	exportDir string

	table      table.Model
	filterIdx  int
	visible    []int // indices into questions under the current filter
	selected   map[int]bool
	showDetail bool
	status     string
	width      int
}

// NewGTModel constructs a ground-truth browser. corp may be nil when no
// corpus directory is available; exports are written under exportDir.
func NewGTModel(questions []groundtruth.Question, corp *corpus.Corpus, exportDir string) GTModel {
	t := table.New(
		table.WithColumns(gtColumns(80)),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
	)
	t.SetStyles(tableStyles())
	m := GTModel{
		questions: questions,
		corpus:    corp,
		exportDir: exportDir,
		table:     t,
		selected:  make(map[int]bool),
		width:     80,
	}
	m.refilter()
	return m
}

func gtColumns(width int) []table.Column {
	qw := max(width-44, 20)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Sel", Width: 3},
		{Title: "Question", Width: qw},
		{Title: "Difficulty", Width: 10},
		{Title: "Intent", Width: 12},
		{Title: "Source", Width: 14},
	}
}

func (m GTModel) Init() tea.Cmd { return nil }

func (m GTModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-6, 1))
		m.table.SetColumns(gtColumns(typed.Width))
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "d":
			m.filterIdx = (m.filterIdx + 1) % len(difficultyCycle)
			m.refilter()
			return m, nil
		case " ":
			if idx, ok := m.current(); ok {
				m.selected[idx] = !m.selected[idx]
				m.refresh()
			}
			return m, nil
		case "enter":
			m.showDetail = !m.showDetail
			return m, nil
		case "e":
			m.status = m.export()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m GTModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("Ground truth: %d questions", len(m.questions)))
	filter := "all"
	if f := difficultyCycle[m.filterIdx]; f != "" {
		filter = f
	}
	status := statusStyle.Render(fmt.Sprintf(
		"filter: %s | selected: %d | space select, d filter, enter detail, e export, q quit",
		filter, len(m.curated())))
	if m.status != "" {
		status += "\n" + statusStyle.Render(m.status)
	}

	parts := []string{title, m.table.View(), status}
	if m.showDetail {
		if idx, ok := m.current(); ok {
			parts = append(parts, detailStyle.Render(m.detail(m.questions[idx])))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *GTModel) refilter() {
	want := difficultyCycle[m.filterIdx]
	m.visible = m.visible[:0]
	for i, q := range m.questions {
		if want == "" || q.Difficulty == want {
			m.visible = append(m.visible, i)
		}
	}
	m.refresh()
	m.table.SetCursor(0)
}

func (m *GTModel) refresh() {
	rows := make([]table.Row, 0, len(m.visible))
	for _, idx := range m.visible {
		q := m.questions[idx]
		sel := ""
		if m.selected[idx] {
			sel = "*"
		}
		rows = append(rows, table.Row{
			fmt.Sprint(q.Index), sel, clip(q.Question, m.width-44),
			q.Difficulty, q.Intent, clip(q.Filename, 14),
		})
	}
	m.table.SetRows(rows)
}

// current maps the table cursor back to a question index.
func (m GTModel) current() (int, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return 0, false
	}
	return m.visible[c], true
}

// curated returns the selected questions in set order.
func (m GTModel) curated() []groundtruth.Question {
	var out []groundtruth.Question
	for i, q := range m.questions {
		if m.selected[i] {
			out = append(out, q)
		}
	}
	return out
}

func (m GTModel) detail(q groundtruth.Question) string {
	body := fmt.Sprintf("Q%d [%s/%s]\n\n%s\n\nExpected: %s\n",
		q.Index, q.Difficulty, q.Intent, q.Question, q.SummaryAnswer)
	if m.corpus != nil && q.Filename != "" {
		excerpt, err := m.corpus.Excerpt(q.Filename, q.RelevantLines, 2)
		if err != nil {
			excerpt = "source unavailable: " + err.Error()
		}
		body += fmt.Sprintf("\n%s (%s)\n%s", q.Filename, q.RelevantLines, excerpt)
	}
	return body
}

func (m GTModel) export() string {
	curated := m.curated()
	if len(curated) == 0 {
		return "nothing selected"
	}
	path := groundtruth.DefaultSampleName(len(curated), time.Now())
	if m.exportDir != "" {
		path = m.exportDir + "/" + path
	}
	if err := groundtruth.SaveCSV(path, curated); err != nil {
		return "export failed: " + err.Error()
	}
	return fmt.Sprintf("exported %d questions to %s", len(curated), path)
}
