package inspect

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gauntlet/internal/agent"
	"gauntlet/internal/judge"
)

// suspicious-answer bounds: searches that spiral or barely run, answers
// that are trivially short or far too long
const (
	minToolCalls = 2
	maxToolCalls = 10
	minAnswerLen = 100
	maxAnswerLen = 2000
)

// HasIssues flags results worth a manual look even when the judge passed
// them.
func HasIssues(r agent.Result) bool {
	if r.Failed {
		return true
	}
	n := len(r.ToolCalls)
	if n < minToolCalls || n > maxToolCalls {
		return true
	}
	if len(r.Answer) < minAnswerLen || len(r.Answer) > maxAnswerLen {
		return true
	}
	return false
}

// RunModel browses one evaluation run: agent results joined with their
// judge verdicts, with an issues-only filter and a per-record detail view.
type RunModel struct {
	runID    string
	results  []agent.Result
	verdicts map[int]judge.Record // by question index; empty when unjudged

	table      table.Model
	issuesOnly bool
	visible    []int
	showDetail bool
	width      int
}

// NewRunModel constructs a run browser. verdicts may be nil when the run
// has not been judged yet.
func NewRunModel(runID string, results []agent.Result, verdicts []judge.Record) RunModel {
	byIndex := make(map[int]judge.Record, len(verdicts))
	for _, v := range verdicts {
		byIndex[v.QuestionIndex] = v
	}
	t := table.New(
		table.WithColumns(runColumns(80)),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
	)
	t.SetStyles(tableStyles())
	m := RunModel{
		runID:    runID,
		results:  results,
		verdicts: byIndex,
		table:    t,
		width:    80,
	}
	m.refilter()
	return m
}

func runColumns(width int) []table.Column {
	qw := max(width-46, 20)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Question", Width: qw},
		{Title: "Tools", Width: 5},
		{Title: "Chars", Width: 6},
		{Title: "Verdict", Width: 9},
		{Title: "Cost", Width: 9},
	}
}

func (m RunModel) Init() tea.Cmd { return nil }

func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-6, 1))
		m.table.SetColumns(runColumns(typed.Width))
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "i":
			m.issuesOnly = !m.issuesOnly
			m.refilter()
			return m, nil
		case "enter":
			m.showDetail = !m.showDetail
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m RunModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("Run %s: %d results", m.runID, len(m.results)))
	mode := "all"
	if m.issuesOnly {
		mode = "issues only"
	}
	status := statusStyle.Render(fmt.Sprintf(
		"showing: %s (%d) | i toggle issues, enter detail, q quit", mode, len(m.visible)))

	parts := []string{title, m.table.View(), status}
	if m.showDetail {
		if c := m.table.Cursor(); c >= 0 && c < len(m.visible) {
			parts = append(parts, detailStyle.Render(m.detail(m.results[m.visible[c]])))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *RunModel) refilter() {
	m.visible = m.visible[:0]
	for i, r := range m.results {
		if m.issuesOnly && !HasIssues(r) {
			continue
		}
		m.visible = append(m.visible, i)
	}
	rows := make([]table.Row, 0, len(m.visible))
	for _, idx := range m.visible {
		r := m.results[idx]
		rows = append(rows, table.Row{
			fmt.Sprint(r.Question.Index),
			clip(r.Question.Question, m.width-46),
			fmt.Sprint(len(r.ToolCalls)),
			fmt.Sprint(len(r.Answer)),
			m.verdictCell(r),
			fmt.Sprintf("$%.4f", r.Cost.Total),
		})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m RunModel) verdictCell(r agent.Result) string {
	if r.Failed {
		return failStyle.Render("failed")
	}
	v, ok := m.verdicts[r.Question.Index]
	if !ok {
		return "-"
	}
	if !v.Valid() {
		return failStyle.Render("skipped")
	}
	passed := 0
	for _, c := range v.Checks.ByName() {
		if c == judge.Pass {
			passed++
		}
	}
	cell := fmt.Sprintf("%d/%d", passed, len(judge.CriteriaNames))
	if passed == len(judge.CriteriaNames) {
		return passStyle.Render(cell)
	}
	return cell
}

func (m RunModel) detail(r agent.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Q%d: %s\n", r.Question.Index, r.Question.Question)
	if r.Failed {
		fmt.Fprintf(&b, "\nAGENT FAILED: %s\n", r.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "\n%s\n", clip(r.Answer, 1200))
	fmt.Fprintf(&b, "\nTool calls (%d):\n", len(r.ToolCalls))
	for _, tc := range r.ToolCalls {
		fmt.Fprintf(&b, "  %s %s\n", tc.Name, clip(string(tc.Args), 80))
	}
	if v, ok := m.verdicts[r.Question.Index]; ok {
		b.WriteString("\nVerdict:\n")
		for i, c := range v.Checks.ByName() {
			mark := "?"
			switch c {
			case judge.Pass:
				mark = passStyle.Render("pass")
			case judge.Fail:
				mark = failStyle.Render("fail")
			}
			fmt.Fprintf(&b, "  %-20s %s\n", judge.CriteriaNames[i], mark)
		}
		if v.Rationale != "" {
			fmt.Fprintf(&b, "  %s\n", clip(v.Rationale, 200))
		}
	}
	return b.String()
}
