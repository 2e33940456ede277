package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bgunnarsson/ankidb/internal/db"
	"github.com/bgunnarsson/ankidb/internal/db/sqlite"
	"github.com/bgunnarsson/ankidb/internal/print"
)

const (
	maxColWidth = 40
	previewRows = 100
)

// Catppuccin Mocha.
var (
	borderColor = lipgloss.Color("#595B72")
	titleColor  = lipgloss.Color("#89DCEB")
	accentColor = lipgloss.Color("#C0A1F0")
	textColor   = lipgloss.Color("#CDD6F4")
	subtleColor = lipgloss.Color("#A6ADC8")
	okColor     = lipgloss.Color("#A6E3A1")
	errColor    = lipgloss.Color("#F38BA8")

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(titleColor)
	titleStyle       = lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	headerStyle      = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	selectedStyle    = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	itemStyle        = lipgloss.NewStyle().Foreground(textColor)
	hintStyle        = lipgloss.NewStyle().Foreground(subtleColor)
)

type pane int

const (
	paneTables pane = iota
	paneResults
	paneQuery
	paneCount
)

type tableEntry struct {
	name string
	rows int64
	err  error
}

type model struct {
	ctx   context.Context
	conn  *sqlite.Conn
	label string

	tables   []tableEntry
	selected int
	focus    pane

	query    textinput.Model
	result   table.Model
	lastRows *db.Rows

	status      string
	statusColor lipgloss.Color
	overlay     string

	width, height int
}

// Run starts the interactive browser and blocks until the user quits.
func Run(ctx context.Context, conn *sqlite.Conn, label string) error {
	p := tea.NewProgram(newModel(ctx, conn, label), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func newModel(ctx context.Context, conn *sqlite.Conn, label string) *model {
	ti := textinput.New()
	ti.Prompt = "sql> "
	ti.Placeholder = "SELECT ... (Enter to run)"

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true).
		Foreground(accentColor)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#1E1E2E")).Background(titleColor)

	m := &model{
		ctx:    ctx,
		conn:   conn,
		label:  label,
		query:  ti,
		result: table.New(table.WithHeight(15), table.WithStyles(styles)),
		width:  120,
		height: 30,
	}
	m.loadTables()
	return m
}

func (*model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.result.SetHeight(max(m.height-12, 3))
		m.result.SetWidth(max(m.width-tablesWidth()-8, 20))
		m.query.Width = max(m.width-12, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Overlays swallow everything but their close keys.
	if m.overlay != "" {
		switch key {
		case "esc", "enter", "q", "ctrl+q", "f1":
			m.overlay = ""
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % paneCount)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + paneCount - 1) % paneCount)
		return m, nil
	case "ctrl+r":
		m.loadTables()
		return m, nil
	case "f1":
		m.overlay = helpText
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case paneTables:
		switch key {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.tables)-1 {
				m.selected++
			}
		case "enter":
			if len(m.tables) > 0 {
				sql := fmt.Sprintf("SELECT * FROM %s LIMIT %d", sqlite.QuoteIdent(m.tables[m.selected].name), previewRows)
				m.query.SetValue(sql)
				m.runQuery(sql)
			}
		case "?":
			m.overlay = helpText
		case "q":
			return m, tea.Quit
		}
	case paneResults:
		switch key {
		case "enter":
			m.expandCurrentRow()
		case "?":
			m.overlay = helpText
		default:
			m.result, cmd = m.result.Update(msg)
		}
	case paneQuery:
		switch key {
		case "enter":
			if sql := strings.TrimSpace(m.query.Value()); sql != "" {
				m.runQuery(sql)
			}
		case "esc":
			m.setFocus(paneTables)
		default:
			m.query, cmd = m.query.Update(msg)
		}
	}
	return m, cmd
}

func (m *model) setFocus(p pane) {
	m.focus = p
	m.query.Blur()
	m.result.Blur()
	switch p {
	case paneResults:
		m.result.Focus()
	case paneQuery:
		m.query.Focus()
	}
}

// loadTables lists tables with their row counts.
func (m *model) loadTables() {
	names, err := m.conn.ListTables(m.ctx)
	if err != nil {
		m.setStatus(errColor, "Error loading tables: %v", err)
		return
	}

	m.tables = m.tables[:0]
	for _, name := range names {
		n, err := sqlite.QueryScalar(m.ctx, m.conn, "SELECT count(*) FROM "+sqlite.QuoteIdent(name))
		m.tables = append(m.tables, tableEntry{name: name, rows: n, err: err})
	}
	m.selected = 0

	if len(m.tables) == 0 {
		m.setStatus(subtleColor, "No tables found.")
		return
	}
	m.setStatus(okColor, "Tables loaded. Use arrows + Enter, or Tab to the query line.")
}

func (m *model) runQuery(sql string) {
	start := time.Now()
	rows, err := m.conn.Query(m.ctx, sql)
	if err != nil {
		m.setStatus(errColor, "Query error: %v", err)
		return
	}
	m.renderRows(rows)
	m.setStatus(okColor, "Query OK (%d rows, %s)", len(rows.Data), time.Since(start).Truncate(time.Millisecond))
}

func (m *model) renderRows(rows *db.Rows) {
	m.lastRows = rows

	widths := make([]int, len(rows.Columns))
	for i, col := range rows.Columns {
		widths[i] = min(lipgloss.Width(col.Name), maxColWidth)
	}
	cells := make([]table.Row, len(rows.Data))
	for r, row := range rows.Data {
		cells[r] = make(table.Row, len(rows.Columns))
		for c := range rows.Columns {
			var v any
			if c < len(row) {
				v = row[c]
			}
			text := strings.ReplaceAll(print.FormatValue(v), "\n", " ")
			cells[r][c] = text
			widths[c] = max(widths[c], min(lipgloss.Width(text), maxColWidth))
		}
	}

	cols := make([]table.Column, len(rows.Columns))
	for i, col := range rows.Columns {
		cols[i] = table.Column{Title: col.Name, Width: widths[i]}
	}

	// Rows first: the table renders as soon as columns change.
	m.result.SetRows(nil)
	m.result.SetColumns(cols)
	m.result.SetRows(cells)
	m.result.SetCursor(0)
}

func (m *model) expandCurrentRow() {
	if m.lastRows == nil || len(m.lastRows.Data) == 0 {
		return
	}
	idx := m.result.Cursor()
	if idx < 0 || idx >= len(m.lastRows.Data) {
		return
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Row %d", idx+1)))
	b.WriteString("\n\n")
	row := m.lastRows.Data[idx]
	for i, col := range m.lastRows.Columns {
		var v any
		if i < len(row) {
			v = row[i]
		}
		b.WriteString(headerStyle.Render(col.Name))
		b.WriteString(":\n  ")
		b.WriteString(print.FormatValue(v))
		b.WriteString("\n\n")
	}
	b.WriteString(hintStyle.Render("Esc/Enter/q to close"))
	m.overlay = b.String()
}

func (m *model) setStatus(color lipgloss.Color, format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusColor = color
}

func (m *model) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("ANKIDB") + "  " +
		lipgloss.NewStyle().Foreground(accentColor).Render(m.label)

	if m.overlay != "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, focusedPaneStyle.Render(m.overlay))
	}

	var list strings.Builder
	list.WriteString(titleStyle.Render("Tables"))
	list.WriteString("\n")
	for i, t := range m.tables {
		line := fmt.Sprintf("%s (%d)", t.name, t.rows)
		if t.err != nil {
			line = fmt.Sprintf("%s (?)", t.name)
		}
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + line))
		} else {
			list.WriteString(itemStyle.Render("  " + line))
		}
		list.WriteString("\n")
	}

	tablesPane := m.paneStyle(paneTables).Width(tablesWidth()).Render(strings.TrimRight(list.String(), "\n"))
	resultsPane := m.paneStyle(paneResults).Render(titleStyle.Render("Results") + "\n" + m.result.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, tablesPane, resultsPane)
	queryPane := m.paneStyle(paneQuery).Render(m.query.View())
	status := lipgloss.NewStyle().Foreground(m.statusColor).Render(m.status)
	hint := hintStyle.Render("Tab: switch pane  Enter: run/expand  Ctrl+R: reload  F1: help  Ctrl+Q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, queryPane, status, hint)
}

func (m *model) paneStyle(p pane) lipgloss.Style {
	if m.focus == p {
		return focusedPaneStyle
	}
	return paneStyle
}

func tablesWidth() int { return 28 }

const helpText = `ankidb help

  Tab / Shift+Tab   Cycle focus: tables, results, query
  Up/Down, j/k      Move in the tables list or results
  Enter (tables)    Preview the selected table
  Enter (results)   Show the selected row in full
  Enter (query)     Run the query line
  Esc (query)       Back to the tables list
  Ctrl+R            Reload tables and row counts
  F1 / ?            Toggle this help
  Ctrl+Q / Ctrl+C   Quit

Esc/Enter/q to close`
