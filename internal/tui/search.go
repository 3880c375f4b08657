package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuicard/internal/cards"
	"github.com/verte-zerg/tuicard/internal/model"
)

const minColumnWidth = 12

type searchView struct {
	name    string
	all     []model.Card
	visible []model.Card
	query   textinput.Model
	table   table.Model
	width   int
}

func newSearchView() searchView {
	query := textinput.New()
	query.Placeholder = "search either side"
	query.Prompt = "/ "
	t := table.New(
		table.WithColumns(searchColumns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return searchView{query: query, table: t}
}

func searchColumns(width int) []table.Column {
	col := max((width-6)/2, minColumnWidth)
	return []table.Column{
		{Title: "Source", Width: col},
		{Title: "Target", Width: col},
	}
}

func (v *searchView) resize(width, height int) {
	v.width = width
	v.table.SetColumns(searchColumns(width))
	v.table.SetHeight(max(height-8, 3))
	v.refresh()
}

func (v *searchView) load(name string, all []model.Card) {
	v.name = name
	v.all = all
	v.query.Reset()
	v.refresh()
}

// refresh re-applies the query to the loaded collection.
func (v *searchView) refresh() {
	v.visible = cards.Filter(v.all, v.query.Value())
	col := searchColumns(v.width)[0].Width
	rows := make([]table.Row, 0, len(v.visible))
	for _, c := range v.visible {
		rows = append(rows, table.Row{truncate(c.Source, col), truncate(c.Target, col)})
	}
	v.table.SetRows(rows)
	v.table.GotoTop()
}

func (v *searchView) selected() (model.Card, bool) {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.visible) {
		return model.Card{}, false
	}
	return v.visible[i], true
}

func (m *Model) openSearch(name string) tea.Cmd {
	all, err := m.deps.Collections.Cards(name)
	if err != nil {
		m.setError("%v", err)
		return nil
	}
	m.search.load(name, all)
	m.clearStatus()
	m.screen = screenSearch
	return m.search.query.Focus()
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.search.query.Blur()
		m.screen = screenPicker
		return nil
	case "enter":
		if c, ok := m.search.selected(); ok {
			return m.speak(c.Source)
		}
		return nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.search.table, cmd = m.search.table.Update(msg)
		return cmd
	}
	before := m.search.query.Value()
	var cmd tea.Cmd
	m.search.query, cmd = m.search.query.Update(msg)
	if m.search.query.Value() != before {
		m.search.refresh()
	}
	return cmd
}

func (m *Model) viewSearch() string {
	v := m.search
	count := pendingStyle.Render(formatCount(len(v.visible), len(v.all)))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.name),
		v.query.View(),
		count,
		v.table.View(),
	)
}

func formatCount(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("%d cards", total)
	}
	return fmt.Sprintf("%d of %d cards", shown, total)
}
