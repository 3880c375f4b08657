package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuicard/internal/model"
)

type collectionItem struct {
	name  string
	count int
}

func (i collectionItem) Title() string       { return i.name }
func (i collectionItem) Description() string { return fmt.Sprintf("%d cards", i.count) }
func (i collectionItem) FilterValue() string { return i.name }

func newPicker(items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Collections"
	l.Styles.Title = titleStyle
	l.SetShowHelp(false)
	l.SetStatusBarItemName("collection", "collections")
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return l
}

func (m *Model) collectionItems() []list.Item {
	if m.deps.Collections == nil {
		return nil
	}
	names := m.deps.Collections.Names()
	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		cs, err := m.deps.Collections.Cards(name)
		if err != nil {
			m.logger.Warn("failed to read collection", "name", name, "err", err)
			continue
		}
		items = append(items, collectionItem{name: name, count: len(cs)})
	}
	return items
}

func (m *Model) refreshPicker() tea.Cmd {
	return m.picker.SetItems(m.collectionItems())
}

// selectCollection highlights name in the picker and makes it current.
func (m *Model) selectCollection(name string) bool {
	for i, item := range m.picker.Items() {
		if ci, ok := item.(collectionItem); ok && ci.name == name {
			m.picker.Select(i)
			m.collection = name
			return true
		}
	}
	m.setError("Unknown collection %q", name)
	return false
}

func (m *Model) highlighted() (string, bool) {
	item, ok := m.picker.SelectedItem().(collectionItem)
	if !ok {
		return "", false
	}
	return item.name, true
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	if m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return cmd
	}
	if name := m.pendingDelete; name != "" {
		m.pendingDelete = ""
		if key.Matches(msg, m.keys.Confirm) {
			return m.deleteCollection(name)
		}
		m.setStatus("Kept %q", name)
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Start):
		name, ok := m.highlighted()
		if !ok {
			return nil
		}
		m.collection = name
		return m.startRound()
	case key.Matches(msg, m.keys.Mode):
		next := model.ModeTyping
		if m.engine.Mode() == model.ModeTyping {
			next = model.ModeFlip
		}
		if err := m.engine.SetMode(next); err != nil {
			m.setError("%v", err)
			return nil
		}
		m.config.Mode = next
		m.setStatus("Mode: %s", next)
		return nil
	case key.Matches(msg, m.keys.Search):
		name, ok := m.highlighted()
		if !ok {
			return nil
		}
		return m.openSearch(name)
	case key.Matches(msg, m.keys.Import):
		return m.openImport()
	case key.Matches(msg, m.keys.Settings):
		return m.openSettings()
	case key.Matches(msg, m.keys.Delete):
		name, ok := m.highlighted()
		if !ok {
			return nil
		}
		m.pendingDelete = name
		m.setStatus("Delete %q? Press y to confirm", name)
		return nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return cmd
}

func (m *Model) deleteCollection(name string) tea.Cmd {
	if err := m.deps.Collections.Delete(context.Background(), name); err != nil {
		m.logger.Error("failed to delete collection", "name", name, "err", err)
		m.setError("Could not delete %q: %v", name, err)
		return nil
	}
	if m.collection == name {
		m.collection = ""
	}
	m.setStatus("Deleted %q", name)
	return m.refreshPicker()
}
