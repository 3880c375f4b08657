package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuicard/internal/cards"
	"github.com/verte-zerg/tuicard/internal/speech"
)

type formField struct {
	label string
	input textinput.Model
}

// formView is a vertical list of labeled text inputs with one focused field.
type formView struct {
	fields []formField
	focus  int
}

func newField(label, placeholder string) formField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Width = 40
	return formField{label: label, input: in}
}

func newImportForm() formView {
	return formView{fields: []formField{
		newField("Name", "collection name"),
		newField("File", "path to a CSV file"),
	}}
}

func newSettingsForm() formView {
	keyField := newField("Key", "subscription key")
	keyField.input.EchoMode = textinput.EchoPassword
	keyField.input.EchoCharacter = '•'
	return formView{fields: []formField{
		keyField,
		newField("Region", "e.g. swedencentral"),
	}}
}

func (f *formView) value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

func (f *formView) setValue(i int, v string) {
	f.fields[i].input.SetValue(v)
}

func (f *formView) open() tea.Cmd {
	f.focus = 0
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	return f.fields[0].input.Focus()
}

func (f *formView) close() {
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
}

func (f *formView) move(delta int) tea.Cmd {
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].input.Focus()
}

func (f *formView) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return f.move(1)
	case "shift+tab", "up":
		return f.move(-1)
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *formView) view(title string) string {
	lines := []string{titleStyle.Render(title), ""}
	for _, field := range f.fields {
		lines = append(lines, fmt.Sprintf("%-7s %s", field.label, field.input.View()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) openImport() tea.Cmd {
	m.clearStatus()
	m.screen = screenImport
	m.importer.setValue(0, "")
	m.importer.setValue(1, "")
	return m.importer.open()
}

func (m *Model) updateImport(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.importer.close()
		m.screen = screenPicker
		return nil
	case "enter":
		name, path := m.importer.value(0), m.importer.value(1)
		if name == "" || path == "" {
			m.setStatus("Enter a name and a file")
			return nil
		}
		// The collection store is only touched on the update loop.
		return func() tea.Msg {
			text, err := cards.LoadFile(path)
			return importDoneMsg{name: name, text: text, err: err}
		}
	}
	return m.importer.update(msg)
}

func (m *Model) handleImportDone(msg importDoneMsg) tea.Cmd {
	err := msg.err
	if err == nil {
		err = m.deps.Collections.Save(context.Background(), msg.name, msg.text)
	}
	if err != nil {
		m.setError("Import failed: %v", err)
		return nil
	}
	cmd := m.refreshPicker()
	m.importer.close()
	m.screen = screenPicker
	m.selectCollection(msg.name)
	m.setStatus("Saved %q", msg.name)
	return cmd
}

func (m *Model) openSettings() tea.Cmd {
	m.clearStatus()
	m.screen = screenSettings
	if m.deps.Speaker != nil {
		creds := m.deps.Speaker.Credentials()
		m.settings.setValue(0, creds.Key)
		m.settings.setValue(1, creds.Region)
	}
	return m.settings.open()
}

func (m *Model) updateSettings(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.settings.close()
		m.screen = screenPicker
		return nil
	case "enter":
		creds := speech.Credentials{Key: m.settings.value(0), Region: m.settings.value(1)}
		return m.saveCredentials(creds)
	}
	return m.settings.update(msg)
}

func (m *Model) saveCredentials(creds speech.Credentials) tea.Cmd {
	store, speaker := m.deps.Credentials, m.deps.Speaker
	return func() tea.Msg {
		ctx := context.Background()
		if store != nil {
			if err := store.SaveCredentials(ctx, creds.Key, creds.Region); err != nil {
				return credsSavedMsg{creds: creds, err: err}
			}
		}
		if speaker == nil {
			return credsSavedMsg{creds: creds}
		}
		speaker.SetCredentials(creds)
		if !creds.Configured() {
			return credsSavedMsg{creds: creds}
		}
		return credsSavedMsg{creds: creds, initErr: speaker.EnsureCloud(ctx)}
	}
}

func (m *Model) handleCredsSaved(msg credsSavedMsg) {
	if msg.err != nil {
		m.setError("Could not save speech settings: %v", msg.err)
		return
	}
	m.settings.close()
	m.screen = screenPicker
	switch {
	case !msg.creds.Configured():
		m.setStatus("Speech settings cleared")
	case msg.initErr != nil:
		m.logger.Warn("cloud speech init failed", "err", msg.initErr)
		m.setError("Speech settings saved, but cloud speech failed: %v", msg.initErr)
	default:
		m.setStatus("Speech settings saved!")
	}
}
