// Package tui provides the Bubble Tea flashcard interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuicard/internal/model"
	"github.com/verte-zerg/tuicard/internal/session"
	"github.com/verte-zerg/tuicard/internal/speech"
	"github.com/verte-zerg/tuicard/internal/stats"
)

// Collections is the collection store used by the UI.
type Collections interface {
	Names() []string
	Cards(name string) ([]model.Card, error)
	Save(ctx context.Context, name, text string) error
	Delete(ctx context.Context, name string) error
}

// History records and lists study rounds.
type History interface {
	InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error)
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
}

// CredentialStore persists cloud speech credentials.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, key, region string) error
}

// Speaker reads card words aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	SpeechEnabled() bool
	Credentials() speech.Credentials
	SetCredentials(creds speech.Credentials)
	EnsureCloud(ctx context.Context) error
}

// Deps are the services the UI talks to.
type Deps struct {
	Collections Collections
	History     History
	Credentials CredentialStore
	Speaker     Speaker
	Drawer      session.Drawer
	Logger      *slog.Logger
	Now         func() time.Time
}

type screen int

const (
	screenPicker screen = iota
	screenStudy
	screenSearch
	screenImport
	screenSettings
)

type (
	historyMsg struct {
		sessions []model.SessionAggregate
		err      error
	}
	roundSavedMsg struct {
		id  int64
		err error
	}
	speakDoneMsg struct {
		err error
	}
	importDoneMsg struct {
		name string
		text string
		err  error
	}
	credsSavedMsg struct {
		creds   speech.Credentials
		err     error
		initErr error
	}
)

// Model implements the Bubble Tea flashcard UI.
type Model struct {
	config model.Config
	deps   Deps
	logger *slog.Logger
	keys   keyMap
	help   help.Model

	width  int
	height int
	screen screen

	collection    string
	pendingDelete string
	engine        *session.Engine
	runID         string
	roundStarted  time.Time
	startCmd      tea.Cmd

	picker   list.Model
	answer   textinput.Model
	search   searchView
	importer formView
	settings formView

	status    string
	statusErr bool

	lastAcc    float64
	hasLast    bool
	allCorrect int
	allTotal   int
}

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6E6E6E")).
			Padding(1, 4).
			Align(lipgloss.Center)
)

// NewModel constructs the flashcard TUI model. When cfg.Collection names a
// known collection the first round starts immediately.
func NewModel(cfg model.Config, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	answer := textinput.New()
	answer.Placeholder = "type the answer"
	answer.CharLimit = 200

	m := &Model{
		config:   cfg,
		deps:     deps,
		logger:   deps.Logger,
		keys:     newKeyMap(),
		help:     help.New(),
		engine:   session.New(deps.Drawer, cfg.Mode),
		answer:   answer,
		search:   newSearchView(),
		importer: newImportForm(),
		settings: newSettingsForm(),
	}
	m.picker = newPicker(m.collectionItems())
	if cfg.Collection != "" && m.selectCollection(cfg.Collection) {
		m.startCmd = m.startRound()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadHistory(), m.startCmd)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.picker.SetSize(msg.Width, max(msg.Height-3, 1))
		m.search.resize(msg.Width, msg.Height)
		return m, nil
	case historyMsg:
		m.applyHistory(msg)
		return m, nil
	case roundSavedMsg:
		if msg.err != nil {
			m.logger.Error("failed to save round", "err", msg.err)
			m.setError("Could not save round: %v", msg.err)
		}
		return m, nil
	case speakDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, speech.ErrCapabilityUnavailable) {
			m.setError("Speech failed: %v", msg.err)
		}
		return m, nil
	case SpeechResultMsg:
		if msg.Err != nil {
			m.logger.Warn("cloud speech failed", "err", msg.Err, "detail", msg.Detail)
			m.setError("Cloud speech failed: %v", msg.Err)
		}
		return m, nil
	case NoticeMsg:
		m.setError("%s", msg.Message)
		return m, nil
	case importDoneMsg:
		return m, m.handleImportDone(msg)
	case credsSavedMsg:
		m.handleCredsSaved(msg)
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.screen {
		case screenStudy:
			return m, m.updateStudy(msg)
		case screenSearch:
			return m, m.updateSearch(msg)
		case screenImport:
			return m, m.updateImport(msg)
		case screenSettings:
			return m, m.updateSettings(msg)
		default:
			return m, m.updatePicker(msg)
		}
	}
	if m.screen == screenPicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenStudy:
		body = m.viewStudy()
	case screenSearch:
		body = m.viewSearch()
	case screenImport:
		body = m.importer.view("Import collection")
	case screenSettings:
		body = m.settings.view("Speech settings")
	default:
		body = m.picker.View()
	}

	lines := []string{}
	if m.status != "" {
		style := pendingStyle
		if m.statusErr {
			style = incorrectStyle
		}
		lines = append(lines, style.Render(m.status))
	}
	if footer := m.renderFooter(); footer != "" {
		lines = append(lines, footer)
	}
	lines = append(lines, m.help.ShortHelpView(m.helpKeys()))
	bottom := strings.Join(lines, "\n")

	if m.width == 0 || m.height == 0 {
		return body + "\n\n" + bottom
	}
	bodyHeight := max(m.height-lipgloss.Height(bottom), 1)
	if m.screen == screenPicker {
		return lipgloss.PlaceVertical(bodyHeight, lipgloss.Top, body) + "\n" + bottom
	}
	return lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body) + "\n" + bottom
}

func (m *Model) helpKeys() []key.Binding {
	k := m.keys
	switch m.screen {
	case screenStudy:
		if m.engine.IsComplete() {
			bindings := []key.Binding{k.Again}
			if m.engine.Round().Incorrect > 0 {
				bindings = append(bindings, k.Review)
			}
			return append(bindings, k.Back)
		}
		if m.engine.Mode() == model.ModeTyping && !m.engine.IsFlipped() {
			return []key.Binding{k.Submit, k.TypedSay, k.Back}
		}
		if !m.engine.IsFlipped() {
			return []key.Binding{k.Flip, k.Speak, k.Back}
		}
		return []key.Binding{k.Correct, k.Incorrect, k.Speak, k.Back}
	case screenSearch:
		return []key.Binding{key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")), k.Back}
	case screenImport, screenSettings:
		return []key.Binding{k.NextField, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")), k.Back}
	default:
		if m.pendingDelete != "" {
			return []key.Binding{k.Confirm, k.Back}
		}
		return []key.Binding{k.Start, k.Mode, k.Search, k.Import, k.Settings, k.Delete, k.Quit}
	}
}

func (m *Model) renderFooter() string {
	var segments []string
	if m.screen == screenStudy && m.engine.State() == session.InProgress {
		progress := 0
		if n := m.engine.Len(); n > 0 {
			progress = int(float64(m.engine.Index()) / float64(n) * 100)
		}
		segments = append(segments, fmt.Sprintf("Progress %d%%", progress))
	}
	if m.screen == screenPicker {
		segments = append(segments, fmt.Sprintf("Mode %s", m.engine.Mode()))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastAcc*100))
	}
	if m.allTotal > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% of %d cards", stats.Accuracy(m.allCorrect, m.allTotal)*100, m.allTotal))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

func (m *Model) loadHistory() tea.Cmd {
	if m.deps.History == nil {
		return nil
	}
	history := m.deps.History
	return func() tea.Msg {
		sessions, err := history.ListSessions(context.Background(), model.StatsConfig{})
		return historyMsg{sessions: sessions, err: err}
	}
}

func (m *Model) applyHistory(msg historyMsg) {
	if msg.err != nil {
		m.logger.Error("failed to load study history", "err", msg.err)
		return
	}
	sum := stats.Summarize(msg.sessions)
	m.hasLast = sum.HasLast
	m.lastAcc = sum.Last
	m.allCorrect = sum.Correct
	m.allTotal = sum.Cards
}

func (m *Model) speak(text string) tea.Cmd {
	if m.deps.Speaker == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	speaker := m.deps.Speaker
	return func() tea.Msg {
		return speakDoneMsg{err: speaker.Speak(context.Background(), text)}
	}
}
