package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/verte-zerg/tuicard/internal/model"
	"github.com/verte-zerg/tuicard/internal/session"
	"github.com/verte-zerg/tuicard/internal/stats"
)

func (m *Model) startRound() tea.Cmd {
	list, err := m.deps.Collections.Cards(m.collection)
	if err != nil {
		m.setError("%v", err)
		return nil
	}
	if err := m.engine.Start(list, m.config.Length); err != nil {
		if errors.Is(err, session.ErrEmptyCollection) {
			m.setError("Collection %q has no cards", m.collection)
		} else {
			m.setError("%v", err)
		}
		return nil
	}
	m.clearStatus()
	m.screen = screenStudy
	m.runID = uuid.NewString()
	m.roundStarted = m.deps.Now()
	return m.presentCard()
}

func (m *Model) startReview() tea.Cmd {
	if err := m.engine.StartReview(); err != nil {
		if errors.Is(err, session.ErrNoIncorrect) {
			m.setStatus("Nothing to review")
		} else {
			m.setError("%v", err)
		}
		return nil
	}
	m.clearStatus()
	m.roundStarted = m.deps.Now()
	return m.presentCard()
}

// presentCard prepares the input for the card the engine now shows.
func (m *Model) presentCard() tea.Cmd {
	m.answer.Reset()
	if m.engine.Mode() == model.ModeTyping && m.engine.State() == session.InProgress {
		return m.answer.Focus()
	}
	m.answer.Blur()
	return nil
}

func (m *Model) updateStudy(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	if m.engine.IsComplete() {
		switch {
		case key.Matches(msg, k.Review):
			return m.startReview()
		case key.Matches(msg, k.Again):
			return m.startRound()
		case key.Matches(msg, k.Back):
			m.leaveStudy()
		}
		return nil
	}

	if key.Matches(msg, k.Back) {
		m.leaveStudy()
		return nil
	}

	if m.engine.Mode() == model.ModeTyping && !m.engine.IsFlipped() {
		switch {
		case key.Matches(msg, k.Submit):
			return m.submit()
		case key.Matches(msg, k.TypedSay):
			return m.speakCurrent()
		}
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, k.Flip):
		if err := m.engine.Flip(); err != nil && !errors.Is(err, session.ErrWrongMode) {
			m.setError("%v", err)
		}
		return nil
	case key.Matches(msg, k.Correct):
		return m.mark(true)
	case key.Matches(msg, k.Incorrect):
		return m.mark(false)
	case key.Matches(msg, k.Submit):
		// A judged typed answer is marked by its verdict.
		if m.engine.Mode() == model.ModeTyping {
			return m.mark(m.engine.Verdict() == session.VerdictCorrect)
		}
	case key.Matches(msg, k.Speak):
		return m.speakCurrent()
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	verdict, err := m.engine.Submit(m.answer.Value())
	if err != nil {
		m.setError("%v", err)
		return nil
	}
	m.answer.Blur()
	if verdict == session.VerdictCorrect {
		m.setStatus("Correct!")
	} else {
		m.setError("Incorrect")
	}
	return nil
}

func (m *Model) mark(correct bool) tea.Cmd {
	var err error
	if correct {
		err = m.engine.MarkCorrect()
	} else {
		err = m.engine.MarkIncorrect()
	}
	if err != nil {
		if errors.Is(err, session.ErrNotRevealed) {
			m.setStatus("Reveal the answer first")
			return nil
		}
		m.setError("%v", err)
		return nil
	}
	m.clearStatus()
	if m.engine.IsComplete() {
		m.answer.Blur()
		return m.finishRound()
	}
	return m.presentCard()
}

func (m *Model) finishRound() tea.Cmd {
	round := m.engine.Round()
	rec := model.SessionRecord{
		RunID:      m.runID,
		Collection: m.collection,
		Mode:       m.engine.Mode(),
		Review:     round.Review,
		Total:      round.Total,
		Correct:    round.Correct,
		StartedAt:  m.roundStarted,
		EndedAt:    m.deps.Now(),
	}
	m.lastAcc = stats.Accuracy(round.Correct, round.Total)
	m.hasLast = true
	m.allCorrect += round.Correct
	m.allTotal += round.Total

	if m.deps.History == nil {
		return nil
	}
	history := m.deps.History
	return func() tea.Msg {
		id, err := history.InsertSession(context.Background(), rec)
		return roundSavedMsg{id: id, err: err}
	}
}

func (m *Model) leaveStudy() {
	m.engine.Reset()
	m.answer.Blur()
	m.answer.Reset()
	m.clearStatus()
	m.screen = screenPicker
}

func (m *Model) speakCurrent() tea.Cmd {
	prompt, ok := m.engine.Current()
	if !ok {
		return nil
	}
	return m.speak(prompt.Card.Source)
}

func (m *Model) viewStudy() string {
	title := titleStyle.Render(m.collection)
	if m.engine.IsReview() {
		title += pendingStyle.Render("  review")
	}

	if m.engine.IsComplete() {
		return lipgloss.JoinVertical(lipgloss.Center, title, "", m.viewComplete())
	}

	prompt, ok := m.engine.Current()
	if !ok {
		return title
	}
	width := m.cardWidth()
	counter := pendingStyle.Render(fmt.Sprintf("Card %d of %d", m.engine.Index()+1, m.engine.Len()))

	face := []string{promptStyle.Render(wrapText(prompt.Prompt, width))}
	if m.engine.IsFlipped() {
		face = append(face, "", answerStyle.Render(wrapText(prompt.Answer, width)))
	} else if m.engine.Mode() == model.ModeFlip {
		face = append(face, "", pendingStyle.Render("?"))
	}
	card := cardStyle.Width(width + 8).Render(strings.Join(face, "\n"))

	parts := []string{title, counter, "", card}
	if m.engine.Mode() == model.ModeTyping {
		parts = append(parts, "", m.viewTyping())
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (m *Model) viewTyping() string {
	if !m.engine.IsFlipped() {
		return m.answer.View()
	}
	typed := m.engine.Typed()
	if strings.TrimSpace(typed) == "" {
		typed = "(empty)"
	}
	if m.engine.Verdict() == session.VerdictCorrect {
		return correctStyle.Render("✓ " + typed)
	}
	return incorrectStyle.Render("✗ " + typed)
}

func (m *Model) viewComplete() string {
	round := m.engine.Round()
	acc := stats.Accuracy(round.Correct, round.Total) * 100
	lines := []string{
		promptStyle.Render("Round complete"),
		fmt.Sprintf("%d of %d correct (%.0f%%)", round.Correct, round.Total, acc),
	}
	missed := m.engine.IncorrectCards()
	if len(missed) > 0 {
		lines = append(lines, "", pendingStyle.Render(fmt.Sprintf("Missed %d:", len(missed))))
		width := m.cardWidth()
		for _, c := range missed {
			lines = append(lines, truncate(c.Source+"  "+c.Target, width))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) cardWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(int(float64(m.width)*0.5), 10)
}
