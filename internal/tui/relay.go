package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuicard/internal/speech"
)

// NoticeMsg is a user-visible notice shown in the status line.
type NoticeMsg struct {
	Title   string
	Message string
}

// SpeechResultMsg carries the outcome of a background cloud utterance.
type SpeechResultMsg speech.Result

// Relay forwards speech notices and results into a running program. Messages
// sent before Attach are dropped.
type Relay struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program that receives messages.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

// Notify implements speech.Notifier.
func (r *Relay) Notify(title, message string) {
	r.send(NoticeMsg{Title: title, Message: message})
}

// Result receives cloud synthesis results.
func (r *Relay) Result(res speech.Result) {
	r.send(SpeechResultMsg(res))
}

func (r *Relay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
