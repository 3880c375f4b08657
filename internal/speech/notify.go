package speech

import "github.com/gen2brain/beeep"

const appName = "tuicard"

// Notifier shows user-visible notices.
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

// Notify calls f.
func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// NopNotifier drops notices.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(string, string) {}

// Desktop sends notices as desktop notifications.
type Desktop struct {
	enabled bool
}

// NewDesktop returns a desktop notifier.
func NewDesktop(enabled bool) *Desktop {
	return &Desktop{enabled: enabled}
}

// Notify shows a desktop notification. Failures are ignored.
func (n *Desktop) Notify(title, message string) {
	if !n.enabled {
		return
	}
	if title != "" {
		_ = beeep.Notify(appName+": "+title, message, "")
		return
	}
	_ = beeep.Notify(appName, message, "")
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

// Notify forwards to every notifier.
func (m Multi) Notify(title, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, message)
		}
	}
}
