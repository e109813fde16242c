package notify

import (
	"fmt"

	"github.com/martinlindhe/notify"

	"github.com/goodparty/infracheck/internal/readiness"
)

// SendFunc delivers one desktop notification.
type SendFunc func(title, message string)

func desktop(title, message string) {
	notify.Notify("infracheck", title, message, "")
}

// Notifier sends desktop notifications when a check changes state
type Notifier struct {
	enabled bool
	send    SendFunc
}

// NewNotifier creates a new notifier instance
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send:    desktop,
	}
}

// WithSender replaces the delivery function.
func (n *Notifier) WithSender(send SendFunc) *Notifier {
	n.send = send
	return n
}

// NotifyFailure sends a desktop notification when a check fails
func (n *Notifier) NotifyFailure(result readiness.Result) {
	if !n.enabled {
		return
	}

	title := fmt.Sprintf("⚠️  %s - Check Failed", result.Name)
	n.send(title, result.Message)
}

// NotifyRecovery sends a desktop notification when a check passes again
func (n *Notifier) NotifyRecovery(result readiness.Result) {
	if !n.enabled {
		return
	}

	title := fmt.Sprintf("✅ %s - Check Recovered", result.Name)
	n.send(title, fmt.Sprintf("Passed in %s", result.Duration))
}

// NotifyChanges compares two consecutive reports and notifies for every
// check whose status flipped. A check seen for the first time only
// notifies when it fails.
func (n *Notifier) NotifyChanges(previous, current readiness.Report) {
	if !n.enabled {
		return
	}

	for _, res := range current.Results {
		prev, seen := previous.Get(res.Name)
		switch {
		case !seen && !res.Passed():
			n.NotifyFailure(res)
		case !seen:
		case prev.Passed() && !res.Passed():
			n.NotifyFailure(res)
		case !prev.Passed() && res.Passed():
			n.NotifyRecovery(res)
		}
	}
}
