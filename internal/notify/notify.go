// Package notify delivers coaching messages to the user outside the
// shell: OS desktop notifications and an optional chat webhook.
// Delivery is fire-and-forget; failures are logged, never propagated.
package notify

import (
	"github.com/charmbracelet/log"
	"github.com/gen2brain/beeep"
)

// Options mirror the OS notifier's knobs.
type Options struct {
	Sound bool
	Wait  bool
}

// Notifier is the delivery surface the scheduler depends on.
type Notifier interface {
	Notify(title, message string, opts Options)
}

// Desktop sends OS desktop notifications.
type Desktop struct {
	log *log.Logger
}

// NewDesktop creates a desktop notifier.
func NewDesktop(logger *log.Logger) *Desktop {
	return &Desktop{log: logger}
}

// Notify implements Notifier. Wait is accepted for contract parity but
// the underlying toolkit does not block on user acknowledgement.
func (d *Desktop) Notify(title, message string, opts Options) {
	var err error
	if opts.Sound {
		err = beeep.Alert(title, message, "")
	} else {
		err = beeep.Notify(title, message, "")
	}
	if err != nil {
		d.log.Warn("desktop notification failed", "title", title, "err", err)
	}
}
