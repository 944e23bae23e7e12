// Package mail delivers transactional email. Delivery is asynchronous and
// best-effort: failures are logged by the dispatcher and never reach callers.
package mail

import "context"

// Message is a single email with plain-text and HTML bodies.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
