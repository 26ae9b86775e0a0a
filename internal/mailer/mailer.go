// Package mailer sends the transactional notification emails.
package mailer

import "context"

// Email is one outgoing message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Result reports a send attempt. Delivery failures come back as a value, not
// an error return: most callers log and move on, and the one caller that must
// abort on failure checks Success explicitly.
type Result struct {
	Success bool
	ID      string
	Err     error
}

// Mailer delivers emails.
type Mailer interface {
	Send(ctx context.Context, email Email) Result
}
