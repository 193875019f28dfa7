// Package notify delivers booking notifications from the outbox.
package notify

import "context"

// Sender provides a testable abstraction over email delivery.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
