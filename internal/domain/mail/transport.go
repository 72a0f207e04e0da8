package mail

import (
	"context"
	"fmt"
)

// Message is one outbound greeting email.
type Message struct {
	To       string
	CC       []string // optional peer distribution list
	Subject  string
	HTMLBody string
}

// Confirmation is the transport's proof of a completed send. The ledger is
// only marked Delivered after a confirmation is returned.
type Confirmation struct {
	MessageID string
}

// Transport delivers greeting emails.
type Transport interface {
	Send(ctx context.Context, msg Message) (*Confirmation, error)
}

// TransportError wraps a delivery failure or timeout. Transport failures are
// recoverable: the occasion is retried on a later scan.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
