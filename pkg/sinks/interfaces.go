package sinks

import "context"

// Sink delivers harvest progress events to a downstream consumer (SQS, HTTP, etc).
type Sink interface {
	ID() string
	Type() string
	Deliver(ctx context.Context, evt Event) error
}
