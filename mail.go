package authcore

import "context"

// Mail is an outbound message handed to the configured [Mailer]. The engine
// builds the callback link; rendering and delivery are the mailer's problem.
type Mail struct {
	To       string
	Subject  string
	Callback string
}

// Mailer delivers account emails (confirmation links, password-reset links).
// A failing mailer fails the operation that needed it; the engine never
// issues a proof token it could not deliver a link for.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// NoOpMailer drops every message. Useful in tests and in deployments that
// surface callback links through another channel.
type NoOpMailer struct{}

func (NoOpMailer) Send(ctx context.Context, m Mail) error { return nil }
