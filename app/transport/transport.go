package transport

import (
	"context"
	"io"
)

// Version is reported by every transport in this package so callers can
// introspect what they are wired to.
const Version = "1.2.0"

// Transport delivers a composed mail message to some delivery mechanism.
// Implementations are safe for concurrent use; they hold only immutable
// configuration and a client handle after construction.
type Transport interface {
	// Send delivers msg and returns the provider's view of the accepted
	// message. Exactly one of result and error is non-nil.
	Send(ctx context.Context, msg Message) (*Result, error)
	// Name identifies the transport kind.
	Name() string
	// Version reports the adapter version.
	Version() string
}

// Message is the slice of a composed mail message a transport needs: control
// over Bcc header retention, and a single-pass stream of the raw RFC-5322
// bytes. *mail.Message satisfies it.
type Message interface {
	// SetKeepBcc controls whether the serialized message retains its Bcc
	// header. Raw API delivery needs the header to reach Bcc recipients;
	// SMTP-style delivery carries them in the envelope instead.
	SetKeepBcc(keep bool)
	// Stream returns a reader over the fully composed message. Each reader
	// is single pass and not restartable.
	Stream() io.Reader
}

// Result describes a successfully accepted message.
type Result struct {
	// MessageID is the provider-assigned id qualified with the provider's
	// message id domain. Empty when the provider returned no id.
	MessageID string
}
