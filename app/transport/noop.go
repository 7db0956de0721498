package transport

import (
	"context"
	"io"
)

// NoopTransport pretends to deliver messages. It still consumes the stream
// so dev configs exercise the full serialization path.
type NoopTransport struct{}

// NewNoop constructs a no-op transport.
func NewNoop() *NoopTransport {
	return &NoopTransport{}
}

func (t *NoopTransport) Name() string { return "noop" }

func (t *NoopTransport) Version() string { return Version }

// Send drains the message stream and reports success with no message id.
func (t *NoopTransport) Send(_ context.Context, msg Message) (*Result, error) {
	msg.SetKeepBcc(true)
	if _, err := io.Copy(io.Discard, msg.Stream()); err != nil {
		return nil, err
	}
	return &Result{}, nil
}
