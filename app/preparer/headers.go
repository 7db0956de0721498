package preparer

import (
	"context"

	"github.com/vibast-solutions/ms-go-mailer/app/mail"
)

// HeaderPreparer stamps fixed header fields onto every message.
type HeaderPreparer struct {
	headers map[string]string
}

// NewHeaderPreparer creates a preparer that sets the given headers.
func NewHeaderPreparer(headers map[string]string) *HeaderPreparer {
	return &HeaderPreparer{headers: headers}
}

func (p *HeaderPreparer) Prepare(_ context.Context, _ Request, msg *mail.Message) error {
	for key, value := range p.headers {
		msg.SetHeader(key, value)
	}
	return nil
}
