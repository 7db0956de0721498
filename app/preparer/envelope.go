package preparer

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-mailer/app/mail"
)

// EnvelopePreparer fills in the sender, recipients and subject.
type EnvelopePreparer struct {
	source string
}

// NewEnvelopePreparer creates a preparer that addresses messages from the
// configured source address.
func NewEnvelopePreparer(source string) *EnvelopePreparer {
	return &EnvelopePreparer{source: source}
}

func (p *EnvelopePreparer) Prepare(_ context.Context, req Request, msg *mail.Message) error {
	if strings.TrimSpace(p.source) == "" {
		return fmt.Errorf("source email is required")
	}
	if strings.TrimSpace(req.Recipient) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if strings.ContainsAny(req.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}

	msg.From = p.source
	msg.To = []string{req.Recipient}
	msg.Cc = append([]string(nil), req.Cc...)
	msg.Bcc = append([]string(nil), req.Bcc...)
	msg.Subject = req.Subject
	return nil
}
