package preparer

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/vibast-solutions/ms-go-mailer/app/mail"
)

// BodyPreparer sets the HTML body and a derived plain-text alternative.
type BodyPreparer struct{}

// NewBodyPreparer creates a preparer that renders the request content as the
// HTML body of the message, with a best-effort plain-text alternative for
// clients that do not render HTML.
func NewBodyPreparer() *BodyPreparer {
	return &BodyPreparer{}
}

func (p *BodyPreparer) Prepare(_ context.Context, req Request, msg *mail.Message) error {
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content is required")
	}
	msg.HTML = req.Content
	msg.Text = plainText(req.Content)
	return nil
}

var (
	breakTags = regexp.MustCompile(`(?i)<br\s*/?>|</(?:p|div|li|h[1-6]|tr)>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// plainText strips markup from HTML content for the text/plain part.
// Block-closing tags and <br> become line breaks; everything else is
// dropped and entities are decoded.
func plainText(content string) string {
	out := breakTags.ReplaceAllString(content, "\n")
	out = anyTag.ReplaceAllString(out, "")
	out = html.UnescapeString(out)
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
