package preparer

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailer/app/mail"
)

// EmailPreparer composes the outgoing message for a send request.
type EmailPreparer interface {
	Prepare(ctx context.Context, req Request) (*mail.Message, error)
}

// Request carries the delivery fields collected from the API.
type Request struct {
	Recipient string
	Cc        []string
	Bcc       []string
	Subject   string
	Content   string
}

type Step interface {
	Prepare(ctx context.Context, req Request, msg *mail.Message) error
}

type Chain struct {
	steps []Step
}

// NewChain builds an email preparer chain from steps.
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// Prepare runs all preparer steps over a fresh message and returns it.
func (c *Chain) Prepare(ctx context.Context, req Request) (*mail.Message, error) {
	msg := mail.NewMessage()

	for _, step := range c.steps {
		if err := step.Prepare(ctx, req, msg); err != nil {
			return nil, err
		}
	}

	if msg.From == "" {
		return nil, fmt.Errorf("prepared message has no sender")
	}

	return msg, nil
}
