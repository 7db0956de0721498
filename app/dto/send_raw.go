package dto

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrMissingFields    = errors.New("request_id, recipient, subject, and content are required")
	ErrInvalidRecipient = errors.New("recipient must be a valid email address")
	ErrInvalidCc        = errors.New("cc must contain valid email addresses")
	ErrInvalidBcc       = errors.New("bcc must contain valid email addresses")
	ErrSubjectTooShort  = errors.New("subject must be at least 4 characters")
	ErrContentTooShort  = errors.New("content must be at least 11 characters")
)

type SendRawRequest struct {
	RequestID string   `json:"request_id"`
	Recipient string   `json:"recipient"`
	Cc        []string `json:"cc,omitempty"`
	Bcc       []string `json:"bcc,omitempty"`
	Subject   string   `json:"subject"`
	Content   string   `json:"content"`
}

// FromEchoContext binds and normalizes a request from Echo.
func FromEchoContext(ctx echo.Context) (SendRawRequest, error) {
	var req SendRawRequest
	if err := ctx.Bind(&req); err != nil {
		return SendRawRequest{}, err
	}
	req.normalize()
	return req, nil
}

// Validate checks required fields and format constraints.
func (r *SendRawRequest) Validate() error {
	if r.RequestID == "" || r.Recipient == "" || r.Subject == "" || r.Content == "" {
		return ErrMissingFields
	}
	if _, err := mail.ParseAddress(r.Recipient); err != nil {
		return ErrInvalidRecipient
	}
	for _, addr := range r.Cc {
		if _, err := mail.ParseAddress(addr); err != nil {
			return ErrInvalidCc
		}
	}
	for _, addr := range r.Bcc {
		if _, err := mail.ParseAddress(addr); err != nil {
			return ErrInvalidBcc
		}
	}
	if len(r.Subject) < 4 {
		return ErrSubjectTooShort
	}
	if len(r.Content) < 11 {
		return ErrContentTooShort
	}
	return nil
}

// normalize trims whitespace for all fields and drops empty cc/bcc entries.
func (r *SendRawRequest) normalize() {
	r.RequestID = strings.TrimSpace(r.RequestID)
	r.Recipient = strings.TrimSpace(r.Recipient)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Content = strings.TrimSpace(r.Content)
	r.Cc = trimAddressList(r.Cc)
	r.Bcc = trimAddressList(r.Bcc)
}

func trimAddressList(addrs []string) []string {
	var out []string
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
