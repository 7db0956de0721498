package mail

import (
	"bytes"
	"io"
	"net/textproto"
	"time"

	"github.com/google/uuid"
)

// Attachment is a file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a composable mail message that serializes itself to the raw
// RFC-5322 form transports deliver. The zero value is not usable; construct
// with NewMessage.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	ReplyTo string
	Subject string

	// Text and HTML are the message bodies; when both are set the message
	// serializes as multipart/alternative.
	Text string
	HTML string

	// Headers carries additional or overriding header fields. A Date or
	// Message-Id set here replaces the generated default.
	Headers textproto.MIMEHeader

	Attachments []Attachment

	// KeepBcc retains the Bcc header during serialization. Transports that
	// deliver through raw provider APIs set it so Bcc recipients are
	// reachable; envelope-based delivery leaves the header stripped.
	KeepBcc bool

	now   func() time.Time
	newID func() string
}

// NewMessage constructs an empty message. The Date and Message-Id defaults
// are fixed at construction so repeated serializations of one message agree.
func NewMessage() *Message {
	created := time.Now()
	id := uuid.NewString()
	return &Message{
		Headers: make(textproto.MIMEHeader),
		now:     func() time.Time { return created },
		newID:   func() string { return id },
	}
}

// SetKeepBcc controls Bcc header retention.
func (m *Message) SetKeepBcc(keep bool) {
	m.KeepBcc = keep
}

// SetHeader replaces a header field.
func (m *Message) SetHeader(key, value string) {
	if m.Headers == nil {
		m.Headers = make(textproto.MIMEHeader)
	}
	m.Headers.Set(key, value)
}

// Attach adds an attachment. An empty contentType becomes
// application/octet-stream at serialization time.
func (m *Message) Attach(filename, contentType string, content []byte) {
	m.Attachments = append(m.Attachments, Attachment{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
}

// Stream returns a single-pass reader over the serialized message.
// Serialization errors surface through the reader; each call produces a
// fresh stream.
func (m *Message) Stream() io.Reader {
	pr, pw := io.Pipe()
	go func() {
		_, err := m.WriteTo(pw)
		pw.CloseWithError(err)
	}()
	return pr
}

// Bytes serializes the message into memory.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recipients returns all addresses the message is directed at.
func (m *Message) recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	out = append(out, m.Bcc...)
	return out
}
