package mail

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"net/textproto"
	"sort"
	"strings"
	"time"
)

var (
	ErrNoFrom       = errors.New("from address is required")
	ErrNoRecipients = errors.New("at least one recipient is required")
)

// Headers the writer owns; custom headers with these keys are ignored rather
// than emitted twice.
var reservedHeaders = map[string]bool{
	"From":                      true,
	"To":                        true,
	"Cc":                        true,
	"Bcc":                       true,
	"Reply-To":                  true,
	"Subject":                   true,
	"Mime-Version":              true,
	"Content-Type":              true,
	"Content-Transfer-Encoding": true,
}

// WriteTo serializes the message as RFC-5322 text with CRLF line endings.
// The Bcc header is written only when KeepBcc is set.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	mw := &messageWriter{w: w}
	if err := m.write(mw); err != nil {
		return mw.n, err
	}
	return mw.n, mw.err
}

func (m *Message) write(mw *messageWriter) error {
	if strings.TrimSpace(m.From) == "" {
		return ErrNoFrom
	}
	if len(m.recipients()) == 0 {
		return ErrNoRecipients
	}

	from, err := netmail.ParseAddress(m.From)
	if err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.From, err)
	}
	to, err := formatAddressList("to", m.To)
	if err != nil {
		return err
	}
	cc, err := formatAddressList("cc", m.Cc)
	if err != nil {
		return err
	}
	bcc, err := formatAddressList("bcc", m.Bcc)
	if err != nil {
		return err
	}
	replyTo := ""
	if m.ReplyTo != "" {
		addr, err := netmail.ParseAddress(m.ReplyTo)
		if err != nil {
			return fmt.Errorf("invalid reply-to address %q: %w", m.ReplyTo, err)
		}
		replyTo = addr.String()
	}

	mw.header("From", from.String())
	mw.header("To", to)
	mw.header("Cc", cc)
	if m.KeepBcc {
		mw.header("Bcc", bcc)
	}
	mw.header("Reply-To", replyTo)
	mw.header("Subject", mime.QEncoding.Encode("UTF-8", sanitizeHeader(m.Subject)))
	if m.Headers.Get("Date") == "" {
		mw.header("Date", m.timestamp().Format(time.RFC1123Z))
	}
	if m.Headers.Get("Message-Id") == "" {
		mw.header("Message-Id", m.messageID(from))
	}
	mw.header("MIME-Version", "1.0")
	m.writeCustomHeaders(mw)
	m.writeBody(mw)

	return nil
}

// writeCustomHeaders emits the user-supplied headers in a stable order.
func (m *Message) writeCustomHeaders(mw *messageWriter) {
	keys := make([]string, 0, len(m.Headers))
	for key := range m.Headers {
		if reservedHeaders[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range m.Headers[key] {
			mw.header(key, sanitizeHeader(value))
		}
	}
}

// writeBody emits the content headers and body. Text plus HTML serialize as
// multipart/alternative; attachments wrap everything in multipart/mixed.
func (m *Message) writeBody(mw *messageWriter) {
	if len(m.Attachments) > 0 {
		m.writeMixed(mw)
		return
	}
	if m.Text != "" && m.HTML != "" {
		alt := multipart.NewWriter(mw)
		mw.header("Content-Type", "multipart/alternative; boundary="+alt.Boundary())
		mw.writeString("\r\n")
		m.writeAlternativeParts(alt)
		_ = alt.Close()
		return
	}
	contentType, body := m.inlineBody()
	mw.header("Content-Type", contentType)
	mw.header("Content-Transfer-Encoding", "quoted-printable")
	mw.writeString("\r\n")
	writeQuotedPrintable(mw, body)
}

func (m *Message) writeMixed(mw *messageWriter) {
	mixed := multipart.NewWriter(mw)
	mw.header("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	mw.writeString("\r\n")

	switch {
	case m.Text != "" && m.HTML != "":
		// The nested boundary has to appear in the part header before the
		// nested writer exists, so it is generated up front.
		boundary := randomBoundary()
		part, _ := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"multipart/alternative; boundary=" + boundary},
		})
		alt := multipart.NewWriter(part)
		_ = alt.SetBoundary(boundary)
		m.writeAlternativeParts(alt)
		_ = alt.Close()
	case m.Text != "" || m.HTML != "":
		contentType, body := m.inlineBody()
		part, _ := mixed.CreatePart(inlinePartHeader(contentType))
		writeQuotedPrintable(part, body)
	}

	for _, a := range m.Attachments {
		writeAttachment(mixed, a)
	}
	_ = mixed.Close()
}

func (m *Message) writeAlternativeParts(alt *multipart.Writer) {
	// Lowest fidelity first, per MIME convention.
	part, _ := alt.CreatePart(inlinePartHeader("text/plain; charset=UTF-8"))
	writeQuotedPrintable(part, m.Text)
	part, _ = alt.CreatePart(inlinePartHeader("text/html; charset=UTF-8"))
	writeQuotedPrintable(part, m.HTML)
}

// inlineBody picks the single body and its content type.
func (m *Message) inlineBody() (string, string) {
	if m.HTML != "" {
		return "text/html; charset=UTF-8", m.HTML
	}
	return "text/plain; charset=UTF-8", m.Text
}

func (m *Message) messageID(from *netmail.Address) string {
	domain := "localhost"
	if i := strings.LastIndex(from.Address, "@"); i >= 0 && i < len(from.Address)-1 {
		domain = from.Address[i+1:]
	}
	return "<" + m.generateID() + "@" + domain + ">"
}

func (m *Message) timestamp() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *Message) generateID() string {
	if m.newID != nil {
		return m.newID()
	}
	return randomBoundary()
}

func writeAttachment(mixed *multipart.Writer, a Attachment) {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := sanitizeHeader(a.Filename)
	part, _ := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType + `; name="` + name + `"`},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {`attachment; filename="` + name + `"`},
	})
	writeBase64(part, a.Content)
}

func inlinePartHeader(contentType string) textproto.MIMEHeader {
	return textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	}
}

func writeQuotedPrintable(w io.Writer, body string) {
	qp := quotedprintable.NewWriter(w)
	_, _ = io.WriteString(qp, normalizeNewlines(body))
	_ = qp.Close()
}

// writeBase64 encodes data in 76-column lines.
func writeBase64(w io.Writer, data []byte) {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := lineLen
		if n > len(encoded) {
			n = len(encoded)
		}
		_, _ = io.WriteString(w, encoded[:n])
		_, _ = io.WriteString(w, "\r\n")
		encoded = encoded[n:]
	}
}

func formatAddressList(field string, addrs []string) (string, error) {
	if len(addrs) == 0 {
		return "", nil
	}
	formatted := make([]string, 0, len(addrs))
	for _, raw := range addrs {
		addr, err := netmail.ParseAddress(raw)
		if err != nil {
			return "", fmt.Errorf("invalid %s address %q: %w", field, raw, err)
		}
		formatted = append(formatted, addr.String())
	}
	return strings.Join(formatted, ", "), nil
}

// sanitizeHeader strips line breaks so header values cannot smuggle extra
// fields into the message.
func sanitizeHeader(value string) string {
	clean := strings.ReplaceAll(value, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}

// normalizeNewlines rewrites any line ending style to CRLF.
func normalizeNewlines(body string) string {
	if body == "" {
		return ""
	}
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

// randomBoundary mirrors the token shape multipart.Writer generates.
func randomBoundary() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("%x", buf[:])
}

// messageWriter tracks the byte count and the first write error so MIME
// helpers can stream through it without per-call error plumbing.
type messageWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (mw *messageWriter) Write(p []byte) (int, error) {
	if mw.err != nil {
		return len(p), nil
	}
	n, err := mw.w.Write(p)
	mw.n += int64(n)
	if err != nil {
		mw.err = err
	}
	return len(p), nil
}

func (mw *messageWriter) writeString(s string) {
	_, _ = mw.Write([]byte(s))
}

// header writes a single header line, skipping empty values.
func (mw *messageWriter) header(key, value string) {
	if value == "" {
		return
	}
	mw.writeString(key)
	mw.writeString(": ")
	mw.writeString(value)
	mw.writeString("\r\n")
}
