package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/vibast-solutions/ms-go-mailer/app/entity"
	"github.com/vibast-solutions/ms-go-mailer/app/mail"
	"github.com/vibast-solutions/ms-go-mailer/app/preparer"
	"github.com/vibast-solutions/ms-go-mailer/app/repository"
	"github.com/vibast-solutions/ms-go-mailer/app/transport"
)

type fakeLocker struct {
	acquireErr error
	acquired   []string
	released   []string
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) error {
	if l.acquireErr != nil {
		return l.acquireErr
	}
	l.acquired = append(l.acquired, key)
	return nil
}

func (l *fakeLocker) Release(_ context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

// fixedMessage composes a deterministic message: a single text body and
// pinned Date and Message-Id headers, so its serialization is stable.
func fixedMessage(recipient string) *mail.Message {
	m := mail.NewMessage()
	m.From = "noreply@example.com"
	m.To = []string{recipient}
	m.Subject = "subj"
	m.Text = "hello"
	m.SetHeader("Date", "Mon, 01 Jan 2024 00:00:00 +0000")
	m.SetHeader("Message-Id", "<fixed@mailer.test>")
	return m
}

type fakePreparer struct {
	msg *mail.Message
	err error
}

func (p fakePreparer) Prepare(_ context.Context, _ preparer.Request) (*mail.Message, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.msg, nil
}

type fakeTransport struct {
	res   *transport.Result
	err   error
	calls int
}

func (t *fakeTransport) Send(_ context.Context, _ transport.Message) (*transport.Result, error) {
	t.calls++
	if t.err != nil {
		return nil, t.err
	}
	return t.res, nil
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Version() string { return "0.0.0" }

func newRepo(t *testing.T) (*repository.EmailHistoryRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return repository.NewEmailHistoryRepository(db), mock, func() { _ = db.Close() }
}

func testRequest() preparer.Request {
	return preparer.Request{Recipient: "a@b.com", Subject: "subj", Content: "content"}
}

func TestEmailServiceCreateRequestDuplicate(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newRepo(t)
	defer cleanup()

	svc := NewEmailService(fakePreparer{}, &fakeTransport{}, repo, &fakeLocker{})

	mysqlErr := &mysql.MySQLError{Number: 1062}
	mock.ExpectExec("INSERT INTO email_history").
		WithArgs("req-1", "a@b.com", "subj", "content", entity.EmailStatusNew).
		WillReturnError(mysqlErr)

	if err := svc.CreateRequest(context.Background(), "req-1", "a@b.com", "subj", "content"); !errors.Is(err, ErrDuplicateRequestID) {
		t.Fatalf("expected ErrDuplicateRequestID, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEmailServiceSendRawSuccess(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newRepo(t)
	defer cleanup()

	msg := fixedMessage("a@b.com")
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	tr := &fakeTransport{res: &transport.Result{MessageID: "abc123@email.amazonses.com"}}
	locker := &fakeLocker{}
	svc := NewEmailService(fakePreparer{msg: msg}, tr, repo, locker)

	requestID := "req-1"
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusProcessing, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(string(raw), requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs("abc123@email.amazonses.com", requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusSuccess, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := WithRequestID(context.Background(), requestID)
	if err := svc.SendRaw(ctx, testRequest()); err != nil {
		t.Fatalf("SendRaw returned error: %v", err)
	}

	if tr.calls != 1 {
		t.Fatalf("expected 1 send, got %d", tr.calls)
	}
	if len(locker.acquired) != 1 || locker.acquired[0] != "mailer:email:req-1" {
		t.Fatalf("unexpected lock keys %v", locker.acquired)
	}
	if len(locker.released) != 1 {
		t.Fatalf("expected lock release, got %v", locker.released)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEmailServiceSendRawSuccessWithoutMessageID(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newRepo(t)
	defer cleanup()

	msg := fixedMessage("a@b.com")
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	svc := NewEmailService(fakePreparer{msg: msg}, &fakeTransport{res: &transport.Result{}}, repo, &fakeLocker{})

	requestID := "req-2"
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusProcessing, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(string(raw), requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusSuccess, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := WithRequestID(context.Background(), requestID)
	if err := svc.SendRaw(ctx, testRequest()); err != nil {
		t.Fatalf("SendRaw returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEmailServiceSendRawPrepareFailure(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newRepo(t)
	defer cleanup()

	svc := NewEmailService(fakePreparer{err: errors.New("prepare failed")}, &fakeTransport{}, repo, &fakeLocker{})

	requestID := "req-3"
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusProcessing, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusTemporaryFailure, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := WithRequestID(context.Background(), requestID)
	if err := svc.SendRaw(ctx, testRequest()); err == nil {
		t.Fatalf("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEmailServiceSendRawSerializeFailure(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newRepo(t)
	defer cleanup()

	// The prepared message carries an unparsable recipient, so serialization
	// fails before any transport call.
	broken := fixedMessage("not an address")
	tr := &fakeTransport{}
	svc := NewEmailService(fakePreparer{msg: broken}, tr, repo, &fakeLocker{})

	requestID := "req-4"
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusProcessing, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusTemporaryFailure, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := WithRequestID(context.Background(), requestID)
	if err := svc.SendRaw(ctx, testRequest()); err == nil {
		t.Fatalf("expected error")
	}
	if tr.calls != 0 {
		t.Fatalf("transport must not be called, got %d sends", tr.calls)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEmailServiceSendRawTransportFailure(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newRepo(t)
	defer cleanup()

	msg := fixedMessage("a@b.com")
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	cause := errors.New("send failed")
	svc := NewEmailService(fakePreparer{msg: msg}, &fakeTransport{err: cause}, repo, &fakeLocker{})

	requestID := "req-5"
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusProcessing, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(string(raw), requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE email_history").
		WithArgs(entity.EmailStatusPermanentFailure, requestID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := WithRequestID(context.Background(), requestID)
	if err := svc.SendRaw(ctx, testRequest()); !errors.Is(err, cause) {
		t.Fatalf("expected transport error to surface, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEmailServiceSendRawLockFailure(t *testing.T) {
	t.Parallel()

	repo, _, cleanup := newRepo(t)
	defer cleanup()

	locker := &fakeLocker{acquireErr: errors.New("lock held elsewhere")}
	svc := NewEmailService(fakePreparer{msg: fixedMessage("a@b.com")}, &fakeTransport{}, repo, locker)

	ctx := WithRequestID(context.Background(), "req-6")
	if err := svc.SendRaw(ctx, testRequest()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEmailServiceSendRawMissingRequestID(t *testing.T) {
	t.Parallel()

	repo, _, cleanup := newRepo(t)
	defer cleanup()

	svc := NewEmailService(fakePreparer{msg: fixedMessage("a@b.com")}, &fakeTransport{}, repo, &fakeLocker{})

	if err := svc.SendRaw(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected error")
	}
}
