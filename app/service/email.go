package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/vibast-solutions/ms-go-mailer/app/entity"
	"github.com/vibast-solutions/ms-go-mailer/app/lock"
	"github.com/vibast-solutions/ms-go-mailer/app/preparer"
	"github.com/vibast-solutions/ms-go-mailer/app/repository"
	"github.com/vibast-solutions/ms-go-mailer/app/transport"
)

const sendLockTTL = 2 * time.Minute

type EmailService struct {
	preparer  preparer.EmailPreparer
	transport transport.Transport
	history   *repository.EmailHistoryRepository
	locker    lock.Locker
}

// NewEmailService builds the email service with dependencies.
func NewEmailService(preparer preparer.EmailPreparer, transport transport.Transport, history *repository.EmailHistoryRepository, locker lock.Locker) *EmailService {
	return &EmailService{preparer: preparer, transport: transport, history: history, locker: locker}
}

// CreateRequest records an email send request in history.
func (s *EmailService) CreateRequest(ctx context.Context, requestID string, recipient string, subject string, content string) error {
	if err := s.history.Create(ctx, requestID, recipient, subject, content, entity.EmailStatusNew); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrDuplicateRequestID
		}
		return err
	}
	return nil
}

// GetRequest loads a history entry by request ID.
func (s *EmailService) GetRequest(ctx context.Context, requestID string) (*entity.EmailHistory, error) {
	return s.history.GetByRequestID(ctx, requestID)
}

// DeleteRequest removes a history entry by request ID.
func (s *EmailService) DeleteRequest(ctx context.Context, requestID string) error {
	return s.history.DeleteByRequestID(ctx, requestID)
}

// SendRaw prepares, serializes, and delivers an email request, tracking every
// stage in history. Prepare and persistence failures mark the request as a
// temporary failure; a transport failure marks it permanent.
func (s *EmailService) SendRaw(ctx context.Context, req preparer.Request) error {
	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		return fmt.Errorf("request_id is required in context")
	}
	if req.Recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	if req.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if req.Content == "" {
		return fmt.Errorf("content is required")
	}

	lockKey := fmt.Sprintf("mailer:email:%s", requestID)
	if err := s.locker.Acquire(ctx, lockKey, sendLockTTL); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		_ = s.locker.Release(context.Background(), lockKey)
	}()

	if err := s.history.UpdateStatus(ctx, requestID, entity.EmailStatusProcessing); err != nil {
		return fmt.Errorf("update status to processing: %w", err)
	}

	msg, err := s.preparer.Prepare(ctx, req)
	if err != nil {
		return s.failTemporary(ctx, requestID, "prepare email content", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		return s.failTemporary(ctx, requestID, "serialize email content", err)
	}

	if err := s.history.UpdateContent(ctx, requestID, string(raw)); err != nil {
		return s.failTemporary(ctx, requestID, "update email history content", err)
	}

	res, err := s.transport.Send(ctx, msg)
	if err != nil {
		if updateErr := s.history.UpdateStatus(ctx, requestID, entity.EmailStatusPermanentFailure); updateErr != nil {
			return fmt.Errorf("send failed: %v; update status: %w", err, updateErr)
		}
		return err
	}

	if res.MessageID != "" {
		if err := s.history.UpdateMessageID(ctx, requestID, res.MessageID); err != nil {
			return fmt.Errorf("update message id: %w", err)
		}
	}

	if err := s.history.UpdateStatus(ctx, requestID, entity.EmailStatusSuccess); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// failTemporary marks the request as a temporary failure and wraps the
// original error.
func (s *EmailService) failTemporary(ctx context.Context, requestID string, stage string, err error) error {
	if updateErr := s.history.UpdateStatus(ctx, requestID, entity.EmailStatusTemporaryFailure); updateErr != nil {
		return fmt.Errorf("%s: %v; update status: %w", stage, err, updateErr)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
