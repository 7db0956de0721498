package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-mailer/app/entity"
)

var ErrNotFound = errors.New("email history record not found")

type EmailHistoryRepository struct {
	db *sql.DB
}

// NewEmailHistoryRepository constructs a repository backed by MySQL.
func NewEmailHistoryRepository(db *sql.DB) *EmailHistoryRepository {
	return &EmailHistoryRepository{db: db}
}

// Create inserts a new email history record.
func (r *EmailHistoryRepository) Create(ctx context.Context, requestID string, recipient string, subject string, content string, status int16) error {
	const query = `
		INSERT INTO email_history (request_id, recipient, subject, content, status, retries)
		VALUES (?, ?, ?, ?, ?, 0)
	`
	_, err := r.db.ExecContext(ctx, query, requestID, recipient, subject, content, status)
	return err
}

// GetByRequestID loads a history record by request ID.
func (r *EmailHistoryRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.EmailHistory, error) {
	const query = `
		SELECT request_id, recipient, subject, content, message_id, status, retries
		FROM email_history
		WHERE request_id = ?
	`
	var h entity.EmailHistory
	var messageID sql.NullString
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&h.RequestID, &h.Recipient, &h.Subject, &h.Content, &messageID, &h.Status, &h.Retries,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	h.MessageID = messageID.String
	return &h, nil
}

// DeleteByRequestID removes a history record by request ID.
func (r *EmailHistoryRepository) DeleteByRequestID(ctx context.Context, requestID string) error {
	const query = `
		DELETE FROM email_history
		WHERE request_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, requestID)
	return err
}

// UpdateStatus updates the status for a request ID.
func (r *EmailHistoryRepository) UpdateStatus(ctx context.Context, requestID string, status int16) error {
	const query = `
		UPDATE email_history
		SET status = ?
		WHERE request_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, status, requestID)
	return err
}

// UpdateContent updates the stored raw content for a request ID.
func (r *EmailHistoryRepository) UpdateContent(ctx context.Context, requestID string, content string) error {
	const query = `
		UPDATE email_history
		SET content = ?
		WHERE request_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, content, requestID)
	return err
}

// UpdateMessageID records the provider message id for a request ID.
func (r *EmailHistoryRepository) UpdateMessageID(ctx context.Context, requestID string, messageID string) error {
	const query = `
		UPDATE email_history
		SET message_id = ?
		WHERE request_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, messageID, requestID)
	return err
}
