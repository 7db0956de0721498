package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-mailer/app/dto"
	"github.com/vibast-solutions/ms-go-mailer/app/entity"
	"github.com/vibast-solutions/ms-go-mailer/app/queue"
	"github.com/vibast-solutions/ms-go-mailer/app/repository"
	"github.com/vibast-solutions/ms-go-mailer/app/service"
)

// Publisher enqueues accepted email requests for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, msg queue.EmailMessage) error
}

type EmailController struct {
	emailService *service.EmailService
	producer     Publisher
}

// NewEmailController constructs the HTTP email controller.
func NewEmailController(emailService *service.EmailService, producer Publisher) *EmailController {
	return &EmailController{emailService: emailService, producer: producer}
}

// SendRaw validates, stores, and enqueues an email send request.
func (c *EmailController) SendRaw(ctx echo.Context) error {
	req, err := dto.FromEchoContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := c.emailService.CreateRequest(ctx.Request().Context(), req.RequestID, req.Recipient, req.Subject, req.Content); err != nil {
		if errors.Is(err, service.ErrDuplicateRequestID) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "duplicate request_id"})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create email history"})
	}

	if err := c.producer.Publish(ctx.Request().Context(), queue.EmailMessage{
		RequestID: req.RequestID,
		Recipient: req.Recipient,
		Cc:        req.Cc,
		Bcc:       req.Bcc,
		Subject:   req.Subject,
		Content:   req.Content,
	}); err != nil {
		_ = c.emailService.DeleteRequest(ctx.Request().Context(), req.RequestID)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to queue email"})
	}

	return ctx.JSON(http.StatusOK, map[string]string{"message": "email accepted"})
}

// Status reports the delivery state recorded for a request_id.
func (c *EmailController) Status(ctx echo.Context) error {
	requestID := ctx.Param("request_id")
	if requestID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "request_id is required"})
	}

	history, err := c.emailService.GetRequest(ctx.Request().Context(), requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "unknown request_id"})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load email history"})
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"request_id": history.RequestID,
		"status":     entity.StatusLabel(history.Status),
		"message_id": history.MessageID,
	})
}
