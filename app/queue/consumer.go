package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailer/app/preparer"
	"github.com/vibast-solutions/ms-go-mailer/app/service"
)

const sendTimeout = 30 * time.Second

type EmailConsumer struct {
	client       *redis.Client
	emailService *service.EmailService
	consumerName string
	log          *logrus.Entry
}

// NewEmailConsumer constructs a Redis stream consumer.
func NewEmailConsumer(client *redis.Client, emailService *service.EmailService, consumerName string, log *logrus.Logger) *EmailConsumer {
	return &EmailConsumer{
		client:       client,
		emailService: emailService,
		consumerName: consumerName,
		log:          log.WithField("consumer", consumerName),
	}
}

// Run starts the consumer loop and blocks until context cancellation.
func (c *EmailConsumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.log.WithField("stream", StreamName).Info("consumer started")

	// First drain pending messages, then switch to reading new ones.
	startID := "0"
	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer shutting down")
			return nil
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: c.consumerName,
			Streams:  []string{StreamName, startID},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				// No messages available within block timeout.
				if startID == "0" {
					// Finished draining pending messages, switch to new.
					startID = ">"
				}
				continue
			}
			if ctx.Err() != nil {
				c.log.Info("consumer shutting down")
				return nil
			}
			c.log.WithError(err).Error("read from stream failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			if len(stream.Messages) == 0 && startID == "0" {
				// No more pending messages, switch to reading new.
				startID = ">"
				continue
			}
			for _, msg := range stream.Messages {
				c.processMessage(ctx, msg)
			}
		}
	}
}

// processMessage handles a single message and acks on success. Failed
// messages stay pending for redelivery.
func (c *EmailConsumer) processMessage(ctx context.Context, xmsg redis.XMessage) {
	msg := emailMessageFromValues(xmsg.Values)

	log := c.log.WithFields(logrus.Fields{
		"message_id": xmsg.ID,
		"request_id": msg.RequestID,
		"recipient":  msg.Recipient,
	})
	log.Info("processing message")

	sendCtx := service.WithRequestID(ctx, msg.RequestID)
	sendCtx, cancel := context.WithTimeout(sendCtx, sendTimeout)
	defer cancel()

	err := c.emailService.SendRaw(sendCtx, preparer.Request{
		Recipient: msg.Recipient,
		Cc:        msg.Cc,
		Bcc:       msg.Bcc,
		Subject:   msg.Subject,
		Content:   msg.Content,
	})
	if err != nil {
		log.WithError(err).Error("send failed, message stays pending")
		return
	}

	if err := c.client.XAck(ctx, StreamName, ConsumerGroup, xmsg.ID).Err(); err != nil {
		log.WithError(err).Error("ack failed")
		return
	}
	log.Info("message delivered")
}

// ensureGroup creates the stream and consumer group if missing.
func (c *EmailConsumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, StreamName, ConsumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}
