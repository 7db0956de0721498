package cmd

import (
	"context"
	"os"
	"time"

	"github.com/vibast-solutions/ms-go-mailer/app/logger"
	"github.com/vibast-solutions/ms-go-mailer/app/preparer"
	"github.com/vibast-solutions/ms-go-mailer/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [recipient]",
	Short: "Send a single email",
	Long:  "Compose and deliver a single email through the configured transport, bypassing the queue and history.",
	Args:  cobra.ExactArgs(1),
	Run:   runSend,
}

var (
	sendSubject string
	sendContent string
	sendCc      []string
	sendBcc     []string
)

// init registers the send command and its flags.
func init() {
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "email subject")
	sendCmd.Flags().StringVar(&sendContent, "content", "", "email body (HTML)")
	sendCmd.Flags().StringSliceVar(&sendCc, "cc", nil, "carbon copy recipients")
	sendCmd.Flags().StringSliceVar(&sendBcc, "bcc", nil, "blind carbon copy recipients")
	rootCmd.AddCommand(sendCmd)
}

// runSend delivers one email and prints the provider message id.
func runSend(_ *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// One-shot sends skip the queue and history, so the generated request id
	// is the only handle tying this run to the delivered message.
	requestID := uuid.NewString()
	log := logger.New(cfg.LogLevel, cfg.LogFormat).WithField("request_id", requestID)

	emailTransport, err := buildTransport(cfg)
	if err != nil {
		log.Fatalf("Failed to build email transport: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg, err := newPreparer(cfg).Prepare(ctx, preparer.Request{
		Recipient: args[0],
		Cc:        sendCc,
		Bcc:       sendBcc,
		Subject:   sendSubject,
		Content:   sendContent,
	})
	if err != nil {
		log.Fatalf("Failed to prepare email: %v", err)
	}
	msg.SetHeader("X-Request-Id", requestID)

	res, err := emailTransport.Send(ctx, msg)
	if err != nil {
		log.Fatalf("Send failed: %v", err)
	}

	log.WithField("message_id", res.MessageID).Infof("Email sent via %s", emailTransport.Name())
}
