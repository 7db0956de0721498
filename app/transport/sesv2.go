package transport

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const sesV2Name = "SESv2"

// EmailV2API is the slice of *sesv2.Client the v2 transport calls.
type EmailV2API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESV2Transport delivers messages through the SESv2 SendEmail API with raw
// content. Same contract as SESTransport; only the wire call differs.
type SESV2Transport struct {
	client EmailV2API
	cfg    Config
}

// NewSESV2 builds a v2 transport that owns its client, configured entirely
// from opts.
func NewSESV2(opts Options) *SESV2Transport {
	cfg := opts.resolve()

	sdkOpts := sesv2.Options{Region: cfg.Region}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		sdkOpts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		)
	}
	if opts.Endpoint != "" {
		sdkOpts.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.HTTPClient != nil {
		sdkOpts.HTTPClient = opts.HTTPClient
	}
	if opts.MaxAttempts > 0 {
		sdkOpts.RetryMaxAttempts = opts.MaxAttempts
	}

	return &SESV2Transport{client: sesv2.New(sdkOpts), cfg: cfg}
}

// NewSESV2WithClient wraps an existing client.
func NewSESV2WithClient(client EmailV2API, opts Options) *SESV2Transport {
	return &SESV2Transport{client: client, cfg: opts.resolve()}
}

// Config returns the normalized configuration the transport was built with.
func (t *SESV2Transport) Config() Config {
	return t.cfg
}

func (t *SESV2Transport) Name() string { return sesV2Name }

func (t *SESV2Transport) Version() string { return Version }

// Send serializes msg and hands it to SendEmail as raw content. Recipients
// come from the message headers, so the Bcc header is retained.
func (t *SESV2Transport) Send(ctx context.Context, msg Message) (res *Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			res, err = nil, asSendError(v)
		}
	}()

	msg.SetKeepBcc(true)

	raw, err := io.ReadAll(msg.Stream())
	if err != nil {
		return nil, err
	}

	out, err := t.client.SendEmail(ctx, &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if out != nil && aws.ToString(out.MessageId) != "" {
		result.MessageID = aws.ToString(out.MessageId) + messageIDDomain
	}
	return result, nil
}
