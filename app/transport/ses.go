package transport

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const sesName = "SES"

// messageIDDomain qualifies the opaque id SES returns for an accepted raw
// message.
const messageIDDomain = "@email.amazonses.com"

// RawEmailAPI is the slice of *ses.Client the raw transport calls.
type RawEmailAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESTransport delivers messages through the classic SES SendRawEmail API.
type SESTransport struct {
	client RawEmailAPI
	cfg    Config
}

// NewSES builds a transport that owns its SES client, configured entirely
// from opts. It reads no environment or shared credential files; without
// static credentials the client sends unsigned requests and the provider
// rejects them at send time.
func NewSES(opts Options) *SESTransport {
	cfg := opts.resolve()

	sdkOpts := ses.Options{Region: cfg.Region}
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

	return &SESTransport{client: ses.New(sdkOpts), cfg: cfg}
}

// NewSESWithClient wraps an existing client, typically one built from the
// SDK's default credential chain.
func NewSESWithClient(client RawEmailAPI, opts Options) *SESTransport {
	return &SESTransport{client: client, cfg: opts.resolve()}
}

// Config returns the normalized configuration the transport was built with.
func (t *SESTransport) Config() Config {
	return t.cfg
}

func (t *SESTransport) Name() string { return sesName }

func (t *SESTransport) Version() string { return Version }

// Send serializes msg and hands it to SendRawEmail. The message's Bcc header
// is retained: raw delivery takes its recipients from the headers, so the
// header has to survive serialization. Stream errors propagate verbatim;
// provider errors pass through untouched.
func (t *SESTransport) Send(ctx context.Context, msg Message) (res *Result, err error) {
	// A panicking collaborator still has to produce the (nil, error) shape
	// instead of unwinding through the caller.
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

	out, err := t.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: raw},
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
