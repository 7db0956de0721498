package cmd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-mailer/app/controller"
	"github.com/vibast-solutions/ms-go-mailer/app/transport"
	"github.com/vibast-solutions/ms-go-mailer/config"
)

func TestSetupHTTPServerHealthRoute(t *testing.T) {
	t.Parallel()

	e := setupHTTPServer(&controller.EmailController{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health payload: %s", rec.Body.String())
	}
}

func TestSetupHTTPServerRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	e := setupHTTPServer(&controller.EmailController{})

	req := httptest.NewRequest(http.MethodPost, "/email/send/raw", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestBuildTransportNoop(t *testing.T) {
	t.Parallel()

	tr, err := buildTransport(&config.Config{EmailTransport: "noop"})
	if err != nil {
		t.Fatalf("buildTransport: %v", err)
	}
	if tr.Name() != "noop" {
		t.Fatalf("expected noop transport, got %s", tr.Name())
	}
}

func TestBuildTransportStaticCredentials(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		EmailTransport:     "ses",
		SESAccessKeyID:     "AKIAEXAMPLE",
		SESSecretAccessKey: "secret",
		SESServiceURL:      "https://email.eu-central-1.amazonaws.com",
	}

	tr, err := buildTransport(cfg)
	if err != nil {
		t.Fatalf("buildTransport: %v", err)
	}
	sesTransport, ok := tr.(*transport.SESTransport)
	if !ok {
		t.Fatalf("expected *transport.SESTransport, got %T", tr)
	}
	if got := sesTransport.Config().Region; got != "eu-central-1" {
		t.Fatalf("expected region eu-central-1, got %s", got)
	}
}

func TestBuildTransportLegacyCredentials(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		EmailTransport:   "ses",
		AWSAccessKeyID:   "AKIALEGACY",
		AWSSecretKey:     "legacy-secret",
		AWSSecurityToken: "legacy-token",
		AWSRegion:        "eu-west-1",
	}

	tr, err := buildTransport(cfg)
	if err != nil {
		t.Fatalf("buildTransport: %v", err)
	}
	sesTransport, ok := tr.(*transport.SESTransport)
	if !ok {
		t.Fatalf("expected *transport.SESTransport, got %T", tr)
	}
	resolved := sesTransport.Config()
	if resolved.AccessKeyID != "AKIALEGACY" || resolved.SecretAccessKey != "legacy-secret" {
		t.Fatalf("legacy credentials not resolved: %+v", resolved)
	}
	if resolved.SessionToken != "legacy-token" {
		t.Fatalf("expected legacy session token, got %s", resolved.SessionToken)
	}
}

func TestBuildTransportStaticCredentialsV2(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		EmailTransport:     "sesv2",
		SESAccessKeyID:     "AKIAEXAMPLE",
		SESSecretAccessKey: "secret",
		AWSRegion:          "us-west-2",
	}

	tr, err := buildTransport(cfg)
	if err != nil {
		t.Fatalf("buildTransport: %v", err)
	}
	if tr.Name() != "SESv2" {
		t.Fatalf("expected SESv2 transport, got %s", tr.Name())
	}
}

func TestBuildTransportUnsupported(t *testing.T) {
	t.Parallel()

	_, err := buildTransport(&config.Config{EmailTransport: "carrier-pigeon"})
	if err == nil {
		t.Fatalf("expected error for unsupported transport")
	}
	if !strings.Contains(err.Error(), "unsupported EMAIL_TRANSPORT") {
		t.Fatalf("unexpected error: %v", err)
	}
}
