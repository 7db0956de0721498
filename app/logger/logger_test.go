package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewParsesLevel(t *testing.T) {
	t.Parallel()

	log := New("debug", "text")
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", log.GetLevel())
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	t.Parallel()

	log := New("not-a-level", "text")
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %v", log.GetLevel())
	}
}

func TestNewFormatters(t *testing.T) {
	t.Parallel()

	if _, ok := New("info", "json").Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter for json format")
	}
	if _, ok := New("info", "text").Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter for text format")
	}
	if _, ok := New("info", "").Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter by default")
	}
}
