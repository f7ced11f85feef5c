package app

import (
	"testing"

	"github.com/onelinediary/server/internal/config"
	"github.com/sirupsen/logrus"
)

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	ConfigureLogging(config.LoggingConfig{Level: "debug", Format: "json"})
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logrus.StandardLogger().Formatter)
	}

	ConfigureLogging(config.LoggingConfig{Level: "nonsense"})
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected fallback to info, got %s", logrus.GetLevel())
	}
}
