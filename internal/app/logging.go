package app

import (
	"os"
	"strings"
	"time"

	"github.com/onelinediary/server/internal/config"
	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies level and formatter from cfg to the standard logrus logger.
func ConfigureLogging(cfg config.LoggingConfig) {
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
}
