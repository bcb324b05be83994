package internal

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the diagnostic logger. Report output goes to stdout
// separately, so logs are written to w (normally stderr).
func NewLogger(cfg LogConfig, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}
