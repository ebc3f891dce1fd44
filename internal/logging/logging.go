// Package logging provides the structured logger used by the relay server
// (cmd/relay). Its log lines carry fields such as reqid and user where
// applicable; key material is never logged.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger configured at level, logging to stderr.
// An unrecognized level falls back to info. json selects JSON output
// (suited to log aggregation); otherwise the default text formatter is
// used (suited to a terminal).
func New(level string, json bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
