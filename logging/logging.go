// Package logging configures the portal's structured logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup returns a JSON-formatted logger at the given level. Unknown levels
// fall back to info.
func Setup(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}
