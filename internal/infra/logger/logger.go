// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logger for the given level and environment.
// An invalid level falls back to info with a warning.
func New(levelName, environment string) *logrus.Logger {
	return newWithOutput(os.Stdout, levelName, environment)
}

func newWithOutput(out io.Writer, levelName, environment string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	// Set Log Formatter
	env := strings.ToLower(environment)
	if env == "production" || env == "staging" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	} else { // Development or other environments
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	// Set Log Level
	level, err := logrus.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", levelName, err)
	} else {
		log.SetLevel(level)
	}

	log.Debugf("Log level set to: %s", log.GetLevel().String())
	log.Debugf("Log format set for environment: %s", environment)
	return log
}

// Critical writes at the most severe level without exiting the process;
// the caller decides how to stop.
func Critical(entry *logrus.Entry, args ...interface{}) {
	entry.Log(logrus.FatalLevel, args...)
}
