// Package nodelog provides the node's process-wide structured logger.
package nodelog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance, mirroring the real device's UART
// sink: one process-wide logrus instance that every subsystem logs through.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the logging level from a textual name ("debug", "info", ...).
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects the log sink.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches the sink to JSON lines, for collection by a log
// shipper instead of a human-attended serial console.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns a logger scoped to one field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns a logger scoped to multiple fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithComponent returns a logger scoped to the emitting subsystem, e.g.
// "sensor", "messaging", "supervisor".
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}
