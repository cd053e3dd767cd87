package utils

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// LogFormatter maps a log-format value to its logrus formatter.
func LogFormatter(format string) (logrus.Formatter, error) {
	switch format {
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, errors.Errorf("unknown log format %q, use text or json", format)
	}
}

// LogOutput is stderr whenever the events are written to stdout.
func LogOutput(eventsOutput string) io.Writer {
	if eventsOutput == StdoutOutput {
		return os.Stderr
	}
	return os.Stdout
}

// ConfigureLogging applies level, format and output to the standard logrus
// logger every module logs through.
func ConfigureLogging(level string, format string, eventsOutput string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	formatter, err := LogFormatter(format)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(LogOutput(eventsOutput))
	return nil
}
