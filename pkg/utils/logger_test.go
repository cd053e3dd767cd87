package utils

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFormatter(t *testing.T) {
	f, err := LogFormatter("json")
	require.NoError(t, err)
	assert.IsType(t, &logrus.JSONFormatter{}, f)

	f, err = LogFormatter("text")
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, f)

	_, err = LogFormatter("xml")
	assert.Error(t, err)
}

func TestLogOutput(t *testing.T) {
	assert.Equal(t, os.Stderr, LogOutput(StdoutOutput))
	assert.Equal(t, os.Stdout, LogOutput("events.jsonl"))
}

func TestConfigureLogging(t *testing.T) {
	std := logrus.StandardLogger()
	level, formatter, out := std.GetLevel(), std.Formatter, std.Out
	t.Cleanup(func() {
		std.SetLevel(level)
		std.SetFormatter(formatter)
		std.SetOutput(out)
	})

	require.NoError(t, ConfigureLogging("debug", "json", StdoutOutput))
	assert.Equal(t, logrus.DebugLevel, std.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, std.Formatter)
	assert.Equal(t, os.Stderr, std.Out)

	assert.Error(t, ConfigureLogging("verbose", "text", "events.jsonl"))
	assert.Error(t, ConfigureLogging("info", "xml", "events.jsonl"))
	// a rejected configuration leaves the logger untouched
	assert.Equal(t, logrus.DebugLevel, std.GetLevel())
}
