package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"pdfqa/internal/config"
)

// Init configures the global logrus logger and returns a function that
// releases the log file, if one was opened.
//
// quietConsole discards console output (stdout/stderr), which the terminal
// UI needs so log lines don't tear through the alt screen. File output is
// kept either way.
func Init(cfg config.LoggingConfig, quietConsole bool) func() {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	output, closer := openOutput(cfg.Output)
	if quietConsole && closer == nil {
		output = io.Discard
	}
	logrus.SetOutput(output)

	if closer == nil {
		return func() {}
	}
	return func() { _ = closer.Close() }
}

func openOutput(target string) (io.Writer, io.Closer) {
	switch strings.ToLower(target) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.Warnf("Failed to open log file '%s', using 'stderr' instead. Error: %v", target, err)
		return os.Stderr, nil
	}
	return file, file
}
