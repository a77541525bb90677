package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
)

var (
	debugEnabled bool
	logFile      *os.File
	logger       = newDiscardLogger()
)

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.InfoLevel)
	return l
}

func Setup(debug bool) error {
	debugEnabled = debug
	if !debug || logFile != nil {
		return nil
	}
	logPath, err := xdg.StateFile(filepath.Join("crmmail", "debug.log"))
	if err != nil {
		return err
	}
	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	logger.SetOutput(logFile)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return nil
}

func Close() error {
	if logFile == nil {
		return nil
	}
	defer func() { logFile = nil }()
	logger.SetOutput(io.Discard)
	return logFile.Close()
}

func DebugEnabled() bool {
	return debugEnabled
}

// Logger is the process logger. Output is discarded unless Setup enabled debug.
func Logger() *logrus.Logger {
	return logger
}

func Printf(format string, args ...any) {
	if debugEnabled {
		logger.Debugf(format, args...)
	}
}
