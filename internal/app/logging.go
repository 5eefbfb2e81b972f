package app

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"ascache/internal/config"
)

// setupLogging applies the configured level and, when a log file is set,
// mirrors output into a rotating file.
func setupLogging(cfg config.Config) func() {
	log.SetLevel(cfg.LogLevel())
	log.SetReportTimestamp(true)

	if cfg.Log.File == "" {
		return func() {}
	}

	logFile := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))

	return func() {
		log.SetOutput(os.Stderr)
		if err := logFile.Close(); err != nil {
			log.Warn("error closing log file", "error", err)
		}
	}
}
