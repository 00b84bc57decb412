// Package logger sets up the process-wide zerolog logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLogFile is used by Init when no explicit destination is given.
const DefaultLogFile = "modelrelay.log"

// Init initializes a JSON file logger writing to DefaultLogFile in the
// current directory. The level comes from the LOG_LEVEL environment variable
// (trace, debug, info, warn, error); unset or unknown values mean info.
func Init() (zerolog.Logger, error) {
	return InitWithOptions(DefaultLogFile, false)
}

// InitWithOptions builds the logger. An empty logFile sends JSON logs to
// stdout; pretty switches stdout output to zerolog's ConsoleWriter and is
// ignored when a file is given.
func InitWithOptions(logFile string, pretty bool) (zerolog.Logger, error) {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))

	if logFile != "" {
		//nolint:gosec // G304: user-specified log file path is intentional
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		log := zerolog.New(file).Level(level).With().Timestamp().Logger()
		log.Info().Str("path", logFile).Str("level", level.String()).Msg("Logger initialized")
		return log, nil
	}

	if pretty {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
		log.Info().Str("format", "pretty").Str("level", level.String()).Msg("Logger initialized")
		return log, nil
	}

	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	log.Info().Str("level", level.String()).Msg("Logger initialized")
	return log, nil
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
