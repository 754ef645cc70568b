package gorm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// LogWriter bridges GORM's logger to zap
type LogWriter struct {
	logger *zap.Logger
}

// Printf implements logger.Writer
func (w *LogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("gorm slow query", zap.String("message", msg))
	case strings.Contains(msg, "Error"), strings.Contains(msg, "error"):
		w.logger.Error("gorm error", zap.String("message", msg))
	default:
		w.logger.Debug("gorm", zap.String("message", msg))
	}
}

// NewLogger builds a GORM logger writing through zap. level is one of
// silent, error, warn, info.
func NewLogger(log *zap.Logger, level string, slowThreshold time.Duration) logger.Interface {
	return logger.New(
		&LogWriter{logger: log.Named("gorm")},
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  ParseLogLevel(level),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// ParseLogLevel maps a config string to a GORM log level
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "info", "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
