package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zerodha/logf"
)

var (
	globalLogger logf.Logger
	once         sync.Once
	defaultOpts  = logf.Opts{
		EnableCaller:    true,
		TimestampFormat: "15:04:05",
		EnableColor:     false,
		Level:           logf.InfoLevel,
	}
)

// GetDefaultOpts returns a copy of the default logger options.
// This is useful for tests that need to modify options for a specific logger instance.
func GetDefaultOpts() logf.Opts {
	return defaultOpts
}

// GetLogger returns the singleton instance of the logger.
// The 'level' parameter is only effective on the first call that initializes
// the logger; later calls return the already-built instance.
func GetLogger(level string, writers ...io.Writer) *logf.Logger {
	once.Do(func() {
		currentOpts := GetDefaultOpts()
		switch level {
		case "debug":
			currentOpts.Level = logf.DebugLevel
		case "info":
			currentOpts.Level = logf.InfoLevel
		case "warn":
			currentOpts.Level = logf.WarnLevel
		case "error":
			currentOpts.Level = logf.ErrorLevel
		case "fatal":
			currentOpts.Level = logf.FatalLevel
		}

		if len(writers) == 0 {
			currentOpts.Writer = os.Stdout
		} else {
			currentOpts.Writer = io.MultiWriter(append(writers, os.Stdout)...)
		}
		globalLogger = logf.New(currentOpts)
	})
	return &globalLogger
}

// LoggingMiddleware returns a Gin middleware that logs all HTTP requests with details.
func LoggingMiddleware(log *logf.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("HTTP Request",
			"status", c.Writer.Status(),
			"method", method,
			"path", path,
			"latency", time.Since(start).String(),
		)
	}
}

// Reset is for testing so that we can reset the logger singleton
func Reset() {
	once = sync.Once{}
	globalLogger = logf.Logger{}
}
