package log

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/domjweb/FastVal/claims/constants"
	"github.com/domjweb/FastVal/conf"
	"github.com/sirupsen/logrus"
)

var (
	API     logrus.FieldLogger
	Request logrus.FieldLogger
)

func init() {
	SetupLoggers()
}

// SetupLoggers (re)initializes the package loggers from conf. Exposed so
// tests can refresh loggers after changing log destinations.
func SetupLoggers() {
	API = Logger(logrus.New(), conf.GetEnv("CLAIMS_ERROR_LOG"),
		"api", conf.GetEnv("DEPLOYMENT_TARGET"))
	Request = Logger(logrus.New(), conf.GetEnv("CLAIMS_REQUEST_LOG"),
		"api", conf.GetEnv("DEPLOYMENT_TARGET"))
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment,
		"version":     constants.Version})
}

// type to create context.Context key
type CtxLoggerKeyType string

// context.Context key to set/get the request-scoped logger
const CtxLoggerKey CtxLoggerKeyType = "ctxLogger"

// StructuredLoggerEntry holds the logger seeded into the request context by
// the web middleware.
type StructuredLoggerEntry struct {
	Logger logrus.FieldLogger
}

// NewCtxLogger stores a logger carrying the given fields in ctx.
func NewCtxLogger(ctx context.Context, fields logrus.Fields) context.Context {
	entry := &StructuredLoggerEntry{Logger: Request.WithFields(fields)}
	return context.WithValue(ctx, CtxLoggerKey, entry)
}

// GetCtxLogger returns the request-scoped logger, or the API logger when the
// context carries none (background work, tests).
func GetCtxLogger(ctx context.Context) logrus.FieldLogger {
	if entry, ok := ctx.Value(CtxLoggerKey).(*StructuredLoggerEntry); ok {
		return entry.Logger
	}
	return API
}

// SetCtxEntry appends a field to the request-scoped logger in place, so later
// log lines from the same request carry it.
func SetCtxEntry(ctx context.Context, key string, value interface{}) {
	if entry, ok := ctx.Value(CtxLoggerKey).(*StructuredLoggerEntry); ok {
		entry.Logger = entry.Logger.WithField(key, value)
	}
}
