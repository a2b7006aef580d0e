package dcmio

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

/*
===============================================================================
    Logging
===============================================================================
*/

// logLevel gates every logger built by this package, so that `SetLoggingLevel`
// applies to loggers handed out before the call.
var logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var logger atomic.Pointer[zap.SugaredLogger]

func init() {
	logger.Store(NewConsoleLogger(zapcore.Lock(os.Stderr)))
}

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	if len(writers) == 1 {
		return writers[0]
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// NewJSONLogger creates a `zap.SugaredLogger` configured for JSON output to `writers`
func NewJSONLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "ts",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, logLevel)
	return zap.New(core).Sugar()
}

// NewConsoleLogger creates a `zap.SugaredLogger` configured for human-readable output to `writers`
func NewConsoleLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "ts",
		EncodeLevel:    zapcore.LowercaseColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), writer, logLevel)
	return zap.New(core).Sugar()
}

// SetLogger replaces the package logger. A nil logger disables logging.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	logger.Store(l)
}

// Logger returns the package logger
func Logger() *zap.SugaredLogger {
	return logger.Load()
}

// validLogLevel returns whether `level` is accepted by `SetLoggingLevel`
func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error", "fatal", "none", "disabled", "off", "0", "1", "2", "3", "4", "5":
		return true
	}
	return false
}

// SetLoggingLevel takes a level string and accordingly enables/disables log output
// Supported values:
// "debug" / "5": all logging enabled
// "info" / "4":  info and above enabled
// "warn" / "3":  warn and above enabled
// "error" / "2": error and above enabled
// "fatal" / "1": only fatal enabled
// "disabled" / "none" / "off", "0": all output disabled
func SetLoggingLevel(level string) {
	switch strings.ToLower(level) {
	case "debug", "5":
		logLevel.SetLevel(zapcore.DebugLevel)
	case "info", "4":
		logLevel.SetLevel(zapcore.InfoLevel)
	case "warn", "3":
		logLevel.SetLevel(zapcore.WarnLevel)
	case "error", "2":
		logLevel.SetLevel(zapcore.ErrorLevel)
	case "fatal", "1":
		logLevel.SetLevel(zapcore.FatalLevel)
	case "disabled", "none", "off", "0":
		logLevel.SetLevel(zapcore.InvalidLevel)
	}
}

// Debugf logs at debug level. Arguments are handled in the manner of fmt.Printf
func Debugf(format string, v ...interface{}) {
	logger.Load().Debugf(format, v...)
}

// Infof logs at info level. Arguments are handled in the manner of fmt.Printf
func Infof(format string, v ...interface{}) {
	logger.Load().Infof(format, v...)
}

// Warnf logs at warn level. Arguments are handled in the manner of fmt.Printf
func Warnf(format string, v ...interface{}) {
	logger.Load().Warnf(format, v...)
}

// Errorf logs at error level. Arguments are handled in the manner of fmt.Printf
func Errorf(format string, v ...interface{}) {
	logger.Load().Errorf(format, v...)
}
