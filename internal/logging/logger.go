package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevelEnvVar names the level used when none is passed explicitly.
// With neither set the process logs nothing.
const LogLevelEnvVar = "GARAGE_LOG_LEVEL"

// maxPrintable caps how much of a payload Printable renders
const maxPrintable = 256

var (
	logger *zap.Logger
	// helper skips one frame so package-level calls report their caller
	helper *zap.Logger
)

// FileOptions configures rotated JSON file output. An empty Path disables it.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func Initialize(level string) error {
	return InitializeWithFile(level, FileOptions{})
}

// InitializeWithFile logs to stdout in console format and, when file.Path
// is set, to a lumberjack-rotated JSON file at the same level.
func InitializeWithFile(level string, file FileOptions) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		SetLogger(nil)
		return nil
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}

	console := zap.NewDevelopmentEncoderConfig()
	console.EncodeLevel = zapcore.CapitalColorLevelEncoder
	console.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(console), zapcore.Lock(os.Stdout), lvl)

	if file.Path != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   file.Compress,
		})
		js := zap.NewProductionEncoderConfig()
		js.EncodeTime = zapcore.ISO8601TimeEncoder
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(js), sink, lvl))
	}

	SetLogger(zap.New(core, zap.AddCaller()))
	return nil
}

// SetLogger replaces the process logger; nil silences it. Tests pass an
// observer core here.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
	helper = l.WithOptions(zap.AddCallerSkip(1))
}

func GetLogger() *zap.Logger {
	if logger == nil {
		SetLogger(nil)
	}
	return logger
}

func get() *zap.Logger {
	if helper == nil {
		SetLogger(nil)
	}
	return helper
}

func Debug(msg string, fields ...zap.Field) { get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { get().Error(msg, fields...) }

// ForConn returns a logger tagged with a client's remote address
func ForConn(remoteAddr string) *zap.Logger {
	return GetLogger().With(zap.String("remote_addr", remoteAddr))
}

// Printable renders data as a field with non-ASCII and control bytes shown
// as '.', truncated to 256 bytes.
func Printable(key string, data []byte) zap.Field {
	if len(data) > maxPrintable {
		data = data[:maxPrintable]
	}
	return zap.String(key, strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '.'
		}
		return r
	}, string(data)))
}

// Sync flushes buffered entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
