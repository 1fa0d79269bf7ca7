// internal/utils/logger.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 结构化日志，底层使用 zap
type Logger struct {
	mu  sync.RWMutex
	zl  *zap.Logger
	lvl zap.AtomicLevel
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		globalLogger = &Logger{
			zl:  newConsoleLogger(lvl),
			lvl: lvl,
		}
	})
	return globalLogger
}

// NewNopLogger 不输出任何内容的日志，测试中使用
func NewNopLogger() *Logger {
	return &Logger{zl: zap.NewNop(), lvl: zap.NewAtomicLevel()}
}

// InitLogger 初始化全局日志，同时写入日志文件与标准输出
func InitLogger(logFile string, debug bool) error {
	return initLogger(logFile, debug, "stdout")
}

// InitFileLogger 只写日志文件与标准错误；标准输出留给 MCP stdio 与命令行答案
func InitFileLogger(logFile string, debug bool) error {
	return initLogger(logFile, debug, "stderr")
}

func initLogger(logFile string, debug bool, console string) error {
	logger := GetLogger()

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.OutputPaths = []string{console, logFile}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = logger.lvl
	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	logger.mu.Lock()
	old := logger.zl
	logger.zl = zl
	logger.mu.Unlock()

	_ = old.Sync()
	return nil
}

func newConsoleLogger(lvl zap.AtomicLevel) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Zap 返回底层 zap.Logger
func (l *Logger) Zap() *zap.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

// Sync 刷新缓冲
func (l *Logger) Sync() error {
	return l.Zap().Sync()
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			zf = append(zf, zap.NamedError(k, err))
			continue
		}
		zf = append(zf, zap.Any(k, fields[k]))
	}
	return zf
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.Zap().Debug(message, toZapFields(fields)...)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.Zap().Info(message, toZapFields(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.Zap().Warn(message, toZapFields(fields)...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.Zap().Error(message, toZapFields(fields)...)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Zap().Info(fmt.Sprintf(format, args...))
}
