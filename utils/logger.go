package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Log общий логгер приложения. До вызова InitLogger пишет текстом в stderr.
var Log = logrus.New()

// LogOptions настройки логирования
type LogOptions struct {
	Level  string // debug, info, warn, error
	Format string // text или json
	Dir    string // если задан, логи дублируются в <Dir>/app.log
}

// InitLogger настраивает общий логгер
func InitLogger(opts LogOptions) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if strings.EqualFold(opts.Format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.Dir == "" {
		Log.SetOutput(os.Stderr)
		return nil
	}

	// Создаем директорию для логов, если она не существует
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(opts.Dir, "app.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, file))
	return nil
}

// caller возвращает место вызова логирующей функции
func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// LogInfo логирует информационное сообщение
func LogInfo(format string, v ...interface{}) {
	Log.WithField("caller", caller()).Infof(format, v...)
}

// LogWarn логирует предупреждение
func LogWarn(format string, v ...interface{}) {
	Log.WithField("caller", caller()).Warnf(format, v...)
}

// LogError логирует сообщение об ошибке
func LogError(format string, v ...interface{}) {
	Log.WithField("caller", caller()).Errorf(format, v...)
}

// LogDebug логирует отладочное сообщение
func LogDebug(format string, v ...interface{}) {
	Log.WithField("caller", caller()).Debugf(format, v...)
}

// WithTenant возвращает запись лога с городом картеры
func WithTenant(cityCode string) *logrus.Entry {
	return Log.WithField("city", cityCode)
}

// LogOperation логирует операцию с длительностью
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	entry := Log.WithFields(logrus.Fields{
		"operation": operation,
		"duration":  duration.String(),
	})
	if err != nil {
		entry.WithError(err).Error("operation failed")
		return
	}
	entry.Info("operation completed")
}
