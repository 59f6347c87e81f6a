package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"expensetracker/config"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Log 进程级日志实例
var Log = logrus.New()

// Init 根据配置初始化日志格式与级别
func Init(cfg config.LogConfig) {
	Log.SetOutput(os.Stdout)
	Log.SetReportCaller(true)

	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", filepath.Base(f.File) + ":" + strconv.Itoa(f.Line)
	}

	if cfg.Format == "text" {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
}

// GormLogger 将 gorm 日志桥接到 logrus
type GormLogger struct {
	log           *logrus.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger 创建 gorm 日志适配器，默认只记录警告与慢查询
func NewGormLogger(l *logrus.Logger) *GormLogger {
	return &GormLogger{log: l, level: gormlogger.Warn, slowThreshold: 200 * time.Millisecond}
}

// LogMode 实现 gormlogger.Interface
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// Info 实现 gormlogger.Interface
func (g *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.Infof(msg, args...)
	}
}

// Warn 实现 gormlogger.Interface
func (g *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.Warnf(msg, args...)
	}
}

// Error 实现 gormlogger.Interface
func (g *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.Errorf(msg, args...)
	}
}

// Trace 实现 gormlogger.Interface
func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := g.log.WithFields(logrus.Fields{
		"elapsed_ms": elapsed.Milliseconds(),
		"rows":       rows,
		"sql":        sql,
	})
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		entry.WithError(err).Error("query failed")
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		entry.Warn("slow query")
	case g.level >= gormlogger.Info:
		entry.Debug("query")
	}
}
