package datastore

import (
	"context"
	"log/slog"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/melonguard/melonguard-go/internal/logging"
)

// slowQueryThreshold is the duration after which a query is logged as slow.
const slowQueryThreshold = time.Second

func getLogger() *slog.Logger {
	return logging.ForModule("datastore")
}

// gormSlogLogger adapts the application slog logger to gorm's logger
// interface so database logging follows the rest of the application.
type gormSlogLogger struct {
	log   *slog.Logger
	level gormlogger.LogLevel
}

func newGormLogger() gormlogger.Interface {
	return &gormSlogLogger{
		log:   getLogger(),
		level: gormlogger.Warn,
	}
}

func (l *gormSlogLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.InfoContext(ctx, msg, "args", args)
	}
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.WarnContext(ctx, msg, "args", args)
	}
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.ErrorContext(ctx, msg, "args", args)
	}
}

func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.level >= gormlogger.Error:
		l.log.ErrorContext(ctx, "query failed",
			"error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		l.log.WarnContext(ctx, "slow query",
			"sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		l.log.DebugContext(ctx, "query",
			"sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
