package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig tunes the GORM query log
type GormConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration // 0 disables slow query warnings
	FullSQL       bool          // keep bound parameters in logged statements
}

// GormLogger routes GORM output through zap. Statements run under a request
// context are logged with that request's logger, so they carry request_id
// and the active trace.
type GormLogger struct {
	base *zap.Logger
	cfg  GormConfig
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(base *zap.Logger, cfg GormConfig) *GormLogger {
	return &GormLogger{base: base, cfg: cfg}
}

func (l *GormLogger) loggerFor(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if _, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
			return L(ctx).Named("gorm")
		}
	}
	return l.base
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.cfg.Level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, threshold gormlogger.LogLevel, level zapcore.Level, msg string, data []any) {
	if l.cfg.Level < threshold {
		return
	}
	if ce := l.loggerFor(ctx).Check(level, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write()
	}
}

// ParamsFilter implements gormlogger.ParamsFilter. Bound parameters include
// voucher PINs, so they are dropped unless FullSQL is set.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.cfg.FullSQL {
		return sql, params
	}
	return sql, nil
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)

	var (
		level zapcore.Level
		msg   string
	)
	switch {
	case failed && l.cfg.Level >= gormlogger.Error:
		level, msg = zapcore.ErrorLevel, "SQL Error"
	case slow && l.cfg.Level >= gormlogger.Warn:
		level, msg = zapcore.WarnLevel, fmt.Sprintf("SLOW SQL >= %v", l.cfg.SlowThreshold)
	case l.cfg.Level >= gormlogger.Info:
		level, msg = zapcore.DebugLevel, "SQL Query"
	default:
		return
	}

	ce := l.loggerFor(ctx).Check(level, msg)
	if ce == nil {
		return
	}
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	if failed {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

// MapGormLogLevel maps an application log level onto GORM's levels. Debug
// logging turns on per-statement records.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error", "fatal":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
