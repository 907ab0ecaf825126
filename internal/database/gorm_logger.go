package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slogGormLogger routes GORM's log output through slog. SQL statements are
// emitted at Debug level; level filtering is left to slog so the formatting
// callback never runs when debug logging is off.
type slogGormLogger struct{}

// LogMode is a no-op; level filtering is handled by slog.
func (l slogGormLogger) LogMode(logger.LogLevel) logger.Interface { return l }

// Info logs informational messages from GORM.
func (l slogGormLogger) Info(_ context.Context, msg string, args ...any) {
	slog.Info(fmt.Sprintf(msg, args...))
}

// Warn logs warning messages from GORM.
func (l slogGormLogger) Warn(_ context.Context, msg string, args ...any) {
	slog.Warn(fmt.Sprintf(msg, args...))
}

// Error logs error messages from GORM.
func (l slogGormLogger) Error(_ context.Context, msg string, args ...any) {
	slog.Error(fmt.Sprintf(msg, args...))
}

// sqlLogLimit caps the length of SQL strings in debug output.
const sqlLogLimit = 200

func clipSQL(sql string) string {
	if len(sql) <= sqlLogLimit {
		return sql
	}
	return sql[:sqlLogLimit-3] + "..."
}

// Trace is called by GORM after every SQL operation. ErrRecordNotFound is
// the normal "no rows" outcome of .First() and is not treated as an error.
func (l slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		slog.Error("gorm query error",
			"sql", clipSQL(sql),
			"rows", rows,
			"duration", elapsed,
			"error", err,
		)
		return
	}

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	slog.Debug("gorm query",
		"sql", clipSQL(sql),
		"rows", rows,
		"duration", elapsed,
	)
}
