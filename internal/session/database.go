// Package session persists the signed-in user's credentials between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"snapfeed/internal/observability"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type profileKey struct{}

// withProfile tags ctx with the credential profile a query serves, for the query log.
func withProfile(ctx context.Context, profile string) context.Context {
	return context.WithValue(ctx, profileKey{}, profile)
}

// queryLogger reports session database trouble through slog. Statements are reduced to
// their verb so stored tokens never reach the log.
type queryLogger struct {
	log           *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newQueryLogger(l *slog.Logger) *queryLogger {
	return &queryLogger{log: l.With("component", "session"), level: logger.Warn, slowThreshold: 200 * time.Millisecond}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, data)
}

func (l *queryLogger) printf(ctx context.Context, threshold logger.LogLevel, lvl slog.Level, msg string, data []interface{}) {
	if l.level < threshold {
		return
	}
	l.log.Log(ctx, lvl, fmt.Sprintf(msg, data...), profileAttr(ctx))
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn
	if !failed && !slow {
		return
	}
	sql, rows := fc()
	attrs := []any{
		profileAttr(ctx),
		slog.String("op", statementVerb(sql)),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if failed {
		l.log.ErrorContext(ctx, "session query failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	l.log.WarnContext(ctx, "session query slow", attrs...)
}

func profileAttr(ctx context.Context) slog.Attr {
	p, _ := ctx.Value(profileKey{}).(string)
	return slog.String("profile", p)
}

func statementVerb(sql string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	return strings.ToUpper(verb)
}

// OpenDB opens (creating if needed) the sqlite database at path and migrates its schema.
// Use ":memory:" for a throwaway database.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newQueryLogger(observability.GlobalLogger.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get session database handle: %w", err)
	}
	// Each sqlite connection to ":memory:" is its own database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&credentialRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session database: %w", err)
	}
	return db, nil
}
