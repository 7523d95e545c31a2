package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestStatement(t *testing.T) {
	cases := []struct {
		sql  string
		want SQLStatement
	}{
		{sql: `SELECT * FROM "invoices" WHERE "invoices"."id" = $1`, want: SQLStatement{Operation: "SELECT", Table: "invoices"}},
		{sql: `INSERT INTO "justificatifs" ("id","child_id") VALUES ($1,$2)`, want: SQLStatement{Operation: "INSERT", Table: "justificatifs"}},
		{sql: `UPDATE "enrollments" SET "status"=$1 WHERE "id" = $2`, want: SQLStatement{Operation: "UPDATE", Table: "enrollments"}},
		{sql: `WITH ranked AS (SELECT id FROM children) DELETE FROM bookings`, want: SQLStatement{Operation: "SELECT", Table: "children"}},
		{sql: "  ", want: SQLStatement{Operation: "UNKNOWN"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Statement(tc.sql), tc.sql)
	}
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("off"))
	assert.Equal(t, gormlogger.Error, ParseGormLevel(" ERROR "))
	assert.Equal(t, gormlogger.Info, ParseGormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel("verbose"))
}

func TestTraceSkipsRecordNotFound(t *testing.T) {
	logs := observe(t)
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn})
	query := func() (string, int64) { return `SELECT * FROM "tariffs"`, 0 }

	l.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	l.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "tariffs", entry.ContextMap()["table"])

	verbose := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, LogRecordNotFound: true})
	verbose.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 2, logs.Len())
}

func TestTraceReportsSlowQueries(t *testing.T) {
	logs := observe(t)
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: 10 * time.Millisecond})
	query := func() (string, int64) { return `UPDATE "invoices" SET "status"='EN_RETARD'`, 3 }

	l.Trace(context.Background(), time.Now(), query, nil)
	assert.Zero(t, logs.Len())

	l.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, int64(3), entry.ContextMap()["rows_affected"])
	assert.Equal(t, "UPDATE", entry.ContextMap()["operation"])
}

func TestParamsFilter(t *testing.T) {
	_, params := NewGormLogger(GormLoggerConfig{}).ParamsFilter(context.Background(), "SELECT 1", "claire@example.org")
	assert.Nil(t, params)

	_, params = NewGormLogger(GormLoggerConfig{IncludeVariables: true}).ParamsFilter(context.Background(), "SELECT 1", "claire@example.org")
	assert.Equal(t, []interface{}{"claire@example.org"}, params)
}
