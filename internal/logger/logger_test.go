package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.log")
	log := New(Config{Level: "debug", Format: "json", Output: path})
	log.Info("hello")
	require.NoError(t, log.Sync())
	assert.FileExists(t, path)
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)
	ctx := WithRequestID(context.Background(), "req-1")
	sql := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("query at debug with request id", func(t *testing.T) {
		gl.Trace(ctx, time.Now(), sql, nil)
		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	})

	t.Run("record not found is silent", func(t *testing.T) {
		gl.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.Empty(t, logs.TakeAll())
	})

	t.Run("errors at error level", func(t *testing.T) {
		gl.Trace(ctx, time.Now(), sql, errors.New("boom"))
		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	})

	t.Run("silent mode", func(t *testing.T) {
		gl.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sql, errors.New("boom"))
		assert.Empty(t, logs.TakeAll())
	})
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(Recovery(log), GinMiddleware(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	for _, tc := range []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/ok", http.StatusOK, zapcore.InfoLevel},
		{"/missing", http.StatusNotFound, zapcore.WarnLevel},
		{"/panic", http.StatusInternalServerError, zapcore.ErrorLevel},
	} {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.status, w.Code)

			entries := logs.TakeAll()
			require.NotEmpty(t, entries)
			assert.Equal(t, tc.level, entries[len(entries)-1].Level)
		})
	}
}
