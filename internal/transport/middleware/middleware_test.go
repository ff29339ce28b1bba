package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(Logger(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	tests := []struct {
		name      string
		path      string
		requestID string
		wantLevel logrus.Level
	}{
		{name: "caller id is kept", path: "/ok", requestID: "abc-123", wantLevel: logrus.InfoLevel},
		{name: "missing id is generated", path: "/ok", wantLevel: logrus.InfoLevel},
		{name: "failures log at error", path: "/bad", requestID: "x", wantLevel: logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.requestID != "" {
				req.Header.Set("X-Request-ID", tt.requestID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			}

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, got, entry.Data["request_id"])
		})
	}
}

type verifierFunc func(string) (string, error)

func (f verifierFunc) Verify(raw string) (string, error) { return f(raw) }

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := verifierFunc(func(raw string) (string, error) {
		if raw != "good" {
			return "", assert.AnError
		}
		return "u1", nil
	})
	r := gin.New()
	r.GET("/me", Auth(v), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "valid", header: "Bearer good", wantCode: http.StatusOK},
		{name: "missing", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantCode: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer bad", wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "u1", rec.Body.String())
			}
		})
	}
}
