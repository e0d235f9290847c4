package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuition/backend/internal/interfaces/http/dto"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	payment := `{"amount":"1500.00","method":"cash","payment_date":"2025-06-01"}`

	newEngine := func(limit int64) *gin.Engine {
		engine := gin.New()
		engine.Use(RequestID(), BodyLimit(limit))
		engine.Any("/payments", func(c *gin.Context) {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.String(http.StatusBadRequest, "read: %v", err)
				return
			}
			c.String(http.StatusOK, "%d", len(body))
		})
		return engine
	}

	tests := []struct {
		name     string
		limit    int64
		method   string
		body     string
		chunked  bool
		wantCode int
	}{
		{"payment body within limit", 1024, http.MethodPost, payment, false, http.StatusOK},
		{"body exactly at limit", int64(len(payment)), http.MethodPost, payment, false, http.StatusOK},
		{"declared length over limit", 16, http.MethodPost, payment, false, http.StatusRequestEntityTooLarge},
		{"chunked body capped while reading", 16, http.MethodPost, payment, true, http.StatusBadRequest},
		{"GET without body", 16, http.MethodGet, "", false, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/payments", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			newEngine(tt.limit).ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}

	t.Run("rejection carries the request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(payment))
		req.Header.Set(RequestIDHeader, "req-large")
		w := httptest.NewRecorder()
		newEngine(8).ServeHTTP(w, req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeTooLarge, resp.Error.Code)
		assert.Equal(t, "req-large", resp.Error.RequestID)
	})
}
