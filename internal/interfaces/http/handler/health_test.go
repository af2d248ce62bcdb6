package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func() error

func (f pingerFunc) PingContext(context.Context) error { return f() }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		status   int
		contains string
	}{
		{"no database configured", nil, http.StatusOK, `"healthy"`},
		{"database reachable", pingerFunc(func() error { return nil }), http.StatusOK, `"database":"ok"`},
		{"database down", pingerFunc(func() error { return errors.New("connection refused") }), http.StatusServiceUnavailable, `"database":"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.db).Check)

			w := get(r, "/health")

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}
