// Package api exposes the orchestrator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

type Service interface {
	Chat(ctx context.Context, userID string, req contractx.ChatRequest) (contractx.ChatResponse, error)
	Confirm(ctx context.Context, userID string, req contractx.ConfirmRequest) (contractx.ConfirmResponse, error)
}

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"90s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"20s"`
	RateLimit       float64       `envconfig:"RATE_LIMIT" default:"2"`
	RateBurst       int           `envconfig:"RATE_BURST" default:"10"`
	Debug           bool          `envconfig:"DEBUG" default:"false"`
}

type AuthConfig struct {
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"30m"`
}

// NewRouter wires the public routes. Everything under /api needs a bearer
// token. Callers set the gin mode.
func NewRouter(svc Service, cfg Config, secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handler{svc: svc}
	group := r.Group("/api", Authenticate(secret), RateLimit(cfg.RateLimit, cfg.RateBurst))
	group.POST("/chat", h.chat)
	group.POST("/confirm", h.confirm)
	return r
}

type handler struct {
	svc Service
}

func (h *handler) chat(c *gin.Context) {
	var req contractx.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	resp, err := h.svc.Chat(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) confirm(c *gin.Context) {
	var req contractx.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	resp, err := h.svc.Confirm(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contractx.ErrNoConfirmationPending):
		return http.StatusConflict
	case errors.Is(err, contractx.ErrSessionForbidden):
		return http.StatusForbidden
	case errors.Is(err, contractx.ErrInconsistent):
		return http.StatusInternalServerError
	case contractx.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	evt := log.Warn()
	if status >= http.StatusInternalServerError {
		evt = log.Error()
	}
	evt.Err(err).Str("user_id", userID(c)).Int("status", status).Str("path", c.FullPath()).Msg("request failed")

	msg := http.StatusText(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
