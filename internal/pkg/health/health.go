// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (f CheckFunc) Name() string                    { return f.CheckName }
func (f CheckFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// Handler serves /health/live and /health/ready.
type Handler struct {
	service  string
	checkers []Checker
	timeout  time.Duration
}

// NewHandler creates a Handler probing checkers on readiness.
func NewHandler(service string, checkers ...Checker) *Handler {
	return &Handler{service: service, checkers: checkers, timeout: 2 * time.Second}
}

// RegisterRoutes registers the health routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
}

// Live always answers 200 while the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready answers 503 if any checker fails.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checkers))
	for _, chk := range h.checkers {
		if err := chk.Check(ctx); err != nil {
			checks[chk.Name()] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[chk.Name()] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "service": h.service, "checks": checks})
}
