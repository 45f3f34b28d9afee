// Package handler exposes the session, token, check-in and analytics
// operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"upasthiti/internal/access"
	"upasthiti/internal/attendance"
	"upasthiti/internal/auth"
	"upasthiti/internal/errs"
	"upasthiti/internal/fraud"
	"upasthiti/internal/metrics"
	"upasthiti/internal/session"
)

// Deps are the services the handlers call.
type Deps struct {
	Sessions    *session.Authenticator
	Attendance  *attendance.Service
	Fraud       *fraud.Feed
	Metrics     *metrics.Collector
	SigningKey  string
	Issuer      string
	TokenTTL    time.Duration
	MinPercent  int
	DetectorKey string // enables POST /v1/fraud-alerts
	Now         func() time.Time
	Log         *zap.Logger
}

// Handler holds the HTTP handlers.
type Handler struct {
	Deps
}

// New creates a Handler, filling optional deps.
func New(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.MinPercent <= 0 {
		d.MinPercent = attendance.DefaultMinimumPercent
	}
	return &Handler{Deps: d}
}

// Register mounts all /v1 routes on r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/sessions", h.login)

	authed := v1.Group("", auth.SessionAuth(h.SigningKey, h.Issuer, h.Sessions))
	authed.DELETE("/sessions", h.logout)
	authed.GET("/me", h.me)
	authed.PUT("/me/subject", h.selectSubject)
	authed.GET("/navigation", h.navigation)

	authed.POST("/tokens", auth.RequireView(access.ViewGenerateQR), h.issueToken)
	authed.GET("/tokens/current", auth.RequireView(access.ViewGenerateQR), h.currentToken)
	authed.GET("/tokens/current/qr.png", auth.RequireView(access.ViewGenerateQR), h.currentTokenPNG)

	authed.POST("/checkins", auth.RequireView(access.ViewScanQR), h.checkIn)

	authed.GET("/analytics/students/:id", auth.RequireView(access.ViewAnalytics), h.studentAnalytics)
	authed.GET("/analytics/classes/:subject", auth.RequireView(access.ViewAttendance), h.classAnalytics)

	authed.GET("/fraud-alerts", auth.RequireView(access.ViewFraudDetection), h.fraudAlerts)

	if h.DetectorKey != "" {
		v1.POST("/fraud-alerts", auth.DetectorKey(h.DetectorKey), h.ingestFraudAlert)
	}
}

// writeError maps service errors to status codes. Unknown errors are logged
// and hidden behind a 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrInvalidCredentials), errors.Is(err, errs.ErrSessionNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrIssuerUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrUnknownSubject), errors.Is(err, errs.ErrSubjectNotSelectable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInvalidAlert):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mustSession(c *gin.Context) session.Session {
	s, _ := auth.CurrentSession(c)
	return s
}
