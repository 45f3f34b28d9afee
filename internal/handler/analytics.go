package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"upasthiti/internal/attendance"
	"upasthiti/internal/fraud"
)

func (h *Handler) checkIn(c *gin.Context) {
	var req struct {
		Payload string `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student, ok := mustSession(c).Identity.Student()
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "students only"})
		return
	}

	res, err := h.Attendance.CheckIn(c.Request.Context(), req.Payload, student)
	if err != nil {
		h.Log.Error("check-in not recorded", zap.String("event", res.Event.ID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "check-in could not be recorded", "event": res.Event})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":      res.Event,
		"recorded":   res.Recorded,
		"percentage": res.Percentage,
		"standing":   attendance.StandingOf(res.Percentage),
	})
}

func (h *Handler) studentAnalytics(c *gin.Context) {
	id := c.Param("id")
	s := mustSession(c)
	if sp, ok := s.Identity.Student(); ok && sp.StudentID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	ledger := h.Attendance.Ledger()
	pct, err := ledger.PercentageFor(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	c.JSON(http.StatusOK, gin.H{
		"student_id":    id,
		"percentage":    pct,
		"standing":      attendance.StandingOf(pct),
		"below_minimum": attendance.BelowMinimum(pct, h.MinPercent),
		"events":        ledger.Events(id, limit, offset),
	})
}

func (h *Handler) classAnalytics(c *gin.Context) {
	subject := c.Param("subject")
	s := mustSession(c)
	if fp, ok := s.Identity.Faculty(); ok && !fp.Teaches(subject) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	ledger := h.Attendance.Ledger()
	day := h.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := ledger.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	pct, err := ledger.ClassPercentage(c.Request.Context(), subject, day)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject_id": subject,
		"date":       ledger.Day(day),
		"percentage": pct,
	})
}

func (h *Handler) fraudAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alerts": h.Fraud.List(),
		"total":  h.Fraud.Count(),
		"counts": h.Fraud.CountBySeverity(),
	})
}

func (h *Handler) ingestFraudAlert(c *gin.Context) {
	var a fraud.Alert
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if a.ObservedAt.IsZero() {
		a.ObservedAt = h.Now()
	}
	if err := h.Fraud.Ingest(a); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": a.ID})
}
