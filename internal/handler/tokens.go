package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upasthiti/internal/qrtoken"
)

const maxQRSize = 1024

func (h *Handler) tokenJSON(t qrtoken.Token) gin.H {
	return gin.H{
		"token":         t,
		"payload":       t.Encode(),
		"expires_in_ms": t.ExpiresIn(h.Now()).Milliseconds(),
	}
}

func (h *Handler) issueToken(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subject_id"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	s := mustSession(c)
	subject := req.SubjectID
	if subject == "" {
		subject = s.ActiveSubject
	}
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject_id required"})
		return
	}

	t, err := h.Attendance.IssueToken(c.Request.Context(), subject, s.Identity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.tokenJSON(t))
}

func (h *Handler) currentToken(c *gin.Context) {
	t, ok, err := h.Attendance.CurrentToken(c.Request.Context(), mustSession(c).Identity.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live token"})
		return
	}
	c.JSON(http.StatusOK, h.tokenJSON(t))
}

func (h *Handler) currentTokenPNG(c *gin.Context) {
	size := 300
	if v := c.Query("size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= maxQRSize {
			size = parsed
		}
	}
	t, ok, err := h.Attendance.CurrentToken(c.Request.Context(), mustSession(c).Identity.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live token"})
		return
	}
	png, err := qrtoken.RenderPNG(t.Encode(), size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
