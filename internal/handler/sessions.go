package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"upasthiti/internal/access"
	"upasthiti/internal/auth"
	"upasthiti/internal/identity"
	"upasthiti/internal/session"
)

type sessionView struct {
	Username            string           `json:"username"`
	DisplayName         string           `json:"display_name"`
	Role                identity.Role    `json:"role"`
	StudentID           string           `json:"student_id,omitempty"`
	Subjects            []string         `json:"subjects"`
	ActiveSubject       string           `json:"active_subject,omitempty"`
	ShowSubjectSelector bool             `json:"show_subject_selector"`
	Navigation          []access.NavItem `json:"navigation"`
}

func viewOf(s session.Session) sessionView {
	v := sessionView{
		Username:            s.Identity.ID,
		DisplayName:         s.Identity.DisplayName,
		Role:                s.Role(),
		Subjects:            s.Identity.Subjects(),
		ActiveSubject:       s.ActiveSubject,
		ShowSubjectSelector: access.ShowsSubjectSelector(s.Role()),
		Navigation:          access.VisibleNavigation(s.Role()),
	}
	if sp, ok := s.Identity.Student(); ok {
		v.StudentID = sp.StudentID
	}
	if v.Subjects == nil {
		v.Subjects = []string{}
	}
	return v
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.Sessions.Authenticate(c.Request.Context(), req.Username, req.Password)
	h.Metrics.Login(err == nil)
	if err != nil {
		h.writeError(c, err)
		return
	}

	tok, err := auth.Issue(s.ID, string(s.Role()), h.Issuer, h.SigningKey, h.TokenTTL, h.Now())
	if err != nil {
		h.Sessions.Logout(s.ID)
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"access_token": tok, "session": viewOf(s)})
}

func (h *Handler) logout(c *gin.Context) {
	h.Sessions.Logout(mustSession(c).ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(mustSession(c)))
}

func (h *Handler) selectSubject(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subject_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.Sessions.SelectSubject(mustSession(c).ID, req.SubjectID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

func (h *Handler) navigation(c *gin.Context) {
	role := mustSession(c).Role()
	c.JSON(http.StatusOK, gin.H{
		"items":                 access.VisibleNavigation(role),
		"show_subject_selector": access.ShowsSubjectSelector(role),
	})
}
