package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/digitalocean/registration-wizard/pkg/models"
	"github.com/digitalocean/registration-wizard/pkg/session"
	"github.com/digitalocean/registration-wizard/pkg/validation"
	"github.com/digitalocean/registration-wizard/pkg/wizard"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	sessions *session.Manager
}

// NewHandlers creates a new Handlers instance
func NewHandlers(sessions *session.Manager) *Handlers {
	return &Handlers{
		sessions: sessions,
	}
}

// Register mounts every route on the router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	api.GET("/country-codes", h.CountryCodes)
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.PATCH("/sessions/:id/fields", h.UpdateFields)
	api.POST("/sessions/:id/submit", h.Submit)
	api.POST("/sessions/:id/back", h.Back)
	api.DELETE("/sessions/:id", h.DeleteSession)
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (h *Handlers) CountryCodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": models.CountryCodes})
}

// CreateSession starts a wizard; its first posts fetch runs in the background
func (h *Handlers) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// UpdateFields applies field edits given as a JSON object. Keys are applied
// in sorted order and a batch with any bad field changes nothing.
func (h *Handlers) UpdateFields(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		log.Printf("Error parsing JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	edits := make([]wizard.Edit, 0, len(names))
	for _, name := range names {
		if !validation.IsField(name) {
			h.writeError(c, fmt.Errorf("%w: %s", wizard.ErrUnknownField, name))
			return
		}
		value, err := fieldValue(fields[name])
		if err != nil {
			h.writeError(c, err)
			return
		}
		edits = append(edits, wizard.Edit{Name: name, Value: value})
	}

	if err := s.SetFields(edits); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

// Submit runs the submit transition for the session's current step
func (h *Handlers) Submit(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	outcome, err := s.Submit(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": outcome,
		"session": s.Snapshot(),
	})
}

func (h *Handlers) Back(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := s.Back(); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, wizard.ErrUnknownField), errors.Is(err, wizard.ErrInvalidValue):
		status = http.StatusBadRequest
	case errors.Is(err, wizard.ErrNoTransition), errors.Is(err, session.ErrSubmitInProgress):
		status = http.StatusConflict
	default:
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func fieldValue(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("%w: expected string or boolean, got %T", wizard.ErrInvalidValue, raw)
	}
}
