package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}              `json:"data,omitempty"`
	Error      *appErrors.Error         `json:"error,omitempty"`
	Conflicts  []models.SectionConflict `json:"conflicts,omitempty"`
	Pagination *models.Pagination       `json:"pagination,omitempty"`
	Meta       map[string]interface{}   `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
// Schedule conflict errors carry the offending section pairs alongside the
// generic error body.
func Error(c *gin.Context, err error) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	var conflictErr *models.ScheduleConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, Envelope{
			Error:     appErrors.Clone(appErrors.ErrScheduleConflict, conflictErr.Message),
			Conflicts: conflictErr.Conflicts,
		})
		return
	}

	appErr := appErrors.FromError(err)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
