package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/planner-api/internal/service"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
	"github.com/coursekit/planner-api/pkg/response"
)

// ExportHandler renders schedule exports and streams the stored files back.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Create godoc
// @Summary Export a schedule
// @Description Renders the schedule as ics, csv or pdf and returns a signed download URL
// @Tags Exports
// @Produce json
// @Param id path string true "Schedule ID"
// @Param format query string true "Export format (ics, csv, pdf)"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/export [post]
func (h *ExportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format, err := service.ParseExportFormat(c.DefaultQuery("format", "ics"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.service.Generate(c.Request.Context(), claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"filename":   result.Filename,
		"expires_at": result.ExpiresAt,
	})
}

// Download godoc
// @Summary Download an exported file
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.service.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export no longer available"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}

	filename := filepath.Base(relPath)
	contentType := "application/octet-stream"
	if ext := filepath.Ext(filename); len(ext) > 1 {
		if format, err := service.ParseExportFormat(ext[1:]); err == nil {
			contentType = format.ContentType()
		}
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
