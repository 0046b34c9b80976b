package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/planner-api/internal/service"
	"github.com/coursekit/planner-api/pkg/response"
)

// TermHandler exposes term endpoints.
type TermHandler struct {
	service *service.TermService
}

// NewTermHandler constructs a term handler.
func NewTermHandler(svc *service.TermService) *TermHandler {
	return &TermHandler{service: svc}
}

// List godoc
// @Summary List terms
// @Description List all terms known to the catalog, newest first
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *TermHandler) List(c *gin.Context) {
	terms, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}

// GetCurrent godoc
// @Summary Get current term
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms/current [get]
func (h *TermHandler) GetCurrent(c *gin.Context) {
	term, err := h.service.GetCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Get godoc
// @Summary Get term by ID
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id} [get]
func (h *TermHandler) Get(c *gin.Context) {
	term, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}
