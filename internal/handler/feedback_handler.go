package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/planner-api/internal/models"
	"github.com/coursekit/planner-api/internal/service"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
	"github.com/coursekit/planner-api/pkg/response"
)

// FeedbackHandler accepts widget submissions and serves the admin listing.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler constructs a feedback handler.
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Submit godoc
// @Summary Submit feedback
// @Description Records a rating and comment from the in-app widget; works anonymously
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body service.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	var userID *string
	if claims := claimsFromContext(c); claims != nil {
		userID = &claims.UserID
	}

	feedback, err := h.service.Submit(c.Request.Context(), userID, c.Request.UserAgent(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

// List godoc
// @Summary List feedback
// @Description Admin listing of feedback entries with rating filters
// @Tags Feedback
// @Produce json
// @Param minRating query int false "Minimum rating"
// @Param maxRating query int false "Maximum rating"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	var filter models.FeedbackFilter
	if raw := c.Query("minRating"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil {
			filter.MinRating = &val
		}
	}
	if raw := c.Query("maxRating"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil {
			filter.MaxRating = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
