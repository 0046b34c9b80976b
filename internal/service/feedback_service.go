package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

type feedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error)
}

// SubmitFeedbackRequest is a submission from the in-app feedback widget.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"min=0,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
	Path    string `json:"path" validate:"max=500"`
}

// FeedbackService records widget submissions and serves the admin listing.
type FeedbackService struct {
	repo      feedbackRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(repo feedbackRepository, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FeedbackService{repo: repo, validator: validate, logger: logger}
}

// Submit stores one feedback entry. userID is nil for anonymous visitors.
func (s *FeedbackService) Submit(ctx context.Context, userID *string, userAgent string, req SubmitFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	feedback := &models.Feedback{
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Path:      req.Path,
		UserAgent: userAgent,
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}

	s.logger.Info("feedback received", zap.Int("rating", feedback.Rating), zap.String("path", feedback.Path))
	return feedback, nil
}

// List returns feedback entries for the admin dashboard.
func (s *FeedbackService) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
