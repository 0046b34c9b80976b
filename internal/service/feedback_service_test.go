package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

type feedbackRepoStub struct {
	created []*models.Feedback
	entries []models.Feedback
}

func (s *feedbackRepoStub) Create(ctx context.Context, feedback *models.Feedback) error {
	s.created = append(s.created, feedback)
	return nil
}

func (s *feedbackRepoStub) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error) {
	return s.entries, len(s.entries), nil
}

func TestFeedbackServiceSubmit(t *testing.T) {
	repo := &feedbackRepoStub{}
	service := NewFeedbackService(repo, nil, zap.NewNop())
	userID := "user-1"

	feedback, err := service.Submit(context.Background(), &userID, "test-agent", SubmitFeedbackRequest{
		Rating:  4,
		Comment: "Love the conflict warnings",
		Path:    "/schedule",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, 4, feedback.Rating)
	assert.Equal(t, &userID, feedback.UserID)
	assert.Equal(t, "test-agent", feedback.UserAgent)
}

func TestFeedbackServiceSubmitAnonymous(t *testing.T) {
	repo := &feedbackRepoStub{}
	service := NewFeedbackService(repo, nil, zap.NewNop())

	feedback, err := service.Submit(context.Background(), nil, "", SubmitFeedbackRequest{Rating: 5})
	require.NoError(t, err)
	assert.Nil(t, feedback.UserID)
}

func TestFeedbackServiceSubmitRatingOutOfRange(t *testing.T) {
	service := NewFeedbackService(&feedbackRepoStub{}, nil, zap.NewNop())

	_, err := service.Submit(context.Background(), nil, "", SubmitFeedbackRequest{Rating: 6})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeedbackServiceList(t *testing.T) {
	repo := &feedbackRepoStub{entries: []models.Feedback{{ID: "fb-1", Rating: 3}}}
	service := NewFeedbackService(repo, nil, zap.NewNop())

	entries, pagination, err := service.List(context.Background(), models.FeedbackFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}
