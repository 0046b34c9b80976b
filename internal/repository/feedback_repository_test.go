package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/planner-api/internal/models"
)

func TestFeedbackRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO feedback")).
		WithArgs(sqlmock.AnyArg(), nil, 4, "Love the conflict warnings", "/schedule", "test-agent", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	feedback := &models.Feedback{Rating: 4, Comment: "Love the conflict warnings", Path: "/schedule", UserAgent: "test-agent"}
	require.NoError(t, repo.Create(context.Background(), feedback))
	assert.NotEmpty(t, feedback.ID)
	assert.False(t, feedback.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryListFiltersByRating(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "rating", "comment", "path", "user_agent", "created_at"}).
		AddRow("fb-1", nil, 2, "Export button is hidden", "/", "agent", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, rating, comment, path, user_agent, created_at FROM feedback WHERE 1=1 AND rating <= $1")).
		WithArgs(2).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedback WHERE 1=1 AND rating <= $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	maxRating := 2
	entries, total, err := repo.List(context.Background(), models.FeedbackFilter{MaxRating: &maxRating})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
