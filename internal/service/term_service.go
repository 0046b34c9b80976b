package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context) ([]models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindCurrent(ctx context.Context) (*models.Term, error)
}

// TermService serves the catalog's term listings. Terms arrive through the
// catalog feed and are read-only to the API.
type TermService struct {
	repo   termRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, cache *CacheService, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, cache: cache, logger: logger}
}

// List returns all known terms, newest first.
func (s *TermService) List(ctx context.Context) ([]models.Term, error) {
	const cacheKey = "catalog:terms"
	var cached []models.Term
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	terms, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}

	if err := s.cache.Set(ctx, cacheKey, terms, 0); err != nil {
		s.logger.Warn("term cache write failed", zap.Error(err))
	}
	return terms, nil
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// GetCurrent returns the term marked current in the catalog.
func (s *TermService) GetCurrent(ctx context.Context) (*models.Term, error) {
	term, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current term")
	}
	return term, nil
}
