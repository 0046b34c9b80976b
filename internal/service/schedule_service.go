package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

// ScheduleService manages saved schedules and guards them against meeting
// conflicts.
type ScheduleService struct {
	schedules scheduleRepository
	sections  sectionReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(schedules scheduleRepository, sections sectionReader, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{schedules: schedules, sections: sections, validator: validate, logger: logger}
}

// List returns the user's saved schedules.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one schedule with its resolved sections. Only the owner may read
// a schedule.
func (s *ScheduleService) Get(ctx context.Context, userID, scheduleID string) (*models.ScheduleDetail, error) {
	schedule, err := s.loadOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	sections, err := s.resolveSections(ctx, schedule.TermID, schedule.CRNs)
	if err != nil {
		return nil, err
	}

	return &models.ScheduleDetail{Schedule: *schedule, Sections: sections}, nil
}

// Create validates and persists a new schedule. The initial section list is
// rejected when any pair of its sections conflicts.
func (s *ScheduleService) Create(ctx context.Context, userID string, req models.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	crns := dedupeCRNs(req.CRNs)
	sections, err := s.resolveSections(ctx, req.TermID, crns)
	if err != nil {
		return nil, err
	}
	if conflictErr := findConflicts(sections); conflictErr != nil {
		return nil, conflictErr
	}

	schedule := &models.Schedule{
		UserID: userID,
		TermID: req.TermID,
		Name:   req.Name,
		CRNs:   crns,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update renames a schedule or replaces its section list, re-running
// conflict validation when the list changes.
func (s *ScheduleService) Update(ctx context.Context, userID, scheduleID string, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule, err := s.loadOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.CRNs != nil {
		crns := dedupeCRNs(*req.CRNs)
		sections, err := s.resolveSections(ctx, schedule.TermID, crns)
		if err != nil {
			return nil, err
		}
		if conflictErr := findConflicts(sections); conflictErr != nil {
			return nil, conflictErr
		}
		schedule.CRNs = crns
	}

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Delete removes a schedule owned by the user.
func (s *ScheduleService) Delete(ctx context.Context, userID, scheduleID string) error {
	if _, err := s.loadOwned(ctx, userID, scheduleID); err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// AddSection appends one CRN to the schedule after checking it against every
// section already on it. A conflict reports all colliding meeting pairs.
func (s *ScheduleService) AddSection(ctx context.Context, userID, scheduleID string, req models.AddSectionRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	schedule, err := s.loadOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	for _, crn := range schedule.CRNs {
		if crn == req.CRN {
			return nil, appErrors.Clone(appErrors.ErrDuplicateSection, fmt.Sprintf("section %s is already on the schedule", req.CRN))
		}
	}

	candidate, err := s.sections.FindByCRN(ctx, schedule.TermID, req.CRN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", req.CRN))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	existing, err := s.resolveSections(ctx, schedule.TermID, schedule.CRNs)
	if err != nil {
		return nil, err
	}

	var conflicts []models.SectionConflict
	for _, other := range existing {
		conflicts = append(conflicts, conflictPairs(*candidate, other)...)
	}
	if len(conflicts) > 0 {
		return nil, &models.ScheduleConflictError{
			Type:      "time_conflict",
			Message:   fmt.Sprintf("section %s conflicts with %d section(s) on the schedule", req.CRN, countDistinctCRNs(conflicts)),
			Conflicts: conflicts,
		}
	}

	schedule.CRNs = append(schedule.CRNs, req.CRN)
	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// RemoveSection drops one CRN from the schedule.
func (s *ScheduleService) RemoveSection(ctx context.Context, userID, scheduleID, crn string) (*models.Schedule, error) {
	schedule, err := s.loadOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	kept := schedule.CRNs[:0]
	found := false
	for _, existing := range schedule.CRNs {
		if existing == crn {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s is not on the schedule", crn))
	}
	schedule.CRNs = kept

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Conflicts reports every colliding meeting pair among the schedule's
// current sections. An empty result means the schedule is conflict free.
func (s *ScheduleService) Conflicts(ctx context.Context, userID, scheduleID string) ([]models.SectionConflict, error) {
	schedule, err := s.loadOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	sections, err := s.resolveSections(ctx, schedule.TermID, schedule.CRNs)
	if err != nil {
		return nil, err
	}

	var conflicts []models.SectionConflict
	for i := 0; i < len(sections); i++ {
		for j := i + 1; j < len(sections); j++ {
			conflicts = append(conflicts, conflictPairs(sections[i], sections[j])...)
		}
	}
	return conflicts, nil
}

func (s *ScheduleService) loadOwned(ctx context.Context, userID, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another user")
	}
	return schedule, nil
}

func (s *ScheduleService) resolveSections(ctx context.Context, termID string, crns []string) ([]models.Section, error) {
	sections, err := s.sections.FindByCRNs(ctx, termID, crns)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	if len(sections) != len(crns) {
		known := make(map[string]bool, len(sections))
		for _, section := range sections {
			known[section.CRN] = true
		}
		for _, crn := range crns {
			if !known[crn] {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", crn))
			}
		}
	}
	return sections, nil
}

// findConflicts checks every pair in the set and wraps any collisions in a
// typed conflict error.
func findConflicts(sections []models.Section) error {
	var conflicts []models.SectionConflict
	for i := 0; i < len(sections); i++ {
		for j := i + 1; j < len(sections); j++ {
			conflicts = append(conflicts, conflictPairs(sections[i], sections[j])...)
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	return &models.ScheduleConflictError{
		Type:      "time_conflict",
		Message:   fmt.Sprintf("schedule has %d conflicting meeting pair(s)", len(conflicts)),
		Conflicts: conflicts,
	}
}

// conflictPairs enumerates the colliding meeting pairs between two sections.
func conflictPairs(a, b models.Section) []models.SectionConflict {
	var pairs []models.SectionConflict
	for _, ma := range a.Meetings {
		for _, mb := range b.Meetings {
			if !ma.ConflictsWith(mb) {
				continue
			}
			pairs = append(pairs, models.SectionConflict{
				CRN:         a.CRN,
				OtherCRN:    b.CRN,
				Days:        ma.Days,
				Period:      ma.Period.String(),
				OtherDays:   mb.Days,
				OtherPeriod: mb.Period.String(),
			})
		}
	}
	return pairs
}

func dedupeCRNs(crns []string) []string {
	seen := make(map[string]bool, len(crns))
	out := make([]string, 0, len(crns))
	for _, crn := range crns {
		if crn == "" || seen[crn] {
			continue
		}
		seen[crn] = true
		out = append(out, crn)
	}
	return out
}

func countDistinctCRNs(conflicts []models.SectionConflict) int {
	seen := make(map[string]bool, len(conflicts))
	for _, c := range conflicts {
		seen[c.OtherCRN] = true
	}
	return len(seen)
}
