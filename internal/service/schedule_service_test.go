package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

type scheduleRepoStub struct {
	schedules map[string]*models.Schedule
	created   []*models.Schedule
	updated   []*models.Schedule
	deleted   []string
	listErr   error
}

func (s *scheduleRepoStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var out []models.Schedule
	for _, schedule := range s.schedules {
		if schedule.UserID == filter.UserID {
			out = append(out, *schedule)
		}
	}
	return out, len(out), nil
}

func (s *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if schedule, ok := s.schedules[id]; ok {
		copied := *schedule
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = "sched-new"
	}
	s.created = append(s.created, schedule)
	if s.schedules == nil {
		s.schedules = map[string]*models.Schedule{}
	}
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *scheduleRepoStub) Update(ctx context.Context, schedule *models.Schedule) error {
	s.updated = append(s.updated, schedule)
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *scheduleRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.schedules, id)
	return nil
}

type sectionReaderStub struct {
	sections map[string]models.Section
}

func (s sectionReaderStub) ListByCourse(ctx context.Context, courseID, termID string) ([]models.Section, error) {
	var out []models.Section
	for _, section := range s.sections {
		if section.CourseID == courseID {
			out = append(out, section)
		}
	}
	return out, nil
}

func (s sectionReaderStub) FindByCRN(ctx context.Context, termID, crn string) (*models.Section, error) {
	if section, ok := s.sections[crn]; ok {
		return &section, nil
	}
	return nil, sql.ErrNoRows
}

func (s sectionReaderStub) FindByCRNs(ctx context.Context, termID string, crns []string) ([]models.Section, error) {
	var out []models.Section
	for _, crn := range crns {
		if section, ok := s.sections[crn]; ok {
			out = append(out, section)
		}
	}
	return out, nil
}

func timedSection(crn, days string, start, end models.TimeOfDay) models.Section {
	return models.Section{
		CRN:      crn,
		CourseID: "course-" + crn,
		TermID:   "term-1",
		Code:     "A",
		Meetings: []models.Meeting{
			{Days: days, Period: &models.Period{Start: start, End: end}},
		},
	}
}

func newScheduleFixture() (*ScheduleService, *scheduleRepoStub, sectionReaderStub) {
	sections := sectionReaderStub{sections: map[string]models.Section{
		// MWF 9:00-9:50
		"80001": timedSection("80001", "MWF", 540, 590),
		// TR 9:30-10:45, clear of 80001 on days
		"80002": timedSection("80002", "TR", 570, 645),
		// MW 9:30-10:20, overlaps 80001 on M and W
		"80003": timedSection("80003", "MW", 570, 620),
		// MWF 10:00-10:50, touches 80001's end exactly
		"80004": timedSection("80004", "MWF", 590, 640),
		// online section, no timed meetings
		"80005": {CRN: "80005", CourseID: "course-80005", TermID: "term-1", Code: "O", Meetings: []models.Meeting{{Days: "", Period: nil}}},
	}}
	repo := &scheduleRepoStub{schedules: map[string]*models.Schedule{
		"sched-1": {ID: "sched-1", UserID: "user-1", TermID: "term-1", Name: "Fall Draft", CRNs: []string{"80001"}},
	}}
	return NewScheduleService(repo, sections, nil, zap.NewNop()), repo, sections
}

func TestScheduleServiceAddSectionReportsConflict(t *testing.T) {
	service, repo, _ := newScheduleFixture()

	_, err := service.AddSection(context.Background(), "user-1", "sched-1", models.AddSectionRequest{CRN: "80003"})
	require.Error(t, err)

	var conflictErr *models.ScheduleConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, "80003", conflictErr.Conflicts[0].CRN)
	assert.Equal(t, "80001", conflictErr.Conflicts[0].OtherCRN)
	assert.Equal(t, "MW", conflictErr.Conflicts[0].Days)
	assert.Equal(t, "9:30 - 10:20am", conflictErr.Conflicts[0].Period)

	// schedule stays untouched on conflict
	assert.Empty(t, repo.updated)
	assert.Equal(t, []string{"80001"}, []string(repo.schedules["sched-1"].CRNs))
}

func TestScheduleServiceAddSectionDisjointDays(t *testing.T) {
	service, repo, _ := newScheduleFixture()

	schedule, err := service.AddSection(context.Background(), "user-1", "sched-1", models.AddSectionRequest{CRN: "80002"})
	require.NoError(t, err)
	assert.Equal(t, []string{"80001", "80002"}, []string(schedule.CRNs))
	require.Len(t, repo.updated, 1)
}

func TestScheduleServiceAddSectionBackToBack(t *testing.T) {
	// 9:00-9:50 followed by 10:00-10:50 shares days but not minutes, and a
	// section ending exactly when another starts does not conflict either.
	service, _, _ := newScheduleFixture()

	schedule, err := service.AddSection(context.Background(), "user-1", "sched-1", models.AddSectionRequest{CRN: "80004"})
	require.NoError(t, err)
	assert.Contains(t, []string(schedule.CRNs), "80004")
}

func TestScheduleServiceAddSectionUntimedNeverConflicts(t *testing.T) {
	service, _, _ := newScheduleFixture()

	schedule, err := service.AddSection(context.Background(), "user-1", "sched-1", models.AddSectionRequest{CRN: "80005"})
	require.NoError(t, err)
	assert.Contains(t, []string(schedule.CRNs), "80005")
}

func TestScheduleServiceAddSectionDuplicate(t *testing.T) {
	service, _, _ := newScheduleFixture()

	_, err := service.AddSection(context.Background(), "user-1", "sched-1", models.AddSectionRequest{CRN: "80001"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateSection.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceAddSectionUnknownCRN(t *testing.T) {
	service, _, _ := newScheduleFixture()

	_, err := service.AddSection(context.Background(), "user-1", "sched-1", models.AddSectionRequest{CRN: "99999"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateRejectsConflictingSet(t *testing.T) {
	service, repo, _ := newScheduleFixture()

	_, err := service.Create(context.Background(), "user-1", models.CreateScheduleRequest{
		TermID: "term-1",
		Name:   "Clashing",
		CRNs:   []string{"80001", "80003"},
	})
	require.Error(t, err)

	var conflictErr *models.ScheduleConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Empty(t, repo.created)
}

func TestScheduleServiceCreateDedupesCRNs(t *testing.T) {
	service, repo, _ := newScheduleFixture()

	schedule, err := service.Create(context.Background(), "user-1", models.CreateScheduleRequest{
		TermID: "term-1",
		Name:   "Fall",
		CRNs:   []string{"80001", "80001", "80002"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"80001", "80002"}, []string(schedule.CRNs))
	require.Len(t, repo.created, 1)
}

func TestScheduleServiceGetForbiddenForOtherUser(t *testing.T) {
	service, _, _ := newScheduleFixture()

	_, err := service.Get(context.Background(), "user-2", "sched-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceGetResolvesSections(t *testing.T) {
	service, _, _ := newScheduleFixture()

	detail, err := service.Get(context.Background(), "user-1", "sched-1")
	require.NoError(t, err)
	require.Len(t, detail.Sections, 1)
	assert.Equal(t, "80001", detail.Sections[0].CRN)
}

func TestScheduleServiceRemoveSection(t *testing.T) {
	service, repo, _ := newScheduleFixture()

	schedule, err := service.RemoveSection(context.Background(), "user-1", "sched-1", "80001")
	require.NoError(t, err)
	assert.Empty(t, schedule.CRNs)
	require.Len(t, repo.updated, 1)

	_, err = service.RemoveSection(context.Background(), "user-1", "sched-1", "80001")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceConflictsListsAllPairs(t *testing.T) {
	service, repo, _ := newScheduleFixture()
	repo.schedules["sched-1"].CRNs = []string{"80001", "80003", "80002"}

	conflicts, err := service.Conflicts(context.Background(), "user-1", "sched-1")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "80001", conflicts[0].CRN)
	assert.Equal(t, "80003", conflicts[0].OtherCRN)
}

func TestScheduleServiceUpdateRename(t *testing.T) {
	service, repo, _ := newScheduleFixture()
	name := "Renamed"

	schedule, err := service.Update(context.Background(), "user-1", "sched-1", models.UpdateScheduleRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", schedule.Name)
	require.Len(t, repo.updated, 1)
}
