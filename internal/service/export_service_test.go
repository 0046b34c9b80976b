package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	"github.com/coursekit/planner-api/pkg/storage"
)

type scheduleLoaderStub struct {
	detail *models.ScheduleDetail
	err    error
}

func (s scheduleLoaderStub) Get(ctx context.Context, userID, scheduleID string) (*models.ScheduleDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

type storageStub struct {
	files map[string][]byte
}

func (s *storageStub) Save(filename string, data []byte) (string, error) {
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[filename] = data
	return filename, nil
}

func (s *storageStub) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (s *storageStub) Delete(filename string) error {
	delete(s.files, filename)
	return nil
}

func (s *storageStub) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func exportFixtureDetail() *models.ScheduleDetail {
	// Fall term starting Monday 2026-08-17.
	dateStart := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	dateEnd := time.Date(2026, 12, 10, 0, 0, 0, 0, time.UTC)
	return &models.ScheduleDetail{
		Schedule: models.Schedule{ID: "sched-1", UserID: "user-1", TermID: "term-1", Name: "Fall Plan", CRNs: []string{"80001", "80005"}},
		Sections: []models.Section{
			{
				CRN:        "80001",
				Code:       "CS 1332 A",
				Instructor: "Prof. Stone",
				Credits:    3,
				Meetings: []models.Meeting{
					{
						Days:      "MWF",
						Period:    &models.Period{Start: 540, End: 590},
						Location:  "Clough 152",
						Kind:      "Lecture",
						DateStart: dateStart,
						DateEnd:   dateEnd,
					},
				},
			},
			{
				CRN:      "80005",
				Code:     "CS 4641 O",
				Credits:  3,
				Meetings: []models.Meeting{{Days: "", Period: nil, DateStart: dateStart, DateEnd: dateEnd}},
			},
		},
	}
}

func newExportFixture(detail *models.ScheduleDetail) (*ExportService, *storageStub) {
	files := &storageStub{}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", CalendarName: "Course Schedule"}
	service := NewExportService(scheduleLoaderStub{detail: detail}, files, signer, cfg, zap.NewNop(), nil, nil, nil)
	return service, files
}

func TestExportServiceGenerateICS(t *testing.T) {
	service, files := newExportFixture(exportFixtureDetail())

	result, err := service.Generate(context.Background(), "user-1", "sched-1", ExportFormatICS)
	require.NoError(t, err)
	assert.Equal(t, ExportFormatICS, result.Format)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/"))

	payload := string(files.files[result.RelativePath])
	assert.Contains(t, payload, "BEGIN:VCALENDAR")
	assert.Contains(t, payload, "SUMMARY:CS 1332 A")
	// first occurrence lands on the term's opening Monday at 9:00
	assert.Contains(t, payload, "DTSTART:20260817T090000")
	assert.Contains(t, payload, "DTEND:20260817T095000")
	assert.Contains(t, payload, "FREQ=WEEKLY;BYDAY=MO,WE,FR")
	// untimed online section stays off the calendar
	assert.NotContains(t, payload, "CS 4641")
}

func TestExportServiceGenerateICSNoTimedMeetings(t *testing.T) {
	detail := exportFixtureDetail()
	detail.Sections = detail.Sections[1:]
	service, _ := newExportFixture(detail)

	_, err := service.Generate(context.Background(), "user-1", "sched-1", ExportFormatICS)
	require.Error(t, err)
}

func TestExportServiceGenerateCSV(t *testing.T) {
	service, files := newExportFixture(exportFixtureDetail())

	result, err := service.Generate(context.Background(), "user-1", "sched-1", ExportFormatCSV)
	require.NoError(t, err)

	payload := string(files.files[result.RelativePath])
	lines := strings.Split(strings.TrimSpace(payload), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "CRN,Section,Days,Time,Location,Instructor,Credits", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "9:00 - 9:50am")
	assert.Contains(t, lines[2], "TBA")
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	service, _ := newExportFixture(exportFixtureDetail())

	result, err := service.Generate(context.Background(), "user-1", "sched-1", ExportFormatCSV)
	require.NoError(t, err)

	scheduleID, relPath, _, err := service.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "sched-1", scheduleID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestParseExportFormat(t *testing.T) {
	format, err := ParseExportFormat(" ICS ")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatICS, format)

	_, err = ParseExportFormat("docx")
	require.Error(t, err)
}

func TestFirstMeetingDate(t *testing.T) {
	// Wednesday start, TR meeting: first occurrence is the next day.
	wednesday := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)
	first := firstMeetingDate(wednesday, "TR")
	assert.Equal(t, time.Thursday, first.Weekday())
	assert.Equal(t, 20, first.Day())

	assert.True(t, firstMeetingDate(wednesday, "").IsZero())
}
