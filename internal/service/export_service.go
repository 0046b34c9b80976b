package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	"github.com/coursekit/planner-api/pkg/export"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
	"github.com/coursekit/planner-api/pkg/storage"
)

// ExportFormat selects the rendered output type for a schedule export.
type ExportFormat string

const (
	ExportFormatICS ExportFormat = "ics"
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat validates a format query value.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case ExportFormatICS:
		return ExportFormatICS, nil
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for downloads of this format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatICS:
		return "text/calendar"
	case ExportFormatCSV:
		return "text/csv"
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

type scheduleLoader interface {
	Get(ctx context.Context, userID, scheduleID string) (*models.ScheduleDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, events []export.CalendarEvent) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix    string
	ResultTTL    time.Duration
	CalendarName string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Filename     string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders saved schedules to calendar and tabular files and
// hands out signed download URLs for them.
type ExportService struct {
	schedules scheduleLoader
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	ics       icsRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(schedules scheduleLoader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, ics icsRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter()
	}
	return &ExportService{
		schedules: schedules,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		ics:       ics,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the schedule in the requested format, stores the file and
// returns a signed download URL.
func (s *ExportService) Generate(ctx context.Context, userID, scheduleID string, format ExportFormat) (*ExportResult, error) {
	detail, err := s.schedules.Get(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case ExportFormatICS:
		events := buildCalendarEvents(detail)
		if len(events) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "schedule has no timed meetings to export")
		}
		name := s.cfg.CalendarName
		if name == "" {
			name = detail.Name
		}
		payload, err = s.ics.Render(name, events)
	case ExportFormatCSV:
		payload, err = s.csv.Render(buildScheduleDataset(detail))
	case ExportFormatPDF:
		payload, err = s.pdf.Render(buildScheduleDataset(detail), fmt.Sprintf("Schedule: %s", detail.Name))
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := s.buildFilename(detail, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(detail.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download URL")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Filename:     filename,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (scheduleID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(detail *models.ScheduleDetail, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	namePart := sanitizeFilename(strings.ToLower(detail.Name))
	return fmt.Sprintf("schedule_%s_%s.%s", namePart, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// byDayCodes maps catalog weekday letters to iCalendar BYDAY codes.
var byDayCodes = map[rune]string{
	models.DayMonday:    "MO",
	models.DayTuesday:   "TU",
	models.DayWednesday: "WE",
	models.DayThursday:  "TH",
	models.DayFriday:    "FR",
}

var weekdayFor = map[rune]time.Weekday{
	models.DayMonday:    time.Monday,
	models.DayTuesday:   time.Tuesday,
	models.DayWednesday: time.Wednesday,
	models.DayThursday:  time.Thursday,
	models.DayFriday:    time.Friday,
}

// buildCalendarEvents turns each timed meeting into one weekly-recurring
// event. Untimed meetings have nothing to place on a calendar and are
// skipped.
func buildCalendarEvents(detail *models.ScheduleDetail) []export.CalendarEvent {
	var events []export.CalendarEvent
	for _, section := range detail.Sections {
		for i, meeting := range section.Meetings {
			if !meeting.Timed() {
				continue
			}
			first := firstMeetingDate(meeting.DateStart, meeting.Days)
			if first.IsZero() {
				continue
			}
			start := first.Add(time.Duration(meeting.Period.Start) * time.Minute)
			end := first.Add(time.Duration(meeting.Period.End) * time.Minute)

			var repeat []string
			for _, day := range meeting.Days {
				if code, ok := byDayCodes[day]; ok {
					repeat = append(repeat, code)
				}
			}

			description := fmt.Sprintf("CRN %s", section.CRN)
			if section.Instructor != "" {
				description += " / " + section.Instructor
			}
			if meeting.Kind != "" {
				description += " / " + meeting.Kind
			}

			events = append(events, export.CalendarEvent{
				UID:         fmt.Sprintf("%s-%d@coursekit", section.CRN, i),
				Summary:     section.Code,
				Description: description,
				Location:    meeting.Location,
				Start:       start,
				End:         end,
				RepeatDays:  repeat,
				Until:       meeting.DateEnd.Add(24*time.Hour - time.Second),
			})
		}
	}
	return events
}

// firstMeetingDate finds the earliest date on or after start whose weekday is
// in the meeting's day set.
func firstMeetingDate(start time.Time, days string) time.Time {
	if days == "" {
		return time.Time{}
	}
	wanted := make(map[time.Weekday]bool, len(days))
	for _, day := range days {
		if wd, ok := weekdayFor[day]; ok {
			wanted[wd] = true
		}
	}
	if len(wanted) == 0 {
		return time.Time{}
	}
	date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for i := 0; i < 7; i++ {
		if wanted[date.Weekday()] {
			return date
		}
		date = date.AddDate(0, 0, 1)
	}
	return time.Time{}
}

func buildScheduleDataset(detail *models.ScheduleDetail) export.Dataset {
	headers := []string{"CRN", "Section", "Days", "Time", "Location", "Instructor", "Credits"}
	var rows []map[string]string
	for _, section := range detail.Sections {
		if len(section.Meetings) == 0 {
			rows = append(rows, map[string]string{
				"CRN":        section.CRN,
				"Section":    section.Code,
				"Days":       "",
				"Time":       "TBA",
				"Location":   "",
				"Instructor": section.Instructor,
				"Credits":    fmt.Sprintf("%d", section.Credits),
			})
			continue
		}
		for _, meeting := range section.Meetings {
			rows = append(rows, map[string]string{
				"CRN":        section.CRN,
				"Section":    section.Code,
				"Days":       meeting.Days,
				"Time":       meeting.Period.String(),
				"Location":   meeting.Location,
				"Instructor": section.Instructor,
				"Credits":    fmt.Sprintf("%d", section.Credits),
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
