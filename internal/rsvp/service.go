package rsvp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceError carries an operation.reason code alongside the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "rsvp.service.new"
	opSubmit     = "rsvp.submit"
	opList       = "rsvp.list"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// Notifier receives every durably stored submission. Implementations must not
// block request handling: the service invokes them on a detached goroutine and
// never observes their outcome.
type Notifier interface {
	NotifySubmission(Submission)
}

// ServiceConfig describes the dependencies for the RSVP service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Notifier Notifier
	Logger   *zap.Logger
}

// Service persists and lists RSVP submissions.
type Service struct {
	db       *gorm.DB
	clock    func() time.Time
	notifier Notifier
	logger   *zap.Logger
}

// NewService constructs the RSVP service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:       cfg.Database,
		clock:    clock,
		notifier: cfg.Notifier,
		logger:   logger,
	}, nil
}

// SubmitRequest carries one incoming RSVP plus request metadata.
type SubmitRequest struct {
	Name       string
	Attendance string
	GuestCount string
	Message    string
	SourceIP   string
	UserAgent  string
}

// Submit validates the request, inserts the submission and schedules the host
// notification. The returned Submission carries the storage-assigned id and
// timestamps. The notification is fire-and-forget: Submit returns as soon as
// the row is durably inserted.
func (s *Service) Submit(ctx context.Context, request SubmitRequest) (Submission, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" || strings.TrimSpace(request.Attendance) == "" {
		return Submission{}, ErrMissingRequiredFields
	}

	status, err := ParseAttendanceStatus(request.Attendance)
	if err != nil {
		return Submission{}, err
	}

	if s.db == nil {
		s.logError(opSubmit, "missing_database", errMissingDatabase)
		return Submission{}, newServiceError(opSubmit, "missing_database", errMissingDatabase)
	}

	guestCount, guestCountSpecified := parseGuestCount(request.GuestCount)
	submission := Submission{
		Name:                name,
		Attendance:          status,
		GuestCount:          guestCount,
		GuestCountSpecified: guestCountSpecified,
		Message:             trimmedOrNil(request.Message),
		SourceIP:            request.SourceIP,
		UserAgent:           request.UserAgent,
		CreatedAt:           s.clock().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&submission).Error; err != nil {
		s.logError(opSubmit, "insert_failed", err, zap.String("name", name))
		return Submission{}, newServiceError(opSubmit, "insert_failed", err)
	}

	s.loggerOrDefault().Info("rsvp submission stored",
		zap.Int64("id", submission.ID),
		zap.String("name", submission.Name),
		zap.String("attendance", string(submission.Attendance)),
		zap.Int("guest_count", submission.GuestCount))

	if s.notifier != nil {
		go s.notifier.NotifySubmission(submission)
	}

	return submission, nil
}

// List returns every submission newest-first plus the aggregate counts.
func (s *Service) List(ctx context.Context) ([]Submission, Statistics, error) {
	if s.db == nil {
		s.logError(opList, "missing_database", errMissingDatabase)
		return nil, Statistics{}, newServiceError(opList, "missing_database", errMissingDatabase)
	}

	var submissions []Submission
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		s.logError(opList, "query_failed", err)
		return nil, Statistics{}, newServiceError(opList, "query_failed", err)
	}

	var stats Statistics
	err := s.db.WithContext(ctx).
		Model(&Submission{}).
		Select(
			"COUNT(*) AS total_submissions, "+
				"COALESCE(SUM(CASE WHEN attendance = ? THEN 1 ELSE 0 END), 0) AS total_attending, "+
				"COALESCE(SUM(CASE WHEN attendance = ? THEN 1 ELSE 0 END), 0) AS total_not_attending, "+
				"COALESCE(SUM(CASE WHEN attendance = ? THEN guest_count ELSE 0 END), 0) AS total_guests",
			StatusAttending, StatusNotAttending, StatusAttending).
		Scan(&stats).Error
	if err != nil {
		s.logError(opList, "statistics_failed", err)
		return nil, Statistics{}, newServiceError(opList, "statistics_failed", err)
	}

	return submissions, stats, nil
}

// parseGuestCount applies the default-to-one rule: absent, non-numeric or
// non-positive input all store as a single guest. The second return reports
// whether a usable count was supplied, so the notification can distinguish
// an explicit 1 from a defaulted one.
func parseGuestCount(rawInput string) (int, bool) {
	count, err := strconv.Atoi(strings.TrimSpace(rawInput))
	if err != nil || count < 1 {
		return 1, false
	}
	return count, true
}

func trimmedOrNil(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("rsvp service error", attrs...)
}
