package rsvp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AttendanceStatus enumerates the two attendance answers a guest can give.
type AttendanceStatus string

const (
	// StatusAttending marks a guest who confirmed attendance.
	StatusAttending AttendanceStatus = "attending"
	// StatusNotAttending marks a guest who declined.
	StatusNotAttending AttendanceStatus = "not-attending"
)

var (
	// ErrMissingRequiredFields indicates name or attendance was absent.
	ErrMissingRequiredFields = errors.New("rsvp: name and attendance are required")
	// ErrInvalidAttendanceStatus indicates an attendance value outside the enumeration.
	ErrInvalidAttendanceStatus = errors.New("rsvp: invalid attendance status")
)

// ParseAttendanceStatus validates raw input against the enumeration.
func ParseAttendanceStatus(rawInput string) (AttendanceStatus, error) {
	switch AttendanceStatus(strings.TrimSpace(rawInput)) {
	case StatusAttending:
		return StatusAttending, nil
	case StatusNotAttending:
		return StatusNotAttending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAttendanceStatus, rawInput)
	}
}

// Label returns the status rendered the way the hosts read it.
func (s AttendanceStatus) Label() string {
	if s == StatusAttending {
		return "HADIR"
	}
	return "TIDAK HADIR"
}

// Submission is one persisted RSVP. Rows are append-only: nothing in the
// application updates or deletes them after insert.
type Submission struct {
	ID         int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name       string           `gorm:"column:name;size:255;not null" json:"name"`
	Attendance AttendanceStatus `gorm:"column:attendance;size:32;not null;index:idx_attendance" json:"attendance"`
	GuestCount int              `gorm:"column:guest_count;not null;default:1" json:"guest_count"`
	// GuestCountSpecified records whether the guest actually supplied a count.
	// Not persisted: the stored column always holds the defaulted value, but
	// the notification renders absence differently from an explicit 1.
	GuestCountSpecified bool      `gorm:"-" json:"-"`
	Message             *string   `gorm:"column:message;type:text" json:"message"`
	SourceIP            string    `gorm:"column:ip_address;size:45" json:"ip_address"`
	UserAgent           string    `gorm:"column:user_agent;type:text" json:"-"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime;index:idx_created_at" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// TableName exposes the table backing RSVP submissions.
func (Submission) TableName() string {
	return "rsvp_submissions"
}

// Statistics aggregates the submission table for the admin listing.
type Statistics struct {
	TotalSubmissions  int64 `json:"total_submissions"`
	TotalAttending    int64 `json:"total_attending"`
	TotalNotAttending int64 `json:"total_not_attending"`
	TotalGuests       int64 `json:"total_guests"`
}
