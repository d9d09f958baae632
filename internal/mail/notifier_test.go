package mail

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/masdikaaa/wedding-invitation/internal/rsvp"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(messages ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, messages...)
	return nil
}

func newTestNotifier(dialer dialer, recipients ...string) *Notifier {
	notifier := NewNotifier(Config{
		Host:       "mail.example.test",
		Port:       587,
		From:       "rsvp@example.test",
		Recipients: recipients,
		Logger:     zap.NewNop(),
	})
	notifier.dialer = dialer
	return notifier
}

func sampleSubmission() rsvp.Submission {
	message := "Congrats!"
	return rsvp.Submission{
		ID:                  12,
		Name:                "Budi",
		Attendance:          rsvp.StatusAttending,
		GuestCount:          2,
		GuestCountSpecified: true,
		Message:             &message,
		CreatedAt:           time.Date(2025, 10, 17, 7, 30, 0, 0, time.UTC),
	}
}

func TestNotifySubmissionSendsToConfiguredRecipients(testContext *testing.T) {
	dialer := &recordingDialer{}
	notifier := newTestNotifier(dialer, "host-one@example.test", "host-two@example.test")

	notifier.NotifySubmission(sampleSubmission())

	if len(dialer.sent) != 1 {
		testContext.Fatalf("expected 1 message, got %d", len(dialer.sent))
	}
	message := dialer.sent[0]
	recipients := message.GetHeader("To")
	if len(recipients) != 2 {
		testContext.Fatalf("expected 2 recipients, got %v", recipients)
	}
	subjects := message.GetHeader("Subject")
	if len(subjects) != 1 || !strings.Contains(subjects[0], "Budi") || !strings.Contains(subjects[0], "HADIR") {
		testContext.Fatalf("unexpected subject: %v", subjects)
	}
}

func TestNotifySubmissionSwallowsDialerFailure(testContext *testing.T) {
	dialer := &recordingDialer{err: errors.New("dial tcp: connection refused")}
	notifier := newTestNotifier(dialer, "host@example.test")

	// Must not panic or surface the failure in any way.
	notifier.NotifySubmission(sampleSubmission())
}

func TestNotifySubmissionSkipsWithoutRecipients(testContext *testing.T) {
	dialer := &recordingDialer{}
	notifier := newTestNotifier(dialer)

	notifier.NotifySubmission(sampleSubmission())

	if len(dialer.sent) != 0 {
		testContext.Fatalf("expected no messages without recipients, got %d", len(dialer.sent))
	}
}

func TestHTMLBodyIncludesSubmissionFields(testContext *testing.T) {
	location := time.FixedZone("WIB", 7*60*60)
	data := newTemplateData(sampleSubmission(), location)

	var body bytes.Buffer
	if err := htmlTemplate.Execute(&body, data); err != nil {
		testContext.Fatalf("failed to render html body: %v", err)
	}

	rendered := body.String()
	for _, expected := range []string{"Budi", "HADIR", "2 orang", "17 Oktober 2025 14.30 WIB", "Congrats!", "#12"} {
		if !strings.Contains(rendered, expected) {
			testContext.Fatalf("expected html body to contain %q", expected)
		}
	}
}

func TestHTMLBodyOmitsEmptyMessageBlock(testContext *testing.T) {
	location := time.FixedZone("WIB", 7*60*60)
	submission := sampleSubmission()
	submission.Message = nil
	data := newTemplateData(submission, location)

	var body bytes.Buffer
	if err := htmlTemplate.Execute(&body, data); err != nil {
		testContext.Fatalf("failed to render html body: %v", err)
	}
	if strings.Contains(body.String(), "Ucapan") {
		testContext.Fatalf("expected message block omitted without a message")
	}
}

func TestTextBodyIncludesSubmissionFields(testContext *testing.T) {
	location := time.FixedZone("WIB", 7*60*60)
	data := newTemplateData(sampleSubmission(), location)

	var body bytes.Buffer
	if err := textTemplate.Execute(&body, data); err != nil {
		testContext.Fatalf("failed to render text body: %v", err)
	}

	rendered := body.String()
	for _, expected := range []string{"Nama: Budi", "Status: HADIR", "Jumlah Tamu: 2 orang", `"Congrats!"`, "ID Submission: #12"} {
		if !strings.Contains(rendered, expected) {
			testContext.Fatalf("expected text body to contain %q", expected)
		}
	}
}

func TestAbsentGuestCountRendersUnspecifiedLabel(testContext *testing.T) {
	location := time.FixedZone("WIB", 7*60*60)
	submission := sampleSubmission()
	// An RSVP without a count stores the defaulted 1 but must not read as an
	// explicit single guest in the notification.
	submission.GuestCount = 1
	submission.GuestCountSpecified = false
	data := newTemplateData(submission, location)

	if data.GuestCountText != "Tidak disebutkan" {
		testContext.Fatalf("expected unspecified label, got %q", data.GuestCountText)
	}

	var htmlBody bytes.Buffer
	if err := htmlTemplate.Execute(&htmlBody, data); err != nil {
		testContext.Fatalf("failed to render html body: %v", err)
	}
	if !strings.Contains(htmlBody.String(), "Tidak disebutkan") {
		testContext.Fatalf("expected html body to carry the unspecified label")
	}
	if strings.Contains(htmlBody.String(), "1 orang") {
		testContext.Fatalf("expected html body not to claim an explicit count")
	}

	var textBody bytes.Buffer
	if err := textTemplate.Execute(&textBody, data); err != nil {
		testContext.Fatalf("failed to render text body: %v", err)
	}
	if !strings.Contains(textBody.String(), "Jumlah Tamu: Tidak disebutkan") {
		testContext.Fatalf("expected text body to carry the unspecified label")
	}
}

func TestNotAttendingUsesDeclinedLabel(testContext *testing.T) {
	submission := sampleSubmission()
	submission.Attendance = rsvp.StatusNotAttending
	data := newTemplateData(submission, time.UTC)

	if data.StatusLabel != "TIDAK HADIR" {
		testContext.Fatalf("unexpected label: %s", data.StatusLabel)
	}
	if data.Attending {
		testContext.Fatalf("expected attending flag to be false")
	}
}

func TestFormatJakartaConvertsFromUTC(testContext *testing.T) {
	location := time.FixedZone("WIB", 7*60*60)
	formatted := formatJakarta(time.Date(2025, 12, 31, 18, 5, 0, 0, time.UTC), location)

	if formatted != "1 Januari 2026 01.05 WIB" {
		testContext.Fatalf("unexpected formatted time: %s", formatted)
	}
}
