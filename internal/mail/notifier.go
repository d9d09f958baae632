package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/masdikaaa/wedding-invitation/internal/rsvp"
)

var noOpLogger = zap.NewNop()

// Config describes the SMTP relay and the host inboxes to alert.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
	Logger     *zap.Logger
}

// dialer is the delivery seam; satisfied by *gomail.Dialer.
type dialer interface {
	DialAndSend(messages ...*gomail.Message) error
}

// Notifier mails the hosts about each stored submission. Every failure is
// logged and swallowed: by the time a notification runs, the guest has already
// been told their RSVP succeeded, and a degraded mail relay must not change
// that.
type Notifier struct {
	dialer     dialer
	from       string
	recipients []string
	location   *time.Location
	logger     *zap.Logger
}

// NewNotifier constructs a Notifier backed by the configured SMTP relay.
func NewNotifier(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	location, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		location = time.FixedZone("WIB", 7*60*60)
	}

	return &Notifier{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:       cfg.From,
		recipients: cfg.Recipients,
		location:   location,
		logger:     logger,
	}
}

// NotifySubmission renders and sends the alert for one stored submission.
// It never reports failure to the caller.
func (n *Notifier) NotifySubmission(submission rsvp.Submission) {
	if len(n.recipients) == 0 {
		n.logger.Debug("rsvp notification skipped, no recipients configured",
			zap.Int64("id", submission.ID))
		return
	}

	message, err := n.buildMessage(submission)
	if err != nil {
		n.logger.Error("rsvp notification render failed",
			zap.Int64("id", submission.ID), zap.Error(err))
		return
	}

	if err := n.dialer.DialAndSend(message); err != nil {
		n.logger.Error("rsvp notification send failed",
			zap.Int64("id", submission.ID), zap.Error(err))
		return
	}

	n.logger.Info("rsvp notification sent", zap.Int64("id", submission.ID))
}

func (n *Notifier) buildMessage(submission rsvp.Submission) (*gomail.Message, error) {
	data := newTemplateData(submission, n.location)

	var htmlBody bytes.Buffer
	if err := htmlTemplate.Execute(&htmlBody, data); err != nil {
		return nil, err
	}
	var textBody bytes.Buffer
	if err := textTemplate.Execute(&textBody, data); err != nil {
		return nil, err
	}

	message := gomail.NewMessage()
	message.SetAddressHeader("From", n.from, "Wedding RSVP System")
	message.SetHeader("To", n.recipients...)
	message.SetHeader("Subject", fmt.Sprintf("🎉 RSVP Baru: %s - %s", submission.Name, submission.Attendance.Label()))
	message.SetBody("text/plain", textBody.String())
	message.AddAlternative("text/html", htmlBody.String())
	return message, nil
}

type templateData struct {
	Name           string
	StatusLabel    string
	Attending      bool
	GuestCountText string
	SubmittedAt    string
	Message        string
	ID             int64
}

func newTemplateData(submission rsvp.Submission, location *time.Location) templateData {
	message := ""
	if submission.Message != nil {
		message = *submission.Message
	}
	return templateData{
		Name:           submission.Name,
		StatusLabel:    submission.Attendance.Label(),
		Attending:      submission.Attendance == rsvp.StatusAttending,
		GuestCountText: guestCountText(submission.GuestCount, submission.GuestCountSpecified),
		SubmittedAt:    formatJakarta(submission.CreatedAt, location),
		Message:        message,
		ID:             submission.ID,
	}
}

// guestCountText renders the headcount, falling back to the "unspecified"
// label when the guest never supplied one (the stored column still holds the
// defaulted 1 in that case).
func guestCountText(count int, specified bool) string {
	if !specified || count < 1 {
		return "Tidak disebutkan"
	}
	return fmt.Sprintf("%d orang", count)
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// formatJakarta renders the submission time the way the hosts read it,
// e.g. "17 Oktober 2025 14.30 WIB".
func formatJakarta(t time.Time, location *time.Location) string {
	local := t.In(location)
	return fmt.Sprintf("%d %s %d %02d.%02d WIB",
		local.Day(),
		indonesianMonths[local.Month()-1],
		local.Year(),
		local.Hour(),
		local.Minute())
}

var htmlTemplate = htmltemplate.Must(htmltemplate.New("rsvp-alert").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: linear-gradient(135deg, #d97706, #ea580c); color: white; padding: 20px; text-align: center; border-radius: 10px 10px 0 0; }
    .content { background: #f9f9f9; padding: 20px; border-radius: 0 0 10px 10px; }
    .info-row { margin: 10px 0; padding: 10px; background: white; border-radius: 5px; border-left: 4px solid #d97706; }
    .label { font-weight: bold; color: #d97706; }
    .value { margin-left: 10px; }
    .message-box { background: white; padding: 15px; border-radius: 5px; margin: 15px 0; border: 1px solid #ddd; }
    .footer { text-align: center; margin-top: 20px; color: #666; font-size: 12px; }
    .status-attending { color: #059669; font-weight: bold; }
    .status-not-attending { color: #dc2626; font-weight: bold; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>💌 RSVP Konfirmasi Kehadiran</h1>
      <p>Ririn &amp; Andika Wedding</p>
    </div>
    <div class="content">
      <h2>Ada konfirmasi kehadiran baru!</h2>
      <div class="info-row">
        <span class="label">👤 Nama:</span>
        <span class="value">{{.Name}}</span>
      </div>
      <div class="info-row">
        <span class="label">📅 Status Kehadiran:</span>
        <span class="value {{if .Attending}}status-attending{{else}}status-not-attending{{end}}">{{.StatusLabel}}</span>
      </div>
      <div class="info-row">
        <span class="label">👥 Jumlah Tamu:</span>
        <span class="value">{{.GuestCountText}}</span>
      </div>
      <div class="info-row">
        <span class="label">🕐 Waktu Submit:</span>
        <span class="value">{{.SubmittedAt}}</span>
      </div>
      {{if .Message}}
      <div class="message-box">
        <div class="label">💬 Ucapan &amp; Doa:</div>
        <p style="margin: 10px 0 0 0; font-style: italic;">&quot;{{.Message}}&quot;</p>
      </div>
      {{end}}
      <div style="margin-top: 20px; padding: 15px; background: #fef3c7; border-radius: 5px; border-left: 4px solid #f59e0b;">
        <strong>📊 ID Submission:</strong> #{{.ID}}
      </div>
    </div>
    <div class="footer">
      <p>Email ini dikirim otomatis dari sistem RSVP Wedding Ririn &amp; Andika</p>
      <p>17 Oktober 2025 • Sidoarjo, Jawa Timur</p>
    </div>
  </div>
</body>
</html>
`))

var textTemplate = texttemplate.Must(texttemplate.New("rsvp-alert-text").Parse(`RSVP Konfirmasi Kehadiran Baru

Nama: {{.Name}}
Status: {{.StatusLabel}}
Jumlah Tamu: {{.GuestCountText}}
Waktu: {{.SubmittedAt}}
{{if .Message}}
Ucapan & Doa: "{{.Message}}"
{{end}}
ID Submission: #{{.ID}}

---
Wedding Ririn & Andika
17 Oktober 2025
`))
