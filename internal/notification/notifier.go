package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"instainstru/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Notifier is the set of user notifications the marketplace emits.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b model.Booking, student, instructor model.User)
	BookingCancelled(ctx context.Context, b model.Booking, student, instructor model.User)
	NewMessage(ctx context.Context, recipient, sender model.User, body string)
	RewardUnlocked(ctx context.Context, u model.User, r model.ReferralReward)
}

// EmailNotifier renders html templates and hands them to a Mailer.
type EmailNotifier struct {
	mailer Mailer
	log    zerolog.Logger
	loc    *time.Location
	tmpl   *template.Template
}

// NewEmailNotifier parses the embedded templates.
func NewEmailNotifier(mailer Mailer, logger zerolog.Logger, loc *time.Location) (*EmailNotifier, error) {
	if loc == nil {
		loc = time.UTC
	}
	tmpl, err := template.New("mail").Funcs(template.FuncMap{
		"money": formatCents,
		"when":  func(t time.Time) string { return t.In(loc).Format("Mon Jan 2, 3:04 PM MST") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &EmailNotifier{mailer: mailer, log: logger, loc: loc, tmpl: tmpl}, nil
}

var _ Notifier = (*EmailNotifier)(nil)

func (n *EmailNotifier) BookingConfirmed(ctx context.Context, b model.Booking, student, instructor model.User) {
	data := map[string]any{"Booking": b, "Student": student, "Instructor": instructor}
	n.send(ctx, student.Email, "Your lesson is confirmed", "booking_confirmed.html", data)
	n.send(ctx, instructor.Email, "New lesson booked", "booking_confirmed.html", data)
}

func (n *EmailNotifier) BookingCancelled(ctx context.Context, b model.Booking, student, instructor model.User) {
	data := map[string]any{"Booking": b, "Student": student, "Instructor": instructor}
	n.send(ctx, student.Email, "Lesson cancelled", "booking_cancelled.html", data)
	n.send(ctx, instructor.Email, "Lesson cancelled", "booking_cancelled.html", data)
}

func (n *EmailNotifier) NewMessage(ctx context.Context, recipient, sender model.User, body string) {
	preview := []rune(body)
	if len(preview) > 140 {
		preview = append(preview[:140], '…')
	}
	data := map[string]any{"Recipient": recipient, "Sender": sender, "Preview": string(preview)}
	n.send(ctx, recipient.Email, "New message from "+sender.FirstName, "new_message.html", data)
}

func (n *EmailNotifier) RewardUnlocked(ctx context.Context, u model.User, r model.ReferralReward) {
	data := map[string]any{"User": u, "Reward": r}
	n.send(ctx, u.Email, "Your referral reward is ready", "reward_unlocked.html", data)
}

func (n *EmailNotifier) send(ctx context.Context, to, subject, name string, data any) {
	if to == "" {
		return
	}
	var buf bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		n.log.Error().Err(err).Str("template", name).Msg("render email")
		return
	}
	if err := n.mailer.Send(ctx, to, subject, buf.String()); err != nil {
		n.log.Warn().Err(err).Str("template", name).Str("to", to).Msg("send email")
		return
	}
	n.log.Debug().Str("template", name).Str("to", to).Msg("email sent")
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
