package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tournament-matchups/config"
	"github.com/Dosada05/tournament-matchups/models"
)

//go:embed templates/emails/*.html
var emailTemplates embed.FS

const startTimeLayout = "Monday, January 2, 2006 at 15:04 MST"

// Mailer delivers one HTML message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	tlsConfig := &tls.Config{ServerName: m.host}

	var conn net.Conn
	var err error
	dialer := &net.Dialer{Timeout: 15 * time.Second}
	if m.port == 465 {
		// Implicit TLS
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if m.port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("smtp STARTTLS: %w", err)
			}
		}
	}
	if m.user != "" {
		if err := client.Auth(smtp.PlainAuth("", m.user, m.pass, m.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(buildMessage(m.from, to, subject, htmlBody)); err != nil {
		return fmt.Errorf("smtp write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close DATA: %w", err)
	}
	return client.Quit()
}

// headerValue folds line breaks into spaces so a value cannot start a new
// header line.
var headerValue = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b bytes.Buffer
	b.WriteString("From: " + headerValue.Replace(from) + "\r\n")
	b.WriteString("To: " + headerValue.Replace(to) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", headerValue.Replace(subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return b.Bytes()
}

// EmailService renders the tournament emails and hands them to a Mailer.
// With a nil Mailer every send returns ErrEmailDisabled.
type EmailService struct {
	mailer    Mailer
	publicURL string
	templates *template.Template
}

func NewEmailService(mailer Mailer, publicURL string) (*EmailService, error) {
	t, err := template.ParseFS(emailTemplates, "templates/emails/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &EmailService{
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
		templates: t,
	}, nil
}

func (s *EmailService) Enabled() bool {
	return s != nil && s.mailer != nil
}

func (s *EmailService) tournamentLink(id fmt.Stringer) string {
	return fmt.Sprintf("%s/tournament/%s", s.publicURL, id)
}

func (s *EmailService) render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return body.String(), nil
}

func (s *EmailService) send(ctx context.Context, to, subject, tmpl string, data any) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	body, err := s.render(tmpl, data)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, to, subject, body)
}

func (s *EmailService) SendAnnouncement(ctx context.Context, t *models.Tournament, p models.Participant, subject, message string) error {
	data := struct {
		TournamentName  string
		ParticipantName string
		Message         string
		Link            string
	}{t.Name, p.Name, message, s.tournamentLink(t.ID)}
	return s.send(ctx, p.Email, fmt.Sprintf("%s: %s", t.Name, subject), "announcement.html", data)
}

func (s *EmailService) SendRegistrationConfirmation(ctx context.Context, t *models.Tournament, p models.Participant) error {
	data := struct {
		TournamentName   string
		ParticipantName  string
		ParticipantCount int
		MaxParticipants  int
		StartsAt         string
		Link             string
	}{
		TournamentName:   t.Name,
		ParticipantName:  p.Name,
		ParticipantCount: len(t.Participants),
		MaxParticipants:  t.MaxParticipants,
		StartsAt:         formatStart(t.StartDate),
		Link:             s.tournamentLink(t.ID),
	}
	return s.send(ctx, p.Email, fmt.Sprintf("You're registered for %s!", t.Name), "registration_confirmation.html", data)
}

func (s *EmailService) SendReminder(ctx context.Context, t *models.Tournament, p models.Participant, kind string) error {
	timeLeft, subject := "24 hours", "Starting Tomorrow!"
	if kind == models.ReminderHourBefore {
		timeLeft, subject = "1 hour", "Starting in 1 Hour!"
	}
	data := struct {
		TournamentName  string
		ParticipantName string
		TimeLeft        string
		StartsAt        string
		Link            string
	}{t.Name, p.Name, timeLeft, formatStart(t.StartDate), s.tournamentLink(t.ID)}
	return s.send(ctx, p.Email, fmt.Sprintf("%s %s", subject, t.Name), "tournament_reminder.html", data)
}

type backupProgress struct {
	Name      string
	Completed int
	Scheduled int
}

func (s *EmailService) SendBackup(ctx context.Context, to string, t *models.Tournament, now time.Time) error {
	progress := make([]backupProgress, len(t.Matchups))
	for i, m := range t.Matchups {
		done := 0
		for _, match := range m.Matches {
			if match.Completed {
				done++
			}
		}
		progress[i] = backupProgress{Name: m.Participant.Name, Completed: done, Scheduled: len(m.Matches)}
	}
	data := struct {
		TournamentName string
		TournamentID   string
		Participants   models.Participants
		Progress       []backupProgress
		GeneratedAt    string
		Link           string
	}{t.Name, t.ID.String(), t.Participants, progress, now.UTC().Format(time.RFC1123), s.tournamentLink(t.ID)}
	return s.send(ctx, to, "Tournament Backup: "+t.Name, "tournament_backup.html", data)
}

func formatStart(start *time.Time) string {
	if start == nil {
		return ""
	}
	return start.UTC().Format(startTimeLayout)
}
