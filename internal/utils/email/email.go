package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/studentworks/freelancer-service/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendRegistrationNotice sends the welcome email after a successful
// registration. The caller treats failures as best-effort: the returned error
// is logged, never surfaced to the registering user.
func (s *Sender) SendRegistrationNotice(to, name string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Welcome to Student Freelancer Workplace!"

	text := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your registration was successful. Your profile is now visible in the\n"+
			"freelancer directory and clients can reach out to you.\n\n"+
			"Complete your profile with your skills, bio, and hourly rate to get\n"+
			"more attention.\n\n"+
			"Best regards,\nStudent Freelancer Workplace",
		name,
	)
	e.Text = []byte(text)

	html := fmt.Sprintf(
		`<html><body>
			<h2>Welcome, %s!</h2>
			<p>Your registration was successful. Your profile is now visible in the
			freelancer directory and clients can reach out to you.</p>
			<p>Complete your profile with your skills, bio, and hourly rate to get
			more attention.</p>
			<p><a href="%s/profile">Go to your profile</a></p>
			<p>Best regards,<br>Student Freelancer Workplace</p>
		</body></html>`,
		name, s.cfg.FrontendURL,
	)
	e.HTML = []byte(html)

	return s.send(e)
}

// SendVerificationNotice sends the email-verification message. The embedded
// link is documented to expire in 24 hours; the consuming endpoint lives
// outside this service.
func (s *Sender) SendVerificationNotice(to, name, token string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Verify your email address"

	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.FrontendURL, token)

	text := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Please verify your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"The link expires in 24 hours.\n\n"+
			"Best regards,\nStudent Freelancer Workplace",
		name, link,
	)
	e.Text = []byte(text)

	html := fmt.Sprintf(
		`<html><body>
			<h2>Hi %s,</h2>
			<p>Please verify your email address by clicking the button below:</p>
			<p><a href="%s">Verify Email</a></p>
			<p>The link expires in 24 hours.</p>
			<p>Best regards,<br>Student Freelancer Workplace</p>
		</body></html>`,
		name, link,
	)
	e.HTML = []byte(html)

	return s.send(e)
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", e.To[0], err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %s: %s", e.To[0], e.Subject)
	return nil
}
