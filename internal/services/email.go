package services

import (
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"
	"time"

	"streamsphere-api/internal/config"
)

type EmailService struct {
	cfg      *config.Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg, sendMail: smtp.SendMail}
}

// SendResetEmail mails the password reset link. Without an SMTP host the link
// is written to the server log instead.
func (es *EmailService) SendResetEmail(to, name, link string) error {
	if es.cfg.SMTPHost == "" {
		log.Printf(`
============================================
PASSWORD RESET REQUEST
============================================
User: %s (%s)
Reset Link: %s

The link will expire in %s.
============================================`, name, to, link, formatTTL(es.cfg.ResetTokenTTL))
		return nil
	}

	auth := smtp.PlainAuth("", es.cfg.SMTPUsername, es.cfg.SMTPPassword, es.cfg.SMTPHost)

	err := es.sendMail(
		es.cfg.SMTPHost+":"+es.cfg.SMTPPort,
		auth,
		es.cfg.EmailFrom,
		[]string{to},
		[]byte(es.buildResetMessage(to, name, link)),
	)
	if err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func (es *EmailService) buildResetMessage(to, name, link string) string {
	subject := "Reset your StreamSphere password"
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Password Reset Request</h2>
		<p>Hi %s,</p>
		<p>We received a request to reset your StreamSphere password. Use the link below to choose a new one:</p>
		<p><a href="%s">Reset password</a></p>
		<p>This link will expire in %s.</p>
		<p>If you didn't request this, please ignore this email.</p>
	</body>
	</html>
	`, html.EscapeString(name), html.EscapeString(link), formatTTL(es.cfg.ResetTokenTTL))

	headers := [][2]string{
		{"From", es.cfg.EmailFrom},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=\"utf-8\""},
	}

	var message strings.Builder
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	message.WriteString("\r\n" + body)
	return message.String()
}

func formatTTL(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
