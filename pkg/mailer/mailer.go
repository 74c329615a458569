// Package mailer sends transactional mail over SMTP. Services depend on the
// Sender interface so tests can substitute a fake.
package mailer

import (
	"fmt"
	"net/smtp"
	"os"
	"strconv"
)

// Sender delivers a message to a single recipient.
type Sender interface {
	Send(to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Login    string
	Password string
	From     string
}

// ConfigFromEnv reads SMTP config from environment variables.
func ConfigFromEnv() Config {
	port := 465
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			port = n
		}
	}
	return Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Login:    os.Getenv("SMTP_LOGIN"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// SMTPSender sends mail with net/smtp and PLAIN auth.
type SMTPSender struct {
	cfg  Config
	auth smtp.Auth
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.Login, cfg.Password, cfg.Host),
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.From, to, subject, body)
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	return smtp.SendMail(addr, s.auth, s.cfg.From, []string{to}, []byte(msg))
}
