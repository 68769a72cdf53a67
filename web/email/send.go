package email

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
)

func SendEmail(to string, subject string, body string) error {
	cfg, err := loadSMTPConfig()
	if err != nil {
		return err
	}

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"%s",
		cfg.fromName, cfg.fromAddr, to, subject, body))

	return send(cfg, to, msg)
}

// SendEmailWithAttachment sends a plain-text body plus one binary
// attachment as a multipart/mixed message.
func SendEmailWithAttachment(to, subject, body, filename string, attachment []byte) error {
	cfg, err := loadSMTPConfig()
	if err != nil {
		return err
	}

	const boundary = "license-portal-attachment"

	encoded := base64.StdEncoding.EncodeToString(attachment)
	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: multipart/mixed; boundary=%s\r\n\r\n"+
		"--%s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"%s\r\n"+
		"--%s\r\n"+
		"Content-Type: application/octet-stream\r\n"+
		"Content-Transfer-Encoding: base64\r\n"+
		"Content-Disposition: attachment; filename=\"%s\"\r\n\r\n"+
		"%s\r\n"+
		"--%s--\r\n",
		cfg.fromName, cfg.fromAddr, to, subject, boundary,
		boundary, body,
		boundary, filename, encoded,
		boundary))

	return send(cfg, to, msg)
}

type smtpConfig struct {
	server   string
	port     string
	user     string
	pass     string
	fromAddr string
	fromName string
}

func loadSMTPConfig() (smtpConfig, error) {
	cfg := smtpConfig{
		server:   os.Getenv("SMTP_SERVER"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		pass:     os.Getenv("SMTP_PASS"),
		fromAddr: os.Getenv("FROM_ADDR"),
		fromName: os.Getenv("FROM_NAME"),
	}
	if cfg.server == "" || cfg.port == "" || cfg.user == "" || cfg.pass == "" || cfg.fromAddr == "" || cfg.fromName == "" {
		return cfg, fmt.Errorf(
			"missing required SMTP environment variables: SMTP_SERVER=%s, SMTP_PORT=%s, SMTP_USER=%s, SMTP_PASS=%s, FROM_ADDR=%s, FROM_NAME=%s",
			cfg.server, cfg.port, cfg.user, cfg.pass, cfg.fromAddr, cfg.fromName)
	}
	return cfg, nil
}

func send(cfg smtpConfig, to string, msg []byte) error {
	auth := smtp.PlainAuth("", cfg.user, cfg.pass, cfg.server)
	if err := smtp.SendMail(cfg.server+":"+cfg.port, auth, cfg.fromAddr, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
