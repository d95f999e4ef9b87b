package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Barrelito/sam-a-sub001/Config"
	"github.com/pkg/errors"
)

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Server       string
	Port         int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TLSEnabled   bool
	SkipTLSCheck bool
}

// Message represents an email to be sent
type Message struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	IsHTML  bool
}

// Sender delivers messages. Reminder jobs depend on this rather than on SMTP.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends mail through an SMTP server
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// FromConfig builds the SMTP settings from the application config.
func FromConfig(cfg Config.Config) SMTPConfig {
	return SMTPConfig{
		Server:     cfg.SMTPServer,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		FromEmail:  cfg.SMTPFromEmail,
		FromName:   cfg.SMTPFromName,
		TLSEnabled: cfg.SMTPTLS,
	}
}

// Build renders headers and body as they go over the wire.
func Build(cfg SMTPConfig, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.IsHTML {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// Send delivers msg. The context only guards against starting a send after
// cancellation; net/smtp itself is not context aware.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return errors.New("email has no recipients")
	}

	cfg := s.cfg
	body := Build(cfg, msg)
	recipients := append(append([]string{}, msg.To...), msg.CC...)
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Server)
	}

	if !cfg.TLSEnabled {
		return errors.Wrap(smtp.SendMail(serverAddr, auth, cfg.FromEmail, recipients, body), "send mail")
	}

	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{
		ServerName:         cfg.Server,
		InsecureSkipVerify: cfg.SkipTLSCheck,
	})
	if err != nil {
		return errors.Wrap(err, "failed to connect to SMTP server")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, cfg.Server)
	if err != nil {
		return errors.Wrap(err, "failed to create SMTP client")
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "SMTP authentication failed")
		}
	}
	if err := client.Mail(cfg.FromEmail); err != nil {
		return errors.Wrap(err, "failed to set sender")
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "failed to add recipient %s", rcpt)
		}
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "failed to open data connection")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "failed to write email body")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to close data connection")
	}
	return client.Quit()
}
