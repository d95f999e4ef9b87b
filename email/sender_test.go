package email

import (
	"context"
	"strings"
	"testing"

	"github.com/Barrelito/sam-a-sub001/Config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	cfg := SMTPConfig{FromEmail: "noreply@example.org", FromName: "Annual cycle"}
	raw := string(Build(cfg, Message{
		To:      []string{"a@example.org", "b@example.org"},
		CC:      []string{"c@example.org"},
		Subject: "Reminder",
		Body:    "Two items open",
	}))

	headers, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, "Two items open", body)
	assert.Contains(t, headers, "From: Annual cycle <noreply@example.org>")
	assert.Contains(t, headers, "To: a@example.org, b@example.org")
	assert.Contains(t, headers, "Cc: c@example.org")
	assert.Contains(t, headers, "Subject: Reminder")
	assert.Contains(t, headers, "text/plain")
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(Config.Config{SMTPServer: "smtp.example.org", SMTPPort: 465, SMTPTLS: true, SMTPFromEmail: "x@example.org"})
	assert.Equal(t, "smtp.example.org", cfg.Server)
	assert.Equal(t, 465, cfg.Port)
	assert.True(t, cfg.TLSEnabled)
}

func TestSendRejectsEmptyRecipients(t *testing.T) {
	err := NewSMTPSender(SMTPConfig{Server: "localhost", Port: 25}).Send(context.Background(), Message{Subject: "x"})
	assert.Error(t, err)
}

func TestSendHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSMTPSender(SMTPConfig{Server: "localhost", Port: 25}).Send(ctx, Message{To: []string{"a@example.org"}})
	assert.ErrorIs(t, err, context.Canceled)
}
