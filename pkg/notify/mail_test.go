package notify

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNotifyWithoutTransport(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m := NewMailer(Config{From: "a@b.c", To: "ops@b.c"}, logger)
	if m.mailjet != nil || m.dialer != nil {
		t.Fatal("transport configured without credentials")
	}
	if err := m.Notify(context.Background(), "subject", "body"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}

func TestTransportSelection(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m := NewMailer(Config{MailjetAPIKey: "k", MailjetSecretKey: "s", SMTPHost: "smtp.local"}, logger)
	if m.mailjet == nil || m.dialer != nil {
		t.Fatal("mailjet should win over smtp")
	}
	m = NewMailer(Config{SMTPHost: "smtp.local", SMTPPort: 587}, logger)
	if m.dialer == nil {
		t.Fatal("smtp fallback not configured")
	}
}

func TestRenderHTMLEscapes(t *testing.T) {
	out := renderHTML("Withdrawal #1 <pending>", "to <script>")
	if strings.Contains(out, "<script>") || !strings.Contains(out, "&lt;pending&gt;") {
		t.Fatalf("html not escaped: %s", out)
	}
}
