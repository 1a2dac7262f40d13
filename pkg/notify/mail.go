// Package notify delivers operator notifications by e-mail.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Config struct {
	From             string
	To               string
	MailjetAPIKey    string
	MailjetSecretKey string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
}

// Mailer sends through Mailjet when API keys are configured and falls back to SMTP otherwise.
// With neither configured notifications are only logged.
type Mailer struct {
	cfg     Config
	mailjet *mailjet.Client
	dialer  *gomail.Dialer
	log     *logrus.Entry
}

func NewMailer(cfg Config, logger *logrus.Logger) *Mailer {
	m := &Mailer{
		cfg: cfg,
		log: logger.WithField("component", "notify"),
	}
	if cfg.MailjetAPIKey != "" && cfg.MailjetSecretKey != "" {
		m.mailjet = mailjet.NewMailjetClient(cfg.MailjetAPIKey, cfg.MailjetSecretKey)
	} else if cfg.SMTPHost != "" {
		m.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return m
}

func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	entry := m.log.WithField("subject", subject)
	switch {
	case m.mailjet != nil:
		if err := m.sendMailjet(subject, body); err != nil {
			entry.WithError(err).Error("mailjet delivery failed")
			return err
		}
	case m.dialer != nil:
		if err := m.sendSMTP(subject, body); err != nil {
			entry.WithError(err).Error("smtp delivery failed")
			return err
		}
	default:
		entry.Warn("no mail transport configured, notification dropped")
		return nil
	}
	entry.Info("notification sent")
	return nil
}

func (m *Mailer) sendMailjet(subject, body string) error {
	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{
		{
			From: &mailjet.RecipientV31{
				Email: m.cfg.From,
				Name:  "TON PvP payouts",
			},
			To: &mailjet.RecipientsV31{
				{Email: m.cfg.To},
			},
			Subject:  subject,
			TextPart: body,
			HTMLPart: renderHTML(subject, body),
		},
	}}
	_, err := m.mailjet.SendMailV31(messages)
	return errors.Wrap(err, "mailjet send")
}

func (m *Mailer) sendSMTP(subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.AddAlternative("text/html", renderHTML(subject, body))
	return errors.Wrap(m.dialer.DialAndSend(msg), "smtp send")
}

func renderHTML(subject, body string) string {
	return fmt.Sprintf(`<body style="margin:0;padding:0;background:#f6f6f6;">
  <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;background:#f3f2f0;border-radius:28px;">
    <tr>
      <td style="padding:32px;text-align:left;">
        <h1 style="margin:0 0 12px 0;font-family:Arial,sans-serif;font-size:24px;color:#111;">%s</h1>
        <pre style="font-family:Menlo,monospace;font-size:14px;color:#222;white-space:pre-wrap;">%s</pre>
      </td>
    </tr>
  </table>
</body>`, html.EscapeString(subject), html.EscapeString(body))
}
