// Package notify delivers operator emails about run outcomes. Delivery is
// best-effort: every failure is logged and swallowed so a broken mail
// setup can never abort the workflow itself.
package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/gacops/gacrefill/internal/config"
)

// Kind classifies a notification event. Each kind has its own enable flag
// in the email_alerts config section.
type Kind string

const (
	KindInfo         Kind = "info"
	KindSuccess      Kind = "success"
	KindError        Kind = "error"
	KindTokenRefresh Kind = "token_refresh"
)

const sendTimeout = 30 * time.Second

// Mailer sends plain-text notification emails over SMTP.
type Mailer struct {
	alerts     config.EmailAlerts
	language   string
	configPath string
	log        *slog.Logger

	// deliver is swapped out in tests.
	deliver func(m *Mailer, subject, body string) error
}

// NewMailer builds a Mailer from the email_alerts config section.
// language selects the subject prefix locale; configPath is echoed in the
// mail footer so the operator knows which installation spoke.
func NewMailer(alerts config.EmailAlerts, language, configPath string, log *slog.Logger) *Mailer {
	return &Mailer{
		alerts:     alerts,
		language:   language,
		configPath: configPath,
		log:        log,
		deliver:    smtpDeliver,
	}
}

// subjectPrefix is localized by the configured ticket language.
func (m *Mailer) subjectPrefix() string {
	if m.language == "zh" {
		return "[GAC积分重置工具]"
	}
	return "[GAC Credit Reset]"
}

// enabled applies the master flag plus the per-kind sub-flags. info events
// only need the master flag.
func (m *Mailer) enabled(kind Kind) bool {
	if !m.alerts.Enabled {
		return false
	}
	switch kind {
	case KindSuccess:
		return m.alerts.OnSuccess
	case KindError:
		return m.alerts.NotifyOnFailure()
	case KindTokenRefresh:
		return m.alerts.NotifyOnTokenRefresh()
	default:
		return true
	}
}

// missingFields returns the required SMTP settings that are unset.
func (m *Mailer) missingFields() []string {
	var missing []string
	for name, v := range map[string]string{
		"smtp_server":   m.alerts.SMTPServer,
		"smtp_user":     m.alerts.SMTPUser,
		"smtp_password": m.alerts.SMTPPassword,
		"from_email":    m.alerts.FromEmail,
		"to_email":      m.alerts.ToEmail,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Notify sends one email for the given event, subject to the configured
// gating. It never returns an error.
func (m *Mailer) Notify(kind Kind, subject, body string) {
	if !m.enabled(kind) {
		return
	}

	if missing := m.missingFields(); len(missing) > 0 {
		m.log.Warn("email configuration incomplete, not sending",
			"missing", strings.Join(missing, ", "))
		return
	}

	m.log.Info("sending email", "kind", string(kind), "subject", subject)

	full := fmt.Sprintf("Credit reset notification\n\nTime: %s\nKind: %s\n\n%s\n\n---\nSent automatically by gacrefill\nConfig file: %s\n",
		time.Now().Format(time.DateTime), kind, body, m.configPath)

	if err := m.deliver(m, m.subjectPrefix()+" "+subject, full); err != nil {
		m.log.Error("failed to send email", "error", err)
		return
	}
	m.log.Info("email sent", "subject", subject)
}

// smtpDeliver performs the actual SMTP handshake. Port 465 means implicit
// TLS; everything else upgrades with STARTTLS.
func smtpDeliver(m *Mailer, subject, body string) error {
	port := m.alerts.SMTPPort
	if port == 0 {
		port = 587
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.alerts.SMTPUser),
		mail.WithPassword(m.alerts.SMTPPassword),
		mail.WithTimeout(sendTimeout),
	}
	if port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(m.alerts.SMTPServer, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.alerts.FromEmail); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.alerts.ToEmail); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return client.DialAndSend(msg)
}
