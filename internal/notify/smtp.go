package notify

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/platform/config"
	"github.com/notorious-utopia/egrn/internal/user"
	"github.com/notorious-utopia/egrn/pkg/email"
)

// sendFunc matches smtp.SendMail; injected so unit tests can capture the
// outgoing message without a relay.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers notifications through a configured mail relay.
// STARTTLS negotiation is handled by net/smtp when the server offers it.
type SMTPNotifier struct {
	cfg  config.Mail
	send sendFunc
}

// NewSMTP constructs a relay-backed notifier.
func NewSMTP(cfg config.Mail) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) Notify(ctx context.Context, u *user.User, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !email.Valid(u.Email) {
		return fmt.Errorf("recipient address %q is not deliverable", u.Email)
	}

	msg := composeMessage(n.cfg.Sender, u.Email, Subject, Body(order))

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := n.send(addr, auth, n.cfg.Sender, []string{u.Email}, msg); err != nil {
		return fmt.Errorf("send notification to %s: %w", u.Email, err)
	}
	return nil
}

// composeMessage builds an RFC 5322 message with the subject Q-encoded so the
// Cyrillic subject line survives 7-bit transports. The To header carries a
// display name derived from the address since profiles store no real name.
func composeMessage(from, to, subject, body string) []byte {
	first, last := email.DeriveNameFromEmail(to)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s %s <%s>\r\n", first, last, to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
