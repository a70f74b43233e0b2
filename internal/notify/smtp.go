package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/aryankodi12/AmazonWebScraper/internal/config"
	"github.com/aryankodi12/AmazonWebScraper/internal/event"
)

var _ interface {
	SendPriceDropAlert(ctx context.Context, ev event.PriceDroppedEvent) error
} = (*SMTPMailer)(nil)

// SMTPMailer sends price drop alert emails over SMTP.
type SMTPMailer struct {
	cfg       config.SMTP
	recipient string
}

func NewSMTPMailer(cfg config.SMTP, recipient string) *SMTPMailer {
	return &SMTPMailer{
		cfg:       cfg,
		recipient: recipient,
	}
}

func (m *SMTPMailer) SendPriceDropAlert(_ context.Context, ev event.PriceDroppedEvent) error {
	subject := fmt.Sprintf("Price drop: %s", ev.Title)
	body := fmt.Sprintf(
		"The price of %s has dropped to %.2f (target %.2f).\r\n\r\nProduct ref: %s\r\n",
		ev.Title, ev.CurrentPrice, ev.TargetPrice, ev.ProductRef,
	)

	raw := m.buildRaw(subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	// Implicit TLS for port 465, STARTTLS otherwise.
	if m.cfg.Port == 465 {
		if err := m.sendTLS(addr, auth, raw); err != nil {
			return fmt.Errorf("send mail over tls: %w", err)
		}
		return nil
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{m.recipient}, raw); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(m.recipient); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = w.Write(raw)
	return err
}

func (m *SMTPMailer) buildRaw(subject, body string) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From))
	b.WriteString("To: " + m.recipient + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
