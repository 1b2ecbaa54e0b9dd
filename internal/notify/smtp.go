package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"yelpcamp/internal/domain"
)

const implicitTLSPort = 465

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds the dial and every command exchanged with the relay.
	Timeout time.Duration
	// TLS overrides the client TLS settings. Tests use it to trust a local relay.
	TLS *tls.Config
}

// SMTPNotifier composes MIME mail and hands it to an SMTP relay.
type SMTPNotifier struct {
	cfg SMTPConfig
	now func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPNotifier{cfg: cfg, now: time.Now}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	from, err := mail.ParseAddress(n.cfg.From)
	if err != nil {
		return fmt.Errorf("parse from address: %w", err)
	}
	raw, err := n.compose(from, msg)
	if err != nil {
		return fmt.Errorf("compose mail: %w", err)
	}

	if err := n.deliver(ctx, from.Address, msg.To, raw); err != nil {
		return fmt.Errorf("send mail to %s: %w: %w", msg.To, domain.ErrUpstream, err)
	}
	return nil
}

func (n *SMTPNotifier) deliver(ctx context.Context, from, to string, raw []byte) error {
	conn, err := n.dial(ctx)
	if err != nil {
		return err
	}
	// Closing the connection is what unblocks the client once ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c := smtp.NewClient(conn)
	defer c.Close()
	c.CommandTimeout = n.cfg.Timeout
	c.SubmissionTimeout = n.cfg.Timeout

	if n.cfg.Port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(n.tlsConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if n.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.SendMail(from, []string{to}, bytes.NewReader(raw)); err != nil {
		return err
	}
	// the relay has accepted the message; a failed QUIT does not undo that
	_ = c.Quit()
	return nil
}

func (n *SMTPNotifier) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	dialer := &net.Dialer{Timeout: n.cfg.Timeout}
	if n.cfg.Port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: n.tlsConfig()}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (n *SMTPNotifier) tlsConfig() *tls.Config {
	if n.cfg.TLS != nil {
		return n.cfg.TLS.Clone()
	}
	return &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}
}

func (n *SMTPNotifier) compose(from *mail.Address, msg Message) ([]byte, error) {
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parse to address: %w", err)
	}

	var h mail.Header
	h.SetDate(n.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ Notifier = (*SMTPNotifier)(nil)
