package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

const (
	smtpPort         = 25
	smtpSSLPort      = 465
	smtpSTARTTLSPort = 587
	smtpDialTimeout  = 30 * time.Second
)

// SMTPSender delivers notifications as HTML email through an SMTP relay.
type SMTPSender struct {
	cfg  shared.SMTPConfig
	from *mail.Address
	// dial is replaced in tests.
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewSMTPSender validates from and creates an [SMTPSender].
func NewSMTPSender(cfg shared.SMTPConfig, from string) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host cannot be empty", shared.ErrInvalidConfig)
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("%w: notify.from %q: %v", shared.ErrInvalidConfig, from, err)
	}
	d := &net.Dialer{Timeout: smtpDialTimeout}
	return &SMTPSender{cfg: cfg, from: addr, dial: d.DialContext}, nil
}

func (s *SMTPSender) port() int {
	switch {
	case s.cfg.Port > 0:
		return s.cfg.Port
	case s.cfg.UseSSL:
		return smtpSSLPort
	case s.cfg.UseTLS:
		return smtpSTARTTLSPort
	default:
		return smtpPort
	}
}

// Send renders kind and delivers it to to.Email in a single SMTP session.
func (s *SMTPSender) Send(ctx context.Context, to models.Contact, kind TemplateKind, data TemplateData) error {
	if err := models.ValidateEmail(to.Email); err != nil {
		return err
	}
	msg, err := Render(kind, to, data)
	if err != nil {
		return err
	}

	client, closeFn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if s.cfg.Username != "" && s.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}
	if err := client.Mail(s.from.Address); err != nil {
		return fmt.Errorf("MAIL FROM command failed: %w", err)
	}
	if err := client.Rcpt(to.Email); err != nil {
		return fmt.Errorf("%w: RCPT TO %s: %v", shared.ErrInvalidContact, to.Email, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := w.Write(s.build(to, msg)); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message body: %w", err)
	}
	return client.Quit()
}

// connect dials the relay with implicit TLS, STARTTLS or plain text depending on config.
func (s *SMTPSender) connect(ctx context.Context) (*smtp.Client, func(), error) {
	address := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.port()))
	conn, err := s.dial(ctx, "tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial smtp server %s: %w", address, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{ServerName: s.cfg.Host}
	if s.cfg.UseSSL {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("ssl handshake failed: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	if s.cfg.UseTLS && !s.cfg.UseSSL {
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("starttls upgrade failed: %w", err)
		}
	}
	return client, func() { _ = client.Close() }, nil
}

// build assembles an RFC 5322 message with a single text/html part.
func (s *SMTPSender) build(to models.Contact, msg Message) []byte {
	rcpt := mail.Address{Name: to.Name, Address: to.Email}
	headers := [][2]string{
		{"From", s.from.String()},
		{"To", rcpt.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"Message-ID", "<" + shared.GenerateID() + "@" + s.cfg.Host + ">"},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
		{"Content-Transfer-Encoding", "8bit"},
	}

	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.HTML, "\n", "\r\n"))
	return []byte(b.String())
}
