package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const welcomeSubject = "Welcome to Travel Planner"

func welcomeBody(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "traveler"
	}
	return fmt.Sprintf(
		"Hi %s,\n\nYour account is ready. Sign in to browse places and ask the planner for an itinerary.\n",
		name,
	)
}

// SMTPSender entrega el correo de bienvenida por SMTP. Con useTLS abre TLS implicito
// (465); si no, usa STARTTLS cuando el servidor lo anuncia.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     mail.Address
	useTLS   bool
	timeout  time.Duration
	now      func() time.Time
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     mail.Address{Name: strings.TrimSpace(fromName), Address: strings.TrimSpace(from)},
		useTLS:   useTLS,
		timeout:  15 * time.Second,
		now:      time.Now,
	}, nil
}

func (s *SMTPSender) SendWelcome(ctx context.Context, toEmail, name string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("to email is required")
	}
	msg := welcomeMessage(s.from, toEmail, name, s.now())
	if err := s.deliver(ctx, toEmail, msg); err != nil {
		return fmt.Errorf("send welcome to %s: %w", toEmail, err)
	}
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, toEmail string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if !s.useTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if s.username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := client.Mail(s.from.Address); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	if s.useTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: s.host}}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// welcomeMessage arma el mensaje RFC 5322; el nombre del remitente se codifica si no es ASCII.
func welcomeMessage(from mail.Address, to, name string, now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", (&mail.Address{Address: to}).String())
	fmt.Fprintf(&b, "Subject: %s\r\n", welcomeSubject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(welcomeBody(name), "\n", "\r\n"))
	return b.Bytes()
}
