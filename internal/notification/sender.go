package notification

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type Message struct {
	To      []string
	Subject string
	Body    string
}

type Sender interface {
	Send(msg Message) error
}

// SMTPSender delivers plain-text mail through one SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, password), from: from}
}

func (s *SMTPSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain; charset=UTF-8", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("notification: failed to send mail: %w", err)
	}
	return nil
}
