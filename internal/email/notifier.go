// Package email renders and delivers the verification and password reset messages.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Message kinds, used for logging and metrics
const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

// ErrClosed is returned by a Dispatcher after Close
var ErrClosed = errors.New("email dispatcher is closed")

// Notifier delivers account emails carrying a single-use token
type Notifier interface {
	SendVerification(ctx context.Context, to, nickname, token string) error
	SendPasswordReset(ctx context.Context, to, nickname, token string) error
}

// Message is a rendered email
type Message struct {
	Kind    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender transports a rendered message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders messages from templates and hands them to a Sender
type Mailer struct {
	sender  Sender
	baseURL string
}

// NewMailer creates a mailer. Links in messages point at baseURL.
func NewMailer(sender Sender, baseURL string) *Mailer {
	return &Mailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// SendVerification sends the email verification link
func (m *Mailer) SendVerification(ctx context.Context, to, nickname, token string) error {
	msg, err := render(verificationTemplate, to, templateData{
		Nickname: nickname,
		Link:     m.link("/verify-email", token),
		Token:    token,
	})
	if err != nil {
		return err
	}
	msg.Kind = KindVerification
	return m.sender.Send(ctx, msg)
}

// SendPasswordReset sends the password reset link
func (m *Mailer) SendPasswordReset(ctx context.Context, to, nickname, token string) error {
	msg, err := render(passwordResetTemplate, to, templateData{
		Nickname: nickname,
		Link:     m.link("/reset-password", token),
		Token:    token,
	})
	if err != nil {
		return err
	}
	msg.Kind = KindPasswordReset
	return m.sender.Send(ctx, msg)
}

func (m *Mailer) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", m.baseURL, path, url.QueryEscape(token))
}
