// Package mail delivers transactional email. Delivery itself happens
// outside the process: senders hand a Message to a transport.
package mail

import (
	"context"

	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

const (
	KindWelcome       = "welcome"
	KindPasswordReset = "password_reset"

	WelcomeSubject       = "Welcome to the Tourbook Family!"
	PasswordResetSubject = "Your password reset token (valid for only 10 minutes)"
)

// Message is one email job.
type Message struct {
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	URL     string `json:"url"`
}

type Sender interface {
	SendWelcome(ctx context.Context, u *models.User, url string) error
	SendPasswordReset(ctx context.Context, u *models.User, url string) error
}

// FirstName is the greeting name used in templates.
func FirstName(name string) string {
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}

func newMessage(kind, subject string, u *models.User, url string) Message {
	return Message{Kind: kind, To: u.Email, Name: FirstName(u.Name), Subject: subject, URL: url}
}
