package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

// EmailSender sends one transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one email. At least one of BodyText and BodyHTML is required.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyText string `json:"body_text,omitempty"`
	BodyHTML string `json:"body_html,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// Validate checks the recipient, subject and body.
func (p SendEmailParams) Validate() error {
	if !validAddress(p.SendTo) {
		return fmt.Errorf("%w: send_to must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.BodyText) == "" && strings.TrimSpace(p.BodyHTML) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidParams)
	}
	return nil
}

// validAddress accepts a bare address only, not "Name <addr>".
func validAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && addr.Name == ""
}
