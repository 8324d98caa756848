package model

import "strings"

// Patient holds the contact data the notification layer needs.
type Patient struct {
	Base
	FirstName      string  `db:"first_name" json:"first_name"`
	LastName       string  `db:"last_name" json:"last_name"`
	DocumentNumber string  `db:"document_number" json:"document_number"`
	Phone          string  `db:"phone" json:"phone,omitempty"`
	WhatsApp       string  `db:"whatsapp" json:"whatsapp,omitempty"`
	Email          string  `db:"email" json:"email,omitempty"`
	EPSName        *string `db:"eps_name" json:"eps_name,omitempty"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// WhatsAppNumber resolves the number reminders go to, falling back to the
// plain phone when no dedicated WhatsApp number is on file. Empty means the
// patient is unreachable on this channel.
func (p *Patient) WhatsAppNumber() string {
	if p.WhatsApp != "" {
		return p.WhatsApp
	}
	return p.Phone
}
