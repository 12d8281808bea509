package models

import "time"

// ContactMessage is a contact form submission.
type ContactMessage struct {
	ID        int64      `json:"id,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	Message   string     `json:"message"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
