package notification

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Types
const (
	TypeInfo    = "info"
	TypeWarning = "warning"
)

type Notification struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// NewNotification is an announcement targeting a single user.
type NewNotification struct {
	UserID  int    `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
	Type    string `json:"type" validate:"omitempty,oneof=info warning"`
}

func (nn NewNotification) Validate(validate *validator.Validate) error { return validate.Struct(nn) }
