package event

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
)

// Event types. Stored in English; presentation layers may translate.
const (
	TypeClass   = "class"
	TypeExam    = "exam"
	TypeHoliday = "holiday"
	TypeGeneral = "general"
)

var AllTypes = []string{TypeClass, TypeExam, TypeHoliday, TypeGeneral}

type (
	Event struct {
		ID          int       `db:"id" json:"id"`
		Title       string    `db:"title" json:"title"`
		Description string    `db:"description" json:"description"`
		Start       time.Time `db:"start_at" json:"start"`
		End         time.Time `db:"end_at" json:"end"`
		Type        string    `db:"event_type" json:"type"`
		CourseID    *int      `db:"course_id" json:"course_id"`
		CreatedBy   int       `db:"created_by" json:"created_by"`
		CreatedAt   time.Time `db:"created_at" json:"created_at"`
		UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	}

	NewEvent struct {
		Title       string    `json:"title" validate:"required"`
		Description string    `json:"description"`
		Start       time.Time `json:"start" validate:"required"`
		End         time.Time `json:"end" validate:"required,gtefield=Start"`
		Type        string    `json:"type" validate:"required,event_type"`
		CourseID    *int      `json:"course_id"`
	}

	UpdateEvent struct {
		Title       string    `json:"title" validate:"required"`
		Description string    `json:"description"`
		Start       time.Time `json:"start" validate:"required"`
		End         time.Time `json:"end" validate:"required,gtefield=Start"`
		Type        string    `json:"type" validate:"required,event_type"`
		CourseID    *int      `json:"course_id"`
	}

	// CalendarEntry is the wire shape consumed by calendar widgets.
	CalendarEntry struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		Start       string `json:"start"`
		End         string `json:"end"`
		Description string `json:"description"`
		Type        string `json:"type"`
		ClassName   string `json:"className"`
	}

	QueryFilter struct {
		From *time.Time `query:"from"`
		To   *time.Time `query:"to"`
	}
)

// CourseScope and CreatorID satisfy the access policy's event shape.
func (e Event) CourseScope() *int { return e.CourseID }
func (e Event) CreatorID() int    { return e.CreatedBy }

// CalendarEntry renders the event for the calendar API; times are RFC 3339
// and ClassName carries the CSS hook "event-type-<type>".
func (e Event) CalendarEntry() CalendarEntry {
	return CalendarEntry{
		ID:          e.ID,
		Title:       e.Title,
		Start:       e.Start.Format(time.RFC3339),
		End:         e.End.Format(time.RFC3339),
		Description: e.Description,
		Type:        e.Type,
		ClassName:   "event-type-" + e.Type,
	}
}

func (ne NewEvent) Validate(ctx context.Context, validate *validator.Validate) error {
	return validate.StructCtx(ctx, ne)
}

func (ue UpdateEvent) Validate(ctx context.Context, validate *validator.Validate) error {
	return validate.StructCtx(ctx, ue)
}
