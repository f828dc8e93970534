package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
)

const eventColumns = "id, title, description, start_at, end_at, event_type, course_id, created_by, created_at, updated_at"

type eventRepository struct {
	exec core.DBExecutor
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(exec core.DBExecutor) *eventRepository {
	return &eventRepository{exec: exec}
}

func (repo eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	q := `
	INSERT INTO event (title, description, start_at, end_at, event_type, course_id, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`
	err := getExec(repo.exec, exec).QueryRowContext(
		ctx, q,
		evt.Title, evt.Description, evt.Start.UTC(), evt.End.UTC(), evt.Type,
		evt.CourseID, evt.CreatedBy, evt.CreatedAt.UTC(), evt.UpdatedAt.UTC(),
	).Scan(&evt.ID)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter *event.QueryFilter, exec ...core.DBExecutor) ([]event.Event, error) {
	qb := new(queryBuilder)
	if filter != nil {
		if filter.From != nil {
			qb.where("end_at >= " + qb.arg(filter.From.UTC()))
		}
		if filter.To != nil {
			qb.where("start_at <= " + qb.arg(filter.To.UTC()))
		}
	}

	q := "SELECT " + eventColumns + " FROM event" + qb.clause() + " ORDER BY start_at, id"
	var events []event.Event
	if err := getExec(repo.exec, exec).SelectContext(ctx, &events, q, qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events, nil
}

func (repo eventRepository) GetEvent(ctx context.Context, id int, exec ...core.DBExecutor) (event.Event, error) {
	var evt event.Event
	q := "SELECT " + eventColumns + " FROM event WHERE id = $1"
	if err := getExec(repo.exec, exec).GetContext(ctx, &evt, q, id); err != nil {
		if err == sql.ErrNoRows {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, errors.Wrap(err, "finding event")
	}
	return evt, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	q := `
	UPDATE event
	SET title = $1, description = $2, start_at = $3, end_at = $4, event_type = $5, course_id = $6, updated_at = $7
	WHERE id = $8
	RETURNING ` + eventColumns
	var updated event.Event
	err := getExec(repo.exec, exec).GetContext(
		ctx, &updated, q,
		evt.Title, evt.Description, evt.Start.UTC(), evt.End.UTC(), evt.Type,
		evt.CourseID, evt.UpdatedAt.UTC(), evt.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	return updated, nil
}

func (repo eventRepository) DeleteEvent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, "DELETE FROM event WHERE id = $1", id)
	return errors.Wrap(err, "deleting event")
}
