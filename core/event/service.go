package event

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
)

var ErrNotFound = errors.New("event not found")

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		QueryEvents(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Event, error)
		GetEvent(ctx context.Context, id int, exec ...core.DBExecutor) (Event, error)
		UpdateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		DeleteEvent(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	// CourseDirectory resolves which courses a principal is related to; the
	// course repository satisfies it.
	CourseDirectory interface {
		CourseIDsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]int, error)
		CourseIDsByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]int, error)
	}

	Service interface {
		Create(ctx context.Context, principal access.Principal, ne NewEvent) (Event, error)
		Update(ctx context.Context, principal access.Principal, id int, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, principal access.Principal, id int) error
		Get(ctx context.Context, principal access.Principal, id int) (Event, error)
		VisibleTo(ctx context.Context, principal access.Principal, filter *QueryFilter) ([]Event, error)
		Calendar(ctx context.Context, principal access.Principal, filter *QueryFilter) ([]CalendarEntry, error)
	}

	service struct {
		repo    Repository
		courses CourseDirectory
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courses CourseDirectory) Service {
	return &service{repo: repo, courses: courses}
}

// Create adds an event. Students may not create events; teachers may only
// attach events to courses they teach, and only admins create global events.
func (svc *service) Create(ctx context.Context, principal access.Principal, ne NewEvent) (Event, error) {
	if principal.IsStudent() {
		return Event{}, core.NewPermissionError("students cannot create events")
	}
	if !principal.IsAdmin() {
		if ne.CourseID == nil {
			return Event{}, core.NewPermissionError("only admins can create school-wide events")
		}
		taught, err := svc.courses.CourseIDsByTeacher(ctx, principal.ID)
		if err != nil {
			return Event{}, err
		}
		if !containsID(taught, *ne.CourseID) {
			return Event{}, core.NewPermissionError("course belongs to another teacher")
		}
	}

	now := time.Now().UTC()
	return svc.repo.CreateEvent(ctx, Event{
		Title:       ne.Title,
		Description: ne.Description,
		Start:       ne.Start,
		End:         ne.End,
		Type:        ne.Type,
		CourseID:    ne.CourseID,
		CreatedBy:   principal.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) Update(ctx context.Context, principal access.Principal, id int, ue UpdateEvent) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !access.CanEditEvent(principal, evt) {
		return Event{}, core.NewPermissionError("event belongs to another user")
	}

	evt.Title = ue.Title
	evt.Description = ue.Description
	evt.Start = ue.Start
	evt.End = ue.End
	evt.Type = ue.Type
	evt.CourseID = ue.CourseID
	evt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *service) Delete(ctx context.Context, principal access.Principal, id int) error {
	evt, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanEditEvent(principal, evt) {
		return core.NewPermissionError("event belongs to another user")
	}
	return svc.repo.DeleteEvent(ctx, evt.ID)
}

func (svc *service) Get(ctx context.Context, principal access.Principal, id int) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	courseIDs, err := svc.relatedCourseIDs(ctx, principal)
	if err != nil {
		return Event{}, err
	}
	if !access.CanViewEvent(principal, evt, courseIDs) {
		return Event{}, ErrNotFound
	}
	return evt, nil
}

// VisibleTo returns the events the principal may see: every global event,
// plus course events for the courses the principal teaches or is enrolled in.
func (svc *service) VisibleTo(ctx context.Context, principal access.Principal, filter *QueryFilter) ([]Event, error) {
	events, err := svc.repo.QueryEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if principal.IsAdmin() {
		return events, nil
	}

	courseIDs, err := svc.relatedCourseIDs(ctx, principal)
	if err != nil {
		return nil, err
	}
	visible := make([]Event, 0, len(events))
	for _, evt := range events {
		if access.CanViewEvent(principal, evt, courseIDs) {
			visible = append(visible, evt)
		}
	}
	return visible, nil
}

func (svc *service) Calendar(ctx context.Context, principal access.Principal, filter *QueryFilter) ([]CalendarEntry, error) {
	events, err := svc.VisibleTo(ctx, principal, filter)
	if err != nil {
		return nil, err
	}
	entries := make([]CalendarEntry, len(events))
	for i, evt := range events {
		entries[i] = evt.CalendarEntry()
	}
	return entries, nil
}

func (svc *service) relatedCourseIDs(ctx context.Context, principal access.Principal) ([]int, error) {
	switch {
	case principal.IsTeacher():
		return svc.courses.CourseIDsByTeacher(ctx, principal.ID)
	case principal.IsStudent():
		return svc.courses.CourseIDsByStudent(ctx, principal.ID)
	}
	return nil, nil
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
