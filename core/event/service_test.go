package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
	inmemdb "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database/inmem"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/tests"
)

type fixture struct {
	svc     event.Service
	evtRepo event.Repository
	crsRepo course.Repository
	usrRepo user.Repository

	admin   user.User
	teacher user.User
	other   user.User
	student user.User
	crs     course.Course
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.Open()
	evtRepo := inmemdb.NewEventRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)

	f := fixture{
		svc:     event.NewService(evtRepo, crsRepo),
		evtRepo: evtRepo,
		crsRepo: crsRepo,
		usrRepo: usrRepo,
	}
	f.admin = testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "pwd", access.RoleAdmin, true)
	f.teacher = testutil.CreateUser(t, usrRepo, "Teacher", "teach", "teach@test.cd", "pwd", access.RoleTeacher, true)
	f.other = testutil.CreateUser(t, usrRepo, "Other", "other", "other@test.cd", "pwd", access.RoleTeacher, true)
	f.student = testutil.CreateUser(t, usrRepo, "Student", "stud", "stud@test.cd", "pwd", access.RoleStudent, true)
	f.crs = testutil.CreateCourse(t, crsRepo, "Mathematics", f.teacher.ID)
	testutil.CreateEnrollment(t, crsRepo, f.student.ID, f.crs.ID, nil, nil)
	return f
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(2 * time.Hour)

	t.Run("student is refused", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.student.Principal(), event.NewEvent{
			Title: "Party", Type: event.TypeGeneral, Start: start, End: end,
		})
		var permErr *core.PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Create() error = %v, want a permission error", err)
		}
	})

	t.Run("teacher cannot create school-wide events", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.teacher.Principal(), event.NewEvent{
			Title: "Holiday", Type: event.TypeHoliday, Start: start, End: end,
		})
		var permErr *core.PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Create() error = %v, want a permission error", err)
		}
	})

	t.Run("teacher cannot use another teacher's course", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.other.Principal(), event.NewEvent{
			Title: "Exam", Type: event.TypeExam, Start: start, End: end, CourseID: &f.crs.ID,
		})
		var permErr *core.PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Create() error = %v, want a permission error", err)
		}
	})

	t.Run("teacher creates event for own course", func(t *testing.T) {
		evt, err := f.svc.Create(ctx, f.teacher.Principal(), event.NewEvent{
			Title: "Exam", Type: event.TypeExam, Start: start, End: end, CourseID: &f.crs.ID,
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if evt.CreatedBy != f.teacher.ID {
			t.Errorf("Create() createdBy = %d, want %d", evt.CreatedBy, f.teacher.ID)
		}
	})

	t.Run("admin creates school-wide event", func(t *testing.T) {
		evt, err := f.svc.Create(ctx, f.admin.Principal(), event.NewEvent{
			Title: "Holiday", Type: event.TypeHoliday, Start: start, End: end,
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if evt.CourseID != nil {
			t.Errorf("Create() courseID = %v, want nil", *evt.CourseID)
		}
	})
}

func TestService_VisibleTo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	otherCrs := testutil.CreateCourse(t, f.crsRepo, "Physics", f.other.ID)

	global := testutil.CreateEvent(t, f.evtRepo, "Holiday", event.TypeHoliday, start, end, nil, f.admin.ID)
	scoped := testutil.CreateEvent(t, f.evtRepo, "Math exam", event.TypeExam, start, end, &f.crs.ID, f.teacher.ID)
	foreign := testutil.CreateEvent(t, f.evtRepo, "Physics class", event.TypeClass, start, end, &otherCrs.ID, f.other.ID)

	visibleIDs := func(t *testing.T, p access.Principal) map[int]bool {
		t.Helper()
		events, err := f.svc.VisibleTo(ctx, p, nil)
		if err != nil {
			t.Fatalf("VisibleTo() failed: %v", err)
		}
		ids := make(map[int]bool, len(events))
		for _, evt := range events {
			ids[evt.ID] = true
		}
		return ids
	}

	t.Run("admin sees everything", func(t *testing.T) {
		ids := visibleIDs(t, f.admin.Principal())
		if len(ids) != 3 {
			t.Errorf("admin sees %d events, want 3", len(ids))
		}
	})

	t.Run("teacher sees global and own course events", func(t *testing.T) {
		ids := visibleIDs(t, f.teacher.Principal())
		if !ids[global.ID] || !ids[scoped.ID] || ids[foreign.ID] {
			t.Errorf("teacher visibility = %v", ids)
		}
	})

	t.Run("student sees global and enrolled course events", func(t *testing.T) {
		ids := visibleIDs(t, f.student.Principal())
		if !ids[global.ID] || !ids[scoped.ID] || ids[foreign.ID] {
			t.Errorf("student visibility = %v", ids)
		}
	})

	t.Run("hidden event reads as not found", func(t *testing.T) {
		_, err := f.svc.Get(ctx, f.student.Principal(), foreign.ID)
		if errors.Cause(err) != event.ErrNotFound {
			t.Errorf("Get() error = %v, want %v", err, event.ErrNotFound)
		}
	})
}

func TestService_EditPolicy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	evt := testutil.CreateEvent(t, f.evtRepo, "Math exam", event.TypeExam, start, end, &f.crs.ID, f.teacher.ID)

	ue := event.UpdateEvent{
		Title: "Math final exam", Type: event.TypeExam, Start: start, End: end, CourseID: &f.crs.ID,
	}

	t.Run("non-creator teacher is refused", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.other.Principal(), evt.ID, ue)
		var permErr *core.PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Update() error = %v, want a permission error", err)
		}
	})

	t.Run("creator updates", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, f.teacher.Principal(), evt.ID, ue)
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if updated.Title != "Math final exam" {
			t.Errorf("Update() title = %q", updated.Title)
		}
	})

	t.Run("admin deletes", func(t *testing.T) {
		if err := f.svc.Delete(ctx, f.admin.Principal(), evt.ID); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if _, err := f.evtRepo.GetEvent(ctx, evt.ID); errors.Cause(err) != event.ErrNotFound {
			t.Errorf("GetEvent() error = %v, want %v", err, event.ErrNotFound)
		}
	})
}

func TestService_Calendar(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	testutil.CreateEvent(t, f.evtRepo, "Math exam", event.TypeExam, start, end, &f.crs.ID, f.teacher.ID)

	entries, err := f.svc.Calendar(ctx, f.student.Principal(), nil)
	if err != nil {
		t.Fatalf("Calendar() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Title != "Math exam" {
		t.Errorf("entry title = %q", entry.Title)
	}
	if entry.Start != "2026-03-10T08:00:00Z" {
		t.Errorf("entry start = %q, want RFC3339 UTC", entry.Start)
	}
	if entry.ClassName != "event-type-exam" {
		t.Errorf("entry className = %q, want event-type-exam", entry.ClassName)
	}
}
