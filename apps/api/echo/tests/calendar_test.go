package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/tests"
)

func TestEventAPI(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "s3cr3t", access.RoleAdmin, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teach", "teach@test.cd", "s3cr3t", access.RoleTeacher, true)
	other := testutil.CreateUser(t, app.usrRepo, "Other", "other", "other@test.cd", "s3cr3t", access.RoleTeacher, true)
	student := testutil.CreateUser(t, app.usrRepo, "Student", "stud", "stud@test.cd", "s3cr3t", access.RoleStudent, true)

	crs := testutil.CreateCourse(t, app.crsRepo, "Mathematics", teacher.ID)
	otherCrs := testutil.CreateCourse(t, app.crsRepo, "Physics", other.ID)
	testutil.CreateEnrollment(t, app.crsRepo, student.ID, crs.ID, nil, nil)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(2 * time.Hour)

	newEvt := func(courseID *int) []byte {
		return marchallObj(t, event.NewEvent{
			Title: "Exam", Type: event.TypeExam, Start: start, End: end, CourseID: courseID,
		})
	}

	t.Run("student cannot create events", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, student), newEvt(&crs.ID))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("teacher cannot create school-wide events", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, teacher), newEvt(nil))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		body := marchallObj(t, event.NewEvent{
			Title: "Exam", Type: event.TypeExam, Start: end, End: start, CourseID: &crs.ID,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, teacher), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("unknown event type is rejected", func(t *testing.T) {
		body := []byte(fmt.Sprintf(
			`{"title": "X", "type": "party", "start": %q, "end": %q}`,
			start.Format(time.RFC3339), end.Format(time.RFC3339),
		))
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("teacher creates course event", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, teacher), newEvt(&crs.ID))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admin creates school-wide event", func(t *testing.T) {
		body := marchallObj(t, event.NewEvent{
			Title: "Holiday", Type: event.TypeHoliday, Start: start, End: end,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/events", getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	foreign := testutil.CreateEvent(t, app.evtRepo, "Physics class", event.TypeClass, start, end, &otherCrs.ID, other.ID)

	t.Run("student sees only global and own course events", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/events", getToken(t, student))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var events []event.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
			t.Fatalf("unmarshalling events: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2: %s", len(events), rec.Body.String())
		}
		for _, evt := range events {
			if evt.ID == foreign.ID {
				t.Error("student can see an unrelated course event")
			}
		}
	})

	t.Run("hidden event reads as not found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/events/%d", foreign.ID), getToken(t, student))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "event not found"})}, rec)
	})

	t.Run("calendar entries carry css class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/events/calendar", getToken(t, student))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var entries []event.CalendarEntry
		if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
			t.Fatalf("unmarshalling entries: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		for _, entry := range entries {
			if entry.ClassName != "event-type-"+entry.Type {
				t.Errorf("className = %q for type %q", entry.ClassName, entry.Type)
			}
			if _, err := time.Parse(time.RFC3339, entry.Start); err != nil {
				t.Errorf("start %q is not RFC 3339: %v", entry.Start, err)
			}
		}
	})

	t.Run("non-creator teacher cannot delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/events/%d", foreign.ID), getToken(t, teacher))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/events/%d", foreign.ID), getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}
	})
}
