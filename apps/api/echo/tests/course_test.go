package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/tests"
)

func TestCourseAPI(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "s3cr3t", access.RoleAdmin, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teach", "teach@test.cd", "s3cr3t", access.RoleTeacher, true)
	other := testutil.CreateUser(t, app.usrRepo, "Other", "other", "other@test.cd", "s3cr3t", access.RoleTeacher, true)
	student := testutil.CreateUser(t, app.usrRepo, "Student", "stud", "stud@test.cd", "s3cr3t", access.RoleStudent, true)

	crs := testutil.CreateCourse(t, app.crsRepo, "Mathematics", teacher.ID)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses")
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("student cannot list courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", getToken(t, student))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("teacher lists own courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", getToken(t, teacher))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, crs)}, rec)
	})

	t.Run("other teacher sees nothing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", getToken(t, other))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)
	})

	t.Run("teacher cannot create courses", func(t *testing.T) {
		body := marchallObj(t, course.NewCourse{Name: "Physics", TeacherID: teacher.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, teacher), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("admin creates a course", func(t *testing.T) {
		body := marchallObj(t, course.NewCourse{Name: "Physics", TeacherID: other.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("teacher id must reference a teacher", func(t *testing.T) {
		body := marchallObj(t, course.NewCourse{Name: "Chemistry", TeacherID: student.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("teacher cannot retrieve another teacher's course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%d", crs.ID), getToken(t, other))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/999", getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"})}, rec)
	})
}

func TestEnrollmentAPI(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "s3cr3t", access.RoleAdmin, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teach", "teach@test.cd", "s3cr3t", access.RoleTeacher, true)
	other := testutil.CreateUser(t, app.usrRepo, "Other", "other", "other@test.cd", "s3cr3t", access.RoleTeacher, true)
	student := testutil.CreateUser(t, app.usrRepo, "Student", "stud", "stud@test.cd", "s3cr3t", access.RoleStudent, true)

	crs := testutil.CreateCourse(t, app.crsRepo, "Mathematics", teacher.ID)

	enrollPath := fmt.Sprintf("/v1/courses/%d/students", crs.ID)
	body := marchallObj(t, course.NewEnrollment{StudentID: student.ID})

	t.Run("teacher cannot enroll students", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, enrollPath, getToken(t, teacher), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	var enrollmentID int
	t.Run("admin enrolls a student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, enrollPath, getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var enr course.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
			t.Fatalf("unmarshalling enrollment: %v", err)
		}
		if enr.Grade != nil {
			t.Errorf("grade = %v, want null", *enr.Grade)
		}
		if enr.Attendance == nil || *enr.Attendance != course.DefaultAttendance {
			t.Errorf("attendance = %v, want %v", enr.Attendance, course.DefaultAttendance)
		}
		enrollmentID = enr.ID
	})

	t.Run("duplicate enrollment conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, enrollPath, getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "student is already enrolled in this course"}),
		}, rec)
	})

	t.Run("owning teacher updates grade", func(t *testing.T) {
		gu := marchallObj(t, course.GradeUpdate{StudentID: student.ID, Grade: 8.5, Attendance: 90})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/courses/%d/grades", crs.ID), getToken(t, teacher), gu)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var enr course.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
			t.Fatalf("unmarshalling enrollment: %v", err)
		}
		if enr.Grade == nil || *enr.Grade != 8.5 {
			t.Errorf("grade = %v, want 8.5", enr.Grade)
		}
	})

	t.Run("other teacher cannot update grades", func(t *testing.T) {
		gu := marchallObj(t, course.GradeUpdate{StudentID: student.ID, Grade: 2})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/courses/%d/grades", crs.ID), getToken(t, other), gu)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("grade out of range", func(t *testing.T) {
		gu := marchallObj(t, course.GradeUpdate{StudentID: student.ID, Grade: 11})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/courses/%d/grades", crs.ID), getToken(t, teacher), gu)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("student sees own grades", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%d/grades", student.ID), getToken(t, student))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var enrollments []course.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enrollments); err != nil {
			t.Fatalf("unmarshalling enrollments: %v", err)
		}
		if len(enrollments) != 1 || enrollments[0].CourseName != crs.Name {
			t.Errorf("enrollments = %v", enrollments)
		}
	})

	t.Run("student cannot see another student's grades", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%d/grades", admin.ID), getToken(t, student))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("unenroll from wrong course", func(t *testing.T) {
		otherCrs := testutil.CreateCourse(t, app.crsRepo, "Physics", other.ID)
		req, rec := newAuthRequest(
			http.MethodDelete,
			fmt.Sprintf("/v1/courses/%d/students/%d", otherCrs.ID, enrollmentID),
			getToken(t, admin),
		)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "enrollment not found"})}, rec)
	})

	t.Run("admin unenrolls", func(t *testing.T) {
		req, rec := newAuthRequest(
			http.MethodDelete,
			fmt.Sprintf("/v1/courses/%d/students/%d", crs.ID, enrollmentID),
			getToken(t, admin),
		)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}
	})
}

func TestReportAPI(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teach", "teach@test.cd", "s3cr3t", access.RoleTeacher, true)
	other := testutil.CreateUser(t, app.usrRepo, "Other", "other", "other@test.cd", "s3cr3t", access.RoleTeacher, true)
	student := testutil.CreateUser(t, app.usrRepo, "Student", "stud", "stud@test.cd", "s3cr3t", access.RoleStudent, true)

	crs := testutil.CreateCourse(t, app.crsRepo, "Mathematics", teacher.ID)
	testutil.CreateEnrollment(t, app.crsRepo, student.ID, crs.ID, testutil.FloatPtr(9), nil)

	t.Run("course report as pdf", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%d/report", crs.ID), getToken(t, teacher))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("Content-Type = %q, want application/pdf", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "course_report_") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
			t.Error("response body is not a PDF document")
		}
	})

	t.Run("non-owner teacher cannot fetch course report", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%d/report", crs.ID), getToken(t, other))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("student fetches own report", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%d/report", student.ID), getToken(t, student))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "student_report_"+student.Username) {
			t.Errorf("Content-Disposition = %q", cd)
		}
	})

	t.Run("student cannot fetch another student's report", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%d/report", teacher.ID), getToken(t, student))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})
}
