package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	role access.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, name string, teacherID int) course.Course {
	t.Helper()
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Name:      name,
		TeacherID: teacherID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateEnrollment(
	t *testing.T,
	repo course.Repository,
	studentID, courseID int,
	grade, attendance *float64,
) course.Enrollment {
	t.Helper()
	now := time.Now().UTC()
	if attendance == nil {
		att := course.DefaultAttendance
		attendance = &att
	}
	enr, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Grade:      grade,
		Attendance: attendance,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreateEvent(
	t *testing.T,
	repo event.Repository,
	title, typ string,
	start, end time.Time,
	courseID *int,
	createdBy int,
) event.Event {
	t.Helper()
	now := time.Now().UTC()
	evt, err := repo.CreateEvent(context.Background(), event.Event{
		Title:     title,
		Type:      typ,
		Start:     start.UTC(),
		End:       end.UTC(),
		CourseID:  courseID,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return evt
}

func CreateNotification(
	t *testing.T,
	repo notification.Repository,
	userID int,
	title, message string,
	read bool,
	createdAt ...time.Time,
) notification.Notification {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	n, err := repo.CreateNotification(context.Background(), notification.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notification.TypeInfo,
		Read:      read,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateNotification() failed: %v", err)
	}
	return n
}

// FloatPtr is a literal helper for nullable grade/attendance fields.
func FloatPtr(f float64) *float64 { return &f }
