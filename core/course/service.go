package course

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids []int, exec ...core.DBExecutor) (int, error)
		CourseIDsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]int, error)
		CourseIDsByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]int, error)

		// CreateEnrollment returns ErrAlreadyEnrolled when the (student, course)
		// pair already exists.
		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, filter GetEnrollmentFilter, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter, exec ...core.DBExecutor) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	// UserDirectory is the slice of user.Repository the course service needs.
	UserDirectory interface {
		GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error)
	}

	Service interface {
		CheckTeacher(ctx context.Context, teacherID int) error
		Create(ctx context.Context, nc NewCourse) (Course, error)
		QueryVisible(ctx context.Context, principal access.Principal) ([]Course, error)
		Get(ctx context.Context, principal access.Principal, id int) (Course, error)
		Update(ctx context.Context, id int, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ids ...int) error

		Enroll(ctx context.Context, courseID int, ne NewEnrollment) (Enrollment, error)
		RemoveEnrollment(ctx context.Context, courseID, enrollmentID int) error
		UpdateGrade(ctx context.Context, principal access.Principal, courseID int, gu GradeUpdate) (Enrollment, error)
		EnrollmentsForCourse(ctx context.Context, principal access.Principal, courseID int) ([]Enrollment, error)
		EnrollmentsForStudent(ctx context.Context, studentID int) ([]Enrollment, error)

		StudentReport(ctx context.Context, studentID int) (core.Report, error)
		CourseReport(ctx context.Context, principal access.Principal, courseID int) (core.Report, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		users   UserDirectory
		notifs  notification.Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	users UserDirectory,
	notifs notification.Repository,
	mailSvc core.EmailService,
	conf *core.Config,
) Service {
	return &service{
		db:      db,
		repo:    repo,
		users:   users,
		notifs:  notifs,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// CheckTeacher verifies that teacherID references an active teacher account.
func (svc *service) CheckTeacher(ctx context.Context, teacherID int) error {
	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: teacherID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
		}
		return err
	}
	if !usr.IsTeacher() {
		return core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "user is not a teacher"})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Name:      nc.Name,
		TeacherID: nc.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// QueryVisible scopes the course list by role: admins see every course,
// teachers the ones they own.
func (svc *service) QueryVisible(ctx context.Context, principal access.Principal) ([]Course, error) {
	if principal.IsAdmin() {
		return svc.repo.QueryCourses(ctx, nil)
	}
	if principal.IsTeacher() {
		return svc.repo.QueryCourses(ctx, &CourseFilter{TeacherID: principal.ID})
	}
	return nil, core.NewPermissionError("students cannot list courses")
}

func (svc *service) Get(ctx context.Context, principal access.Principal, id int) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !access.CanManageCourse(principal, crs) {
		return Course{}, core.NewPermissionError("course belongs to another teacher")
	}
	return crs, nil
}

func (svc *service) Update(ctx context.Context, id int, uc UpdateCourse) (Course, error) {
	return svc.repo.UpdateCourse(ctx, Course{
		ID:        id,
		Name:      uc.Name,
		TeacherID: uc.TeacherID,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) Delete(ctx context.Context, ids ...int) error {
	_, err := svc.repo.DeleteCoursesByID(ctx, ids)
	return err
}

// Enroll creates an enrollment for the student in the course, starting at
// DefaultAttendance with no grade.
func (svc *service) Enroll(ctx context.Context, courseID int, ne NewEnrollment) (Enrollment, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Enrollment{}, err
	}
	student, err := svc.users.GetUser(ctx, user.GetFilter{ID: ne.StudentID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: "student not found"})
		}
		return Enrollment{}, err
	}
	if !student.IsStudent() {
		return Enrollment{}, core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "user is not a student"})
	}

	now := time.Now().UTC()
	attendance := DefaultAttendance
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:  ne.StudentID,
		CourseID:   courseID,
		Attendance: &attendance,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// RemoveEnrollment deletes the enrollment; it must belong to the stated course.
func (svc *service) RemoveEnrollment(ctx context.Context, courseID, enrollmentID int) error {
	enr, err := svc.repo.GetEnrollment(ctx, GetEnrollmentFilter{ID: enrollmentID})
	if err != nil {
		return err
	}
	if enr.CourseID != courseID {
		return ErrEnrollmentNotFound
	}
	return svc.repo.DeleteEnrollment(ctx, enr.ID)
}

// UpdateGrade overwrites the enrollment's grade and attendance and notifies
// the student; the grade write and the notification insert share one
// transaction so neither persists without the other.
func (svc *service) UpdateGrade(ctx context.Context, principal access.Principal, courseID int, gu GradeUpdate) (Enrollment, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !access.CanManageCourse(principal, crs) {
		return Enrollment{}, core.NewPermissionError("course belongs to another teacher")
	}

	enr, err := svc.repo.GetEnrollment(ctx, GetEnrollmentFilter{StudentID: gu.StudentID, CourseID: courseID})
	if err != nil {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	grade, attendance := gu.Grade, gu.Attendance
	enr.Grade = &grade
	enr.Attendance = &attendance
	enr.UpdatedAt = now

	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "beginning transaction")
	}
	enr, err = svc.repo.UpdateEnrollment(ctx, enr, tx)
	if err != nil {
		_ = tx.Rollback()
		return Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if _, err = svc.notifs.CreateNotification(ctx, notification.Notification{
		UserID:    enr.StudentID,
		Title:     fmt.Sprintf("Grade updated in %s", crs.Name),
		Message:   fmt.Sprintf("Your grade has been updated to %s", formatFloat(grade)),
		Type:      notification.TypeInfo,
		CreatedAt: now,
	}, tx); err != nil {
		_ = tx.Rollback()
		return Enrollment{}, errors.Wrap(err, "creating grade notification")
	}
	if err = tx.Commit(); err != nil {
		return Enrollment{}, errors.Wrap(err, "committing transaction")
	}

	go svc.sendGradeUpdatedMail(ctx, enr, crs)
	return enr, nil
}

func (svc *service) sendGradeUpdatedMail(ctx context.Context, enr Enrollment, crs Course) {
	student, err := svc.users.GetUser(ctx, user.GetFilter{ID: enr.StudentID})
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: fmt.Sprintf("Grade updated in %s", crs.Name),
		BodyStr: fmt.Sprintf(
			"Hello %s,\n\nYour grade in %s has been updated to %s (attendance %s%%).\n",
			student.Name, crs.Name, formatFloat(*enr.Grade), formatFloat(*enr.Attendance),
		),
	})
}

func (svc *service) EnrollmentsForCourse(ctx context.Context, principal access.Principal, courseID int) ([]Enrollment, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageCourse(principal, crs) {
		return nil, core.NewPermissionError("course belongs to another teacher")
	}
	return svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseID: courseID})
}

func (svc *service) EnrollmentsForStudent(ctx context.Context, studentID int) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, EnrollmentFilter{StudentID: studentID})
}

func (svc *service) StudentReport(ctx context.Context, studentID int) (core.Report, error) {
	student, err := svc.users.GetUser(ctx, user.GetFilter{ID: studentID})
	if err != nil {
		return core.Report{}, err
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{StudentID: studentID})
	if err != nil {
		return core.Report{}, err
	}
	return BuildStudentReport(student, enrollments, time.Now()), nil
}

func (svc *service) CourseReport(ctx context.Context, principal access.Principal, courseID int) (core.Report, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return core.Report{}, err
	}
	if !access.CanManageCourse(principal, crs) {
		return core.Report{}, core.NewPermissionError("course belongs to another teacher")
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseID: courseID})
	if err != nil {
		return core.Report{}, err
	}
	return BuildCourseReport(crs, enrollments, time.Now()), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
