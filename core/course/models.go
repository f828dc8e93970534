package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
)

// DefaultAttendance is the attendance every new enrollment starts with,
// regardless of term progress.
const DefaultAttendance = 100.0

type Course struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	TeacherID int       `json:"teacher_id" db:"teacher_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC

	// joined projection, read-only
	TeacherUsername string `json:"teacher_username,omitempty" db:"teacher_username"`
}

// OwnerID satisfies access.Course.
func (c Course) OwnerID() int { return c.TeacherID }

type Enrollment struct {
	ID         int       `json:"id" db:"id"`
	StudentID  int       `json:"student_id" db:"student_id"`
	CourseID   int       `json:"course_id" db:"course_id"`
	Grade      *float64  `json:"grade" db:"grade"`
	Attendance *float64  `json:"attendance" db:"attendance"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC

	// joined projections, read-only
	StudentUsername string `json:"student_username,omitempty" db:"student_username"`
	CourseName      string `json:"course_name,omitempty" db:"course_name"`
	TeacherUsername string `json:"teacher_username,omitempty" db:"teacher_username"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name      string `json:"name" validate:"required"`
	TeacherID int    `json:"teacher_id" validate:"required"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckTeacher(ctx, nc.TeacherID)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name      string `json:"name"`
	TeacherID int    `json:"teacher_id"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, validate *validator.Validate, origCrs Course, svc Service) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = origCrs.Name
	}
	if uc.TeacherID == 0 {
		uc.TeacherID = origCrs.TeacherID
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.TeacherID != origCrs.TeacherID {
		return svc.CheckTeacher(ctx, uc.TeacherID)
	}
	return nil
}

// NewEnrollment contains information needed to enroll a student in a course.
type NewEnrollment struct {
	StudentID int `json:"student_id" validate:"required"`
}

func (ne NewEnrollment) Validate(validate *validator.Validate) error { return validate.Struct(ne) }

// GradeUpdate carries a teacher's grade/attendance overwrite for one student.
type GradeUpdate struct {
	StudentID  int     `json:"student_id" validate:"required"`
	Grade      float64 `json:"grade" validate:"gte=0,lte=10"`
	Attendance float64 `json:"attendance" validate:"gte=0,lte=100"`
}

func (gu GradeUpdate) Validate(validate *validator.Validate) error { return validate.Struct(gu) }

// CourseFilter narrows QueryCourses.
type CourseFilter struct {
	TeacherID int
}

// EnrollmentFilter narrows QueryEnrollments; fields AND together.
type EnrollmentFilter struct {
	CourseID  int
	StudentID int
}

// GetEnrollmentFilter selects a single enrollment either by ID or by the
// unique (student, course) pair.
type GetEnrollmentFilter struct {
	ID        int
	StudentID int
	CourseID  int
}
