package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
)

const (
	courseSelect = `
	SELECT c.id, c.name, c.teacher_id, c.created_at, c.updated_at, t.username AS teacher_username
	FROM course c
	JOIN user_account t ON t.id = c.teacher_id`

	enrollmentSelect = `
	SELECT e.id, e.student_id, e.course_id, e.grade, e.attendance, e.created_at, e.updated_at,
	       s.username AS student_username, c.name AS course_name, t.username AS teacher_username
	FROM enrollment e
	JOIN user_account s ON s.id = e.student_id
	JOIN course c ON c.id = e.course_id
	JOIN user_account t ON t.id = c.teacher_id`
)

type courseRepository struct {
	exec core.DBExecutor
}

var (
	_ course.Repository     = (*courseRepository)(nil) // interface compliance check
	_ event.CourseDirectory = (*courseRepository)(nil)
)

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `
	INSERT INTO course (name, teacher_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id`
	err := getExec(repo.exec, exec).QueryRowContext(
		ctx, q, crs.Name, crs.TeacherID, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, crs.ID, exec...)
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.CourseFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	qb := new(queryBuilder)
	if filter != nil && filter.TeacherID != 0 {
		qb.where("c.teacher_id = " + qb.arg(filter.TeacherID))
	}

	q := courseSelect + qb.clause() + " ORDER BY c.name, c.id"
	var courses []course.Course
	if err := getExec(repo.exec, exec).SelectContext(ctx, &courses, q, qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	var crs course.Course
	if err := getExec(repo.exec, exec).GetContext(ctx, &crs, courseSelect+" WHERE c.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return crs, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `
	UPDATE course SET name = $1, teacher_id = $2, updated_at = $3
	WHERE id = $4
	RETURNING id`
	err := getExec(repo.exec, exec).QueryRowContext(
		ctx, q, crs.Name, crs.TeacherID, crs.UpdatedAt.UTC(), crs.ID,
	).Scan(&crs.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return repo.GetCourse(ctx, crs.ID, exec...)
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids []int, exec ...core.DBExecutor) (int, error) {
	qb := new(queryBuilder)
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, qb.arg(id))
	}
	q := "DELETE FROM course WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
	res, err := getExec(repo.exec, exec).ExecContext(ctx, q, qb.args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	return int(cnt), nil
}

func (repo courseRepository) CourseIDsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]int, error) {
	var ids []int
	q := "SELECT id FROM course WHERE teacher_id = $1"
	if err := getExec(repo.exec, exec).SelectContext(ctx, &ids, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying teacher course ids")
	}
	return ids, nil
}

func (repo courseRepository) CourseIDsByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]int, error) {
	var ids []int
	q := "SELECT course_id FROM enrollment WHERE student_id = $1"
	if err := getExec(repo.exec, exec).SelectContext(ctx, &ids, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student course ids")
	}
	return ids, nil
}

func (repo courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	q := `
	INSERT INTO enrollment (student_id, course_id, grade, attendance, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	err := getExec(repo.exec, exec).QueryRowContext(
		ctx, q, enr.StudentID, enr.CourseID, enr.Grade, enr.Attendance,
		enr.CreatedAt.UTC(), enr.UpdatedAt.UTC(),
	).Scan(&enr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return repo.GetEnrollment(ctx, course.GetEnrollmentFilter{ID: enr.ID}, exec...)
}

func (repo courseRepository) GetEnrollment(ctx context.Context, filter course.GetEnrollmentFilter, exec ...core.DBExecutor) (course.Enrollment, error) {
	qb := new(queryBuilder)
	switch {
	case filter.ID != 0:
		qb.where("e.id = " + qb.arg(filter.ID))
	default:
		qb.where("e.student_id = " + qb.arg(filter.StudentID))
		qb.where("e.course_id = " + qb.arg(filter.CourseID))
	}

	var enr course.Enrollment
	if err := getExec(repo.exec, exec).GetContext(ctx, &enr, enrollmentSelect+qb.clause(), qb.args...); err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrEnrollmentNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "finding enrollment")
	}
	return enr, nil
}

func (repo courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	qb := new(queryBuilder)
	if filter.CourseID != 0 {
		qb.where("e.course_id = " + qb.arg(filter.CourseID))
	}
	if filter.StudentID != 0 {
		qb.where("e.student_id = " + qb.arg(filter.StudentID))
	}

	q := enrollmentSelect + qb.clause() + " ORDER BY e.id"
	var enrollments []course.Enrollment
	if err := getExec(repo.exec, exec).SelectContext(ctx, &enrollments, q, qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo courseRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	q := `
	UPDATE enrollment SET grade = $1, attendance = $2, updated_at = $3
	WHERE id = $4
	RETURNING id`
	err := getExec(repo.exec, exec).QueryRowContext(
		ctx, q, enr.Grade, enr.Attendance, enr.UpdatedAt.UTC(), enr.ID,
	).Scan(&enr.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrEnrollmentNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return repo.GetEnrollment(ctx, course.GetEnrollmentFilter{ID: enr.ID}, exec...)
}

func (repo courseRepository) DeleteEnrollment(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, "DELETE FROM enrollment WHERE id = $1", id)
	return errors.Wrap(err, "deleting enrollment")
}
