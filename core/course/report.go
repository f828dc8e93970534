package course

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
)

const naValue = "N/A"

// BuildStudentReport lays out a student's transcript: one row per enrollment
// with the course, its teacher, the grade (or N/A) and attendance.
func BuildStudentReport(student user.User, enrollments []Enrollment, at time.Time) core.Report {
	rows := make([][]string, 0, len(enrollments))
	for _, enr := range enrollments {
		rows = append(rows, []string{
			enr.CourseName,
			enr.TeacherUsername,
			cellValue(enr.Grade),
			attendanceCell(enr.Attendance),
		})
	}
	return core.Report{
		Kind:       "student",
		Identifier: student.Username,
		Title:      fmt.Sprintf("Student Report - %s", student.Name),
		Meta: []string{
			fmt.Sprintf("Username: %s", student.Username),
			fmt.Sprintf("Email: %s", student.Email),
		},
		Table: core.ReportTable{
			Header: []string{"Course", "Teacher", "Grade", "Attendance"},
			Rows:   rows,
		},
		GeneratedAt: at,
	}
}

// BuildCourseReport lays out a course's grade sheet: one row per enrolled
// student plus a "Média" footer averaging the non-null grades and attendances.
func BuildCourseReport(crs Course, enrollments []Enrollment, at time.Time) core.Report {
	rows := make([][]string, 0, len(enrollments))
	for _, enr := range enrollments {
		rows = append(rows, []string{
			enr.StudentUsername,
			cellValue(enr.Grade),
			attendanceCell(enr.Attendance),
		})
	}

	var grades, attendances []float64
	for _, enr := range enrollments {
		if enr.Grade != nil {
			grades = append(grades, *enr.Grade)
		}
		if enr.Attendance != nil {
			attendances = append(attendances, *enr.Attendance)
		}
	}

	return core.Report{
		Kind:       "course",
		Identifier: strconv.Itoa(crs.ID),
		Title:      fmt.Sprintf("Course Report - %s", crs.Name),
		Meta: []string{
			fmt.Sprintf("Teacher: %s", crs.TeacherUsername),
			fmt.Sprintf("Enrolled students: %d", len(enrollments)),
		},
		Table: core.ReportTable{
			Header:    []string{"Student", "Grade", "Attendance"},
			Rows:      rows,
			FooterRow: []string{"Média", averageCell(grades), averageCell(attendances)},
		},
		GeneratedAt: at,
	}
}

func cellValue(f *float64) string {
	if f == nil {
		return naValue
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func attendanceCell(f *float64) string {
	if f == nil {
		return naValue
	}
	return strconv.FormatFloat(*f, 'f', -1, 64) + "%"
}

// averageCell renders the mean of vals to two decimals, or N/A when every
// value was null.
func averageCell(vals []float64) string {
	if len(vals) == 0 {
		return naValue
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.2f", sum/float64(len(vals)))
}
