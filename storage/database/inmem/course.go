package inmemdb

import (
	"context"
	"sort"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
)

type courseRepository struct {
	db          *DB
	courses     *table[course.Course]
	enrollments *table[course.Enrollment]
}

var (
	_ course.Repository     = (*courseRepository)(nil) // interface compliance check
	_ event.CourseDirectory = (*courseRepository)(nil)
)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db, courses: db.courses, enrollments: db.enrollments}
}

// project fills the joined projections the sqlx repository gets for free.
// Lock order is courses then users; callers may hold the courses lock but
// never the users lock.
func (repo *courseRepository) project(crs course.Course) course.Course {
	repo.db.users.mutex.RLock()
	defer repo.db.users.mutex.RUnlock()

	if t, ok := repo.db.users.t[crs.TeacherID]; ok {
		crs.TeacherUsername = t.Username
	}
	return crs
}

// projectEnrollment locks courses and users itself; callers must hold no
// table lock (in particular not the enrollments lock, which nests inside
// the courses lock elsewhere).
func (repo *courseRepository) projectEnrollment(enr course.Enrollment) course.Enrollment {
	repo.courses.mutex.RLock()
	defer repo.courses.mutex.RUnlock()
	repo.db.users.mutex.RLock()
	defer repo.db.users.mutex.RUnlock()

	if s, ok := repo.db.users.t[enr.StudentID]; ok {
		enr.StudentUsername = s.Username
	}
	if c, ok := repo.courses.t[enr.CourseID]; ok {
		enr.CourseName = c.Name
		if t, ok := repo.db.users.t[c.TeacherID]; ok {
			enr.TeacherUsername = t.Username
		}
	}
	return enr
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.courses.mutex.Lock()
	defer repo.courses.mutex.Unlock()

	repo.courses.nextID++
	crs.ID = repo.courses.nextID
	repo.courses.t[crs.ID] = &crs
	return repo.project(crs), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.CourseFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.courses.mutex.RLock()
	defer repo.courses.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.courses.t))
	for _, crs := range repo.courses.t {
		if filter != nil && filter.TeacherID != 0 && crs.TeacherID != filter.TeacherID {
			continue
		}
		courses = append(courses, repo.project(*crs))
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	repo.courses.mutex.RLock()
	defer repo.courses.mutex.RUnlock()

	if crs, ok := repo.courses.t[id]; ok {
		return repo.project(*crs), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.courses.mutex.Lock()
	defer repo.courses.mutex.Unlock()

	orig, ok := repo.courses.t[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	if crs.Name != "" {
		orig.Name = crs.Name
	}
	if crs.TeacherID != 0 {
		orig.TeacherID = crs.TeacherID
	}
	if !crs.UpdatedAt.IsZero() {
		orig.UpdatedAt = crs.UpdatedAt
	}
	return repo.project(*orig), nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []int, exec ...core.DBExecutor) (int, error) {
	repo.courses.mutex.Lock()
	defer repo.courses.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.courses.t[id]; !ok {
			continue
		}
		delete(repo.courses.t, id)
		cnt++

		// ON DELETE CASCADE
		repo.enrollments.mutex.Lock()
		for eid, enr := range repo.enrollments.t {
			if enr.CourseID == id {
				delete(repo.enrollments.t, eid)
			}
		}
		repo.enrollments.mutex.Unlock()
	}
	return cnt, nil
}

func (repo *courseRepository) CourseIDsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]int, error) {
	repo.courses.mutex.RLock()
	defer repo.courses.mutex.RUnlock()

	var ids []int
	for _, crs := range repo.courses.t {
		if crs.TeacherID == teacherID {
			ids = append(ids, crs.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *courseRepository) CourseIDsByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]int, error) {
	repo.enrollments.mutex.RLock()
	defer repo.enrollments.mutex.RUnlock()

	var ids []int
	for _, enr := range repo.enrollments.t {
		if enr.StudentID == studentID {
			ids = append(ids, enr.CourseID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	repo.enrollments.mutex.Lock()
	for _, e := range repo.enrollments.t {
		if e.StudentID == enr.StudentID && e.CourseID == enr.CourseID {
			repo.enrollments.mutex.Unlock()
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}
	repo.enrollments.nextID++
	enr.ID = repo.enrollments.nextID
	stored := enr
	repo.enrollments.t[enr.ID] = &stored
	repo.enrollments.mutex.Unlock()

	return repo.projectEnrollment(enr), nil
}

func (repo *courseRepository) findEnrollment(filter course.GetEnrollmentFilter) (course.Enrollment, bool) {
	repo.enrollments.mutex.RLock()
	defer repo.enrollments.mutex.RUnlock()

	if filter.ID != 0 {
		if enr, ok := repo.enrollments.t[filter.ID]; ok {
			return *enr, true
		}
		return course.Enrollment{}, false
	}
	for _, enr := range repo.enrollments.t {
		if enr.StudentID == filter.StudentID && enr.CourseID == filter.CourseID {
			return *enr, true
		}
	}
	return course.Enrollment{}, false
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, filter course.GetEnrollmentFilter, exec ...core.DBExecutor) (course.Enrollment, error) {
	enr, ok := repo.findEnrollment(filter)
	if !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	return repo.projectEnrollment(enr), nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	repo.enrollments.mutex.RLock()
	enrollments := make([]course.Enrollment, 0, len(repo.enrollments.t))
	for _, enr := range repo.enrollments.t {
		if filter.CourseID != 0 && enr.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != 0 && enr.StudentID != filter.StudentID {
			continue
		}
		enrollments = append(enrollments, *enr)
	}
	repo.enrollments.mutex.RUnlock()

	for i, enr := range enrollments {
		enrollments[i] = repo.projectEnrollment(enr)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	repo.enrollments.mutex.Lock()
	orig, ok := repo.enrollments.t[enr.ID]
	if !ok {
		repo.enrollments.mutex.Unlock()
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	orig.Grade = enr.Grade
	orig.Attendance = enr.Attendance
	if !enr.UpdatedAt.IsZero() {
		orig.UpdatedAt = enr.UpdatedAt
	}
	updated := *orig
	repo.enrollments.mutex.Unlock()

	return repo.projectEnrollment(updated), nil
}

func (repo *courseRepository) DeleteEnrollment(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.enrollments.mutex.Lock()
	defer repo.enrollments.mutex.Unlock()
	delete(repo.enrollments.t, id)
	return nil
}
