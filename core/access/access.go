// Package access holds the role-based authorization rules shared by the
// domain services. Predicates are pure: they decide, they never fetch.
package access

// Role is a principal's single role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated actor performing an operation.
type Principal struct {
	ID   int
	Role Role
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Principal) IsStudent() bool { return p.Role == RoleStudent }

// Course is the course shape the policy needs; satisfied by course.Course.
type Course interface {
	OwnerID() int
}

// Event is the event shape the policy needs; satisfied by event.Event.
type Event interface {
	// CourseScope returns the course the event is scoped to, or nil for a
	// school-wide event.
	CourseScope() *int
	CreatorID() int
}

// CanManageCourse reports whether p may mutate the course and its
// enrollments: admins always, teachers only for courses they own.
func CanManageCourse(p Principal, c Course) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsTeacher() && c.OwnerID() == p.ID
}

// CanViewEvent reports whether p may see the event. Global events (nil
// course) are visible to everyone; course events only to admins and to
// principals related to the course. courseIDs is the set of courses taught
// by a teacher, or enrolled in by a student.
func CanViewEvent(p Principal, e Event, courseIDs []int) bool {
	if p.IsAdmin() {
		return true
	}
	cid := e.CourseScope()
	if cid == nil {
		return true
	}
	for _, id := range courseIDs {
		if id == *cid {
			return true
		}
	}
	return false
}

// CanEditEvent reports whether p may modify the event: admins always,
// teachers only for events they created. Students never edit events.
func CanEditEvent(p Principal, e Event) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsTeacher() && e.CreatorID() == p.ID
}
