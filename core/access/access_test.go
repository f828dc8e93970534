package access

import "testing"

type testCourse struct{ ownerID int }

func (c testCourse) OwnerID() int { return c.ownerID }

type testEvent struct {
	courseID  *int
	creatorID int
}

func (e testEvent) CourseScope() *int { return e.courseID }
func (e testEvent) CreatorID() int    { return e.creatorID }

func intPtr(i int) *int { return &i }

func TestCanManageCourse(t *testing.T) {
	crs := testCourse{ownerID: 2}

	tests := []struct {
		name string
		p    Principal
		want bool
	}{
		{name: "admin", p: Principal{ID: 1, Role: RoleAdmin}, want: true},
		{name: "owning teacher", p: Principal{ID: 2, Role: RoleTeacher}, want: true},
		{name: "other teacher", p: Principal{ID: 3, Role: RoleTeacher}, want: false},
		{name: "student", p: Principal{ID: 4, Role: RoleStudent}, want: false},
		{name: "student with matching id", p: Principal{ID: 2, Role: RoleStudent}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanManageCourse(tt.p, crs); got != tt.want {
				t.Errorf("CanManageCourse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanViewEvent(t *testing.T) {
	global := testEvent{creatorID: 1}
	scoped := testEvent{courseID: intPtr(7), creatorID: 2}

	tests := []struct {
		name      string
		p         Principal
		e         Event
		courseIDs []int
		want      bool
	}{
		{name: "global visible to student", p: Principal{ID: 4, Role: RoleStudent}, e: global, want: true},
		{name: "global visible to teacher", p: Principal{ID: 2, Role: RoleTeacher}, e: global, want: true},
		{name: "global visible to admin", p: Principal{ID: 1, Role: RoleAdmin}, e: global, want: true},
		{name: "scoped visible to admin", p: Principal{ID: 1, Role: RoleAdmin}, e: scoped, want: true},
		{name: "scoped visible to related teacher", p: Principal{ID: 2, Role: RoleTeacher}, e: scoped, courseIDs: []int{3, 7}, want: true},
		{name: "scoped visible to enrolled student", p: Principal{ID: 4, Role: RoleStudent}, e: scoped, courseIDs: []int{7}, want: true},
		{name: "scoped hidden from unrelated teacher", p: Principal{ID: 3, Role: RoleTeacher}, e: scoped, courseIDs: []int{3}, want: false},
		{name: "scoped hidden from unenrolled student", p: Principal{ID: 5, Role: RoleStudent}, e: scoped, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewEvent(tt.p, tt.e, tt.courseIDs); got != tt.want {
				t.Errorf("CanViewEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEditEvent(t *testing.T) {
	evt := testEvent{courseID: intPtr(7), creatorID: 2}

	tests := []struct {
		name string
		p    Principal
		want bool
	}{
		{name: "admin", p: Principal{ID: 1, Role: RoleAdmin}, want: true},
		{name: "creating teacher", p: Principal{ID: 2, Role: RoleTeacher}, want: true},
		{name: "other teacher", p: Principal{ID: 3, Role: RoleTeacher}, want: false},
		{name: "student", p: Principal{ID: 4, Role: RoleStudent}, want: false},
		{name: "student with creator id", p: Principal{ID: 2, Role: RoleStudent}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditEvent(tt.p, evt); got != tt.want {
				t.Errorf("CanEditEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}
