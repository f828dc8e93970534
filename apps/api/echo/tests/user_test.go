package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/tests"
)

func TestUserLogin(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, app.usrRepo, "User", "awe", "awe@test.cd", "s3cr3t", access.RoleStudent, true)
	testutil.CreateUser(t, app.usrRepo, "Inactive", "gone", "gone@test.cd", "s3cr3t", access.RoleStudent, false)

	tests := []httpTest{
		{
			name:     "empty payload",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			body:     []byte(`{"username": "lol", "password": "lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"username": "awe", "password": "lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     []byte(`{"username": "gone", "password": "s3cr3t"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "login with username",
			body:     []byte(`{"username": "awe", "password": "s3cr3t"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "login with email",
			body:     []byte(fmt.Sprintf(`{"username": %q, "password": "s3cr3t"}`, usr.Email)),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
					t.Errorf("login did not return a token: %s", rec.Body.String())
				}
				return
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func TestUserRegister(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "s3cr3t", access.RoleAdmin, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teach", "teach@test.cd", "s3cr3t", access.RoleTeacher, true)

	payload := []byte(`{
		"name": "New Student",
		"username": "student1",
		"email": "student1@test.cd",
		"password": "Str0ng&Uniq",
		"password_confirm": "Str0ng&Uniq",
		"role": "student"
	}`)

	tests := []httpTest{
		{
			name:     "auth required",
			body:     payload,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "teacher cannot register users",
			body:     payload,
			token:    getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "invalid role",
			body:     []byte(`{"name": "X", "username": "xxxx", "email": "x@test.cd", "password": "Str0ng&Uniq", "password_confirm": "Str0ng&Uniq", "role": "god"}`),
			token:    getToken(t, admin),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "admin registers a student",
			body:     payload,
			token:    getToken(t, admin),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate username",
			body:     payload,
			token:    getToken(t, admin),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
			if tt.wantCode == http.StatusCreated {
				var created user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
					t.Fatalf("unmarshalling created user: %v", err)
				}
				if created.Role != access.RoleStudent || !created.IsActive {
					t.Errorf("created user = %+v", created)
				}
			}
		})
	}
}

func TestUserDetail(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "s3cr3t", access.RoleAdmin, true)
	usr := testutil.CreateUser(t, app.usrRepo, "User", "awe", "awe@test.cd", "s3cr3t", access.RoleStudent, true)
	other := testutil.CreateUser(t, app.usrRepo, "Other", "other", "other@test.cd", "s3cr3t", access.RoleStudent, true)

	t.Run("user retrieves self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d", usr.ID), getToken(t, usr))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)
	})

	t.Run("user cannot retrieve another user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d", other.ID), getToken(t, usr))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("admin retrieves any user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d", other.ID), getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, other)}, rec)
	})

	t.Run("user cannot change own role", func(t *testing.T) {
		body := []byte(`{"role": "admin"}`)
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/users/%d", usr.ID), getToken(t, usr), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("user updates own name", func(t *testing.T) {
		body := []byte(`{"name": "Renamed"}`)
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/users/%d", usr.ID), getToken(t, usr), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling updated user: %v", err)
		}
		if updated.Name != "Renamed" {
			t.Errorf("name = %q, want Renamed", updated.Name)
		}
	})

	t.Run("admin cannot delete self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/users/%d", admin.ID), getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("admin deletes user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/users/%d", other.ID), getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}
	})
}

func TestUserQueryAndRoles(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "s3cr3t", access.RoleAdmin, true)
	usr := testutil.CreateUser(t, app.usrRepo, "User", "awe", "awe@test.cd", "s3cr3t", access.RoleStudent, true)

	t.Run("query requires admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, usr))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("admin lists users", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, admin, usr)}, rec)
	})

	t.Run("admin filters by role", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users?role=student", getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, usr)}, rec)
	})

	t.Run("roles list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, access.AllRoles)}, rec)
	})
}
