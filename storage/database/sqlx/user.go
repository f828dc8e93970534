package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
)

const userColumns = "id, name, username, email, role, is_active, password_hash, created_at, updated_at, last_login"

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	qb := new(queryBuilder)
	qb.where("(lower(username) = lower(" + qb.arg(username) + ") OR lower(email) = lower(" + qb.arg(email) + "))")
	if len(excludedUsers) > 0 {
		ids := make([]int64, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, int64(u.ID))
		}
		qb.where("id <> ALL(" + qb.arg(pq.Array(ids)) + ")")
	}

	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	q := "SELECT username, email FROM user_account" + qb.clause()
	if err := getExec(repo.exec, exec).SelectContext(ctx, &taken, q, qb.args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}

	var unameTaken, emailTaken bool
	for _, t := range taken {
		if strings.EqualFold(t.Username, username) {
			unameTaken = true
		}
		if strings.EqualFold(t.Email, email) {
			emailTaken = true
		}
	}
	switch {
	case unameTaken && emailTaken:
		return user.ErrUserExists
	case unameTaken:
		return user.ErrUsernameExists
	case emailTaken:
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `
	INSERT INTO user_account (name, username, email, role, is_active, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, last_login`
	err := getExec(repo.exec, exec).QueryRowContext(
		ctx, q,
		usr.Name, usr.Username, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash,
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	).Scan(&usr.ID, &usr.LastLogin)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	qb := new(queryBuilder)
	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			qb.where("(name ILIKE " + qb.arg(val) + " OR username ILIKE " + qb.arg(val) + " OR email ILIKE " + qb.arg(val) + ")")
		}
		if filter.Role != "" {
			qb.where("role = " + qb.arg(filter.Role))
		}
		if filter.IsActive != nil {
			qb.where("is_active = " + qb.arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			qb.where("created_at >= " + qb.arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			qb.where("created_at <= " + qb.arg(filter.CreatedTo.UTC()))
		}
	}

	q := "SELECT " + userColumns + " FROM user_account" + qb.clause() + orderBy(ordering)
	var users []user.User
	if err := getExec(repo.exec, exec).SelectContext(ctx, &users, q, qb.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	qb := new(queryBuilder)
	switch {
	case filter.ID != 0:
		qb.where("id = " + qb.arg(filter.ID))
	case filter.Username != "":
		qb.where("username = " + qb.arg(filter.Username))
	case filter.Email != "":
		qb.where("email = " + qb.arg(filter.Email))
	case len(filter.UsernameOrEmail) > 0:
		uname := filter.UsernameOrEmail[0]
		email := uname
		if len(filter.UsernameOrEmail) == 2 && filter.UsernameOrEmail[1] != "" {
			email = filter.UsernameOrEmail[1]
		}
		qb.where("(username = " + qb.arg(uname) + " OR email = " + qb.arg(email) + ")")
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	q := "SELECT " + userColumns + " FROM user_account" + qb.clause()
	if err := getExec(repo.exec, exec).GetContext(ctx, &usr, q, qb.args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	qb := new(queryBuilder)
	var sets []string
	set := func(col string, v interface{}) { sets = append(sets, col+" = "+qb.arg(v)) }

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Role != "" {
		set("role", usr.Role)
	}
	if len(usr.PasswordHash) > 0 {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt.UTC())
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin.UTC())
	}
	if len(sets) == 0 {
		return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
	}

	q := "UPDATE user_account SET " + strings.Join(sets, ", ") +
		" WHERE id = " + qb.arg(usr.ID) +
		" RETURNING " + userColumns
	var updated user.User
	if err := getExec(repo.exec, exec).GetContext(ctx, &updated, q, qb.args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return updated, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []int, exec ...core.DBExecutor) (int, error) {
	arr := make([]int64, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	res, err := getExec(repo.exec, exec).ExecContext(ctx, "DELETE FROM user_account WHERE id = ANY($1)", pq.Array(arr))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
