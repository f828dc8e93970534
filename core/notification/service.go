package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
		// QueryNotificationsByUser returns the user's notifications, most recent first.
		QueryNotificationsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Notification, error)
		GetNotification(ctx context.Context, id int, exec ...core.DBExecutor) (Notification, error)
		MarkNotificationsRead(ctx context.Context, ids []int, exec ...core.DBExecutor) error
		CountUnread(ctx context.Context, userID int, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Notify(ctx context.Context, userID int, title, message string, ntype ...string) (Notification, error)
		// ListAndMarkRead returns the user's notifications, most recent
		// first, and flips every unread one to read. Peek is the
		// side-effect-free variant.
		ListAndMarkRead(ctx context.Context, userID int) ([]Notification, error)
		Peek(ctx context.Context, userID int) ([]Notification, error)
		MarkRead(ctx context.Context, id int, principal access.Principal) (Notification, error)
		UnreadCount(ctx context.Context, userID int) (int, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository) Service {
	return &service{db: db, repo: repo}
}

func (svc *service) Notify(ctx context.Context, userID int, title, message string, ntype ...string) (Notification, error) {
	typ := TypeInfo
	if len(ntype) > 0 {
		typ = ntype[0]
	}
	return svc.repo.CreateNotification(ctx, Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) ListAndMarkRead(ctx context.Context, userID int) ([]Notification, error) {
	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}

	notifs, err := svc.repo.QueryNotificationsByUser(ctx, userID, tx)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	var unread []int
	for _, n := range notifs {
		if !n.Read {
			unread = append(unread, n.ID)
		}
	}
	if len(unread) > 0 {
		if err = svc.repo.MarkNotificationsRead(ctx, unread, tx); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return notifs, nil
}

func (svc *service) Peek(ctx context.Context, userID int) ([]Notification, error) {
	return svc.repo.QueryNotificationsByUser(ctx, userID)
}

func (svc *service) MarkRead(ctx context.Context, id int, principal access.Principal) (Notification, error) {
	n, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.UserID != principal.ID {
		return Notification{}, core.NewPermissionError("notification belongs to another user")
	}
	if !n.Read {
		if err = svc.repo.MarkNotificationsRead(ctx, []int{n.ID}); err != nil {
			return Notification{}, err
		}
		n.Read = true
	}
	return n, nil
}

func (svc *service) UnreadCount(ctx context.Context, userID int) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}
