package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
)

const notificationColumns = `id, user_id, title, message, type, read, created_at`

type notificationRepository struct {
	exec core.DBExecutor
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(exec core.DBExecutor) *notificationRepository {
	return &notificationRepository{exec: exec}
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	q := `
	INSERT INTO notification (user_id, title, message, type, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	err := getExec(repo.exec, exec).QueryRowContext(
		ctx, q, n.UserID, n.Title, n.Message, n.Type, n.Read, n.CreatedAt.UTC(),
	).Scan(&n.ID)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) QueryNotificationsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]notification.Notification, error) {
	q := "SELECT " + notificationColumns + ` FROM notification WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	var notifs []notification.Notification
	if err := getExec(repo.exec, exec).SelectContext(ctx, &notifs, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifs, nil
}

func (repo notificationRepository) GetNotification(ctx context.Context, id int, exec ...core.DBExecutor) (notification.Notification, error) {
	var n notification.Notification
	q := "SELECT " + notificationColumns + " FROM notification WHERE id = $1"
	if err := getExec(repo.exec, exec).GetContext(ctx, &n, q, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "finding notification")
	}
	return n, nil
}

func (repo notificationRepository) MarkNotificationsRead(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	arr := make([]int64, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	_, err := getExec(repo.exec, exec).ExecContext(ctx, "UPDATE notification SET read = TRUE WHERE id = ANY($1)", pq.Array(arr))
	return errors.Wrap(err, "marking notifications read")
}

func (repo notificationRepository) CountUnread(ctx context.Context, userID int, exec ...core.DBExecutor) (int, error) {
	var cnt int
	q := "SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT read"
	if err := getExec(repo.exec, exec).GetContext(ctx, &cnt, q, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return cnt, nil
}
