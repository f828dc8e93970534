package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/access"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
	inmemdb "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database/inmem"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/tests"
)

func setup(t *testing.T) (notification.Service, notification.Repository) {
	t.Helper()
	db := inmemdb.Open()
	repo := inmemdb.NewNotificationRepository(db)
	return notification.NewService(db, repo), repo
}

func TestService_Notify(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	n, err := svc.Notify(ctx, 1, "Welcome", "You have been enrolled in Algebra")
	if err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if n.ID == 0 {
		t.Error("notification was not assigned an ID")
	}
	if n.Type != notification.TypeInfo {
		t.Errorf("Type = %q, want %q", n.Type, notification.TypeInfo)
	}
	if n.Read {
		t.Error("new notification must start unread")
	}
	if time.Since(n.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt = %v, want now", n.CreatedAt)
	}

	cnt, err := svc.UnreadCount(ctx, 1)
	if err != nil {
		t.Fatalf("UnreadCount() failed: %v", err)
	}
	if cnt != 1 {
		t.Errorf("UnreadCount() = %d, want 1", cnt)
	}

	warn, err := svc.Notify(ctx, 1, "Low attendance", "Your attendance dropped below 75%", notification.TypeWarning)
	if err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if warn.Type != notification.TypeWarning {
		t.Errorf("Type = %q, want %q", warn.Type, notification.TypeWarning)
	}
}

func TestService_ListAndMarkRead(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	userID := 1

	now := time.Now().UTC()
	old := testutil.CreateNotification(t, repo, userID, "Old", "already seen", true, now.Add(-2*time.Hour))
	unread := testutil.CreateNotification(t, repo, userID, "New", "grade updated", false, now.Add(-time.Hour))
	latest := testutil.CreateNotification(t, repo, userID, "Latest", "exam tomorrow", false, now)
	testutil.CreateNotification(t, repo, 2, "Foreign", "not yours", false, now)

	notifs, err := svc.ListAndMarkRead(ctx, userID)
	if err != nil {
		t.Fatalf("ListAndMarkRead() failed: %v", err)
	}
	if len(notifs) != 3 {
		t.Fatalf("got %d notifications, want 3", len(notifs))
	}

	// most recent first, read flags as they were before the flip
	wantOrder := []int{latest.ID, unread.ID, old.ID}
	wantRead := []bool{false, false, true}
	for i, n := range notifs {
		if n.ID != wantOrder[i] {
			t.Errorf("notifs[%d].ID = %d, want %d", i, n.ID, wantOrder[i])
		}
		if n.Read != wantRead[i] {
			t.Errorf("notifs[%d].Read = %v, want %v", i, n.Read, wantRead[i])
		}
	}

	// everything is read afterwards
	cnt, err := svc.UnreadCount(ctx, userID)
	if err != nil {
		t.Fatalf("UnreadCount() failed: %v", err)
	}
	if cnt != 0 {
		t.Errorf("UnreadCount() = %d, want 0", cnt)
	}

	// idempotent
	notifs, err = svc.ListAndMarkRead(ctx, userID)
	if err != nil {
		t.Fatalf("ListAndMarkRead() failed: %v", err)
	}
	for _, n := range notifs {
		if !n.Read {
			t.Errorf("second call returned unread notification %d", n.ID)
		}
	}

	// other user's notifications are untouched
	cnt, err = svc.UnreadCount(ctx, 2)
	if err != nil {
		t.Fatalf("UnreadCount() failed: %v", err)
	}
	if cnt != 1 {
		t.Errorf("UnreadCount(other) = %d, want 1", cnt)
	}
}

func TestService_Peek(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	userID := 1

	testutil.CreateNotification(t, repo, userID, "New", "grade updated", false)

	notifs, err := svc.Peek(ctx, userID)
	if err != nil {
		t.Fatalf("Peek() failed: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Read {
		t.Fatalf("Peek() = %v", notifs)
	}

	cnt, err := svc.UnreadCount(ctx, userID)
	if err != nil {
		t.Fatalf("UnreadCount() failed: %v", err)
	}
	if cnt != 1 {
		t.Errorf("Peek() flipped the read flag, UnreadCount() = %d", cnt)
	}
}

func TestService_MarkRead(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	owner := access.Principal{ID: 1, Role: access.RoleStudent}
	stranger := access.Principal{ID: 2, Role: access.RoleStudent}
	n := testutil.CreateNotification(t, repo, owner.ID, "New", "grade updated", false)

	t.Run("stranger is refused", func(t *testing.T) {
		_, err := svc.MarkRead(ctx, n.ID, stranger)
		var permErr *core.PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("MarkRead() error = %v, want a permission error", err)
		}
	})

	t.Run("owner marks read", func(t *testing.T) {
		marked, err := svc.MarkRead(ctx, n.ID, owner)
		if err != nil {
			t.Fatalf("MarkRead() failed: %v", err)
		}
		if !marked.Read {
			t.Error("MarkRead() did not flip the read flag")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.MarkRead(ctx, 999, owner)
		if errors.Cause(err) != notification.ErrNotFound {
			t.Errorf("MarkRead() error = %v, want %v", err, notification.ErrNotFound)
		}
	})
}
