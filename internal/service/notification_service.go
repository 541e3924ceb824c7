package service

import (
	"context"
	"log"
	"time"

	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
)

const noticeTimeout = 2 * time.Second

// Notice is one message queued for a user. Empty ItemID or PurchaseID means
// the notice is not tied to that resource.
type Notice struct {
	To         string
	Type       model.NotificationType
	Title      string
	Body       string
	ItemID     string
	PurchaseID string
}

type NotificationPage struct {
	Notifications []model.Notification
	Unread        int64
}

type NotificationService interface {
	// Notify never fails the caller. Store errors are logged and dropped.
	Notify(ctx context.Context, n Notice)
	List(ctx context.Context, req identity.Requester, unreadOnly bool, limit int) (*NotificationPage, error)
	MarkAllRead(ctx context.Context, req identity.Requester) (int64, error)
	MarkByItem(ctx context.Context, req identity.Requester, itemID string) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo, now: time.Now}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s *notificationService) Notify(ctx context.Context, n Notice) {
	if n.To == "" || n.Type == "" {
		return
	}
	// Detached from the request so a cancelled client does not drop the row.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), noticeTimeout)
	defer cancel()
	row := &model.Notification{
		UserUID:    n.To,
		Type:       n.Type,
		Title:      n.Title,
		Body:       n.Body,
		ItemID:     optional(n.ItemID),
		PurchaseID: optional(n.PurchaseID),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		log.Printf("notification: %s for %s dropped: %v", n.Type, n.To, err)
	}
}

func (s *notificationService) List(ctx context.Context, req identity.Requester, unreadOnly bool, limit int) (*NotificationPage, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, repository.NotificationFilter{
		UserUID:    req.ID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{Notifications: list, Unread: unread}, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, req identity.Requester) (int64, error) {
	if err := requireActive(req); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, req.ID, "", s.now())
}

func (s *notificationService) MarkByItem(ctx context.Context, req identity.Requester, itemID string) (int64, error) {
	if err := requireActive(req); err != nil {
		return 0, err
	}
	if itemID == "" {
		return 0, nil
	}
	return s.repo.MarkRead(ctx, req.ID, itemID, s.now())
}

type noopNotifications struct{}

func (noopNotifications) Notify(context.Context, Notice) {}

func (noopNotifications) List(context.Context, identity.Requester, bool, int) (*NotificationPage, error) {
	return &NotificationPage{}, nil
}

func (noopNotifications) MarkAllRead(context.Context, identity.Requester) (int64, error) {
	return 0, nil
}

func (noopNotifications) MarkByItem(context.Context, identity.Requester, string) (int64, error) {
	return 0, nil
}

func orNoop(n NotificationService) NotificationService {
	if n == nil {
		return noopNotifications{}
	}
	return n
}
