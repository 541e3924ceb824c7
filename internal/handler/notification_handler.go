package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type NotificationResponse struct {
	ID         uint64                 `json:"id"`
	Type       model.NotificationType `json:"type"`
	Title      string                 `json:"title"`
	Body       string                 `json:"body,omitempty"`
	ItemID     *string                `json:"itemId,omitempty"`
	PurchaseID *string                `json:"purchaseId,omitempty"`
	ReadAt     *string                `json:"readAt"`
	CreatedAt  string                 `json:"createdAt"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
}

func toNotificationResponse(n *model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Body:       n.Body,
		ItemID:     n.ItemID,
		PurchaseID: n.PurchaseID,
		CreatedAt:  n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !n.Unread() {
		at := n.ReadAt.UTC().Format(time.RFC3339)
		resp.ReadAt = &at
	}
	return resp
}

// List defaults to unread only; pass unread_only=false for the full inbox.
func (h *NotificationHandler) List(c echo.Context) error {
	unreadOnly := c.QueryParam("unread_only") != "false"
	page, err := h.svc.List(c.Request().Context(), requester(c), unreadOnly, queryInt(c, "limit"))
	if err != nil {
		return respondError(c, err)
	}
	out := NotificationListResponse{
		Notifications: make([]NotificationResponse, 0, len(page.Notifications)),
		UnreadCount:   page.Unread,
	}
	for i := range page.Notifications {
		out.Notifications = append(out.Notifications, toNotificationResponse(&page.Notifications[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	n, err := h.svc.MarkAllRead(c.Request().Context(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"marked": n})
}

func (h *NotificationHandler) MarkItemRead(c echo.Context) error {
	n, err := h.svc.MarkByItem(c.Request().Context(), requester(c), c.Param("itemId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"marked": n})
}
