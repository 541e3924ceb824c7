package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shinyyama/campus-market/internal/service"
)

type AdminHandler struct {
	svc service.AdminService
}

func NewAdminHandler(svc service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type ApproveRequest struct {
	Condition *string `json:"condition"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type OverrideRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type BulkStatusRequest struct {
	ItemIDs []string `json:"itemIds"`
	Status  string   `json:"status"`
}

type BulkOutcomeResponse struct {
	ItemID      string `json:"itemId"`
	Status      string `json:"status,omitempty"`
	CartsPurged int64  `json:"cartsPurged"`
	Error       string `json:"error,omitempty"`
}

type AuditLogResponse struct {
	ID           string `json:"id"`
	ActorUID     string `json:"actorUid"`
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	BeforeJSON   string `json:"before,omitempty"`
	AfterJSON    string `json:"after,omitempty"`
	CartsPurged  int64  `json:"cartsPurged"`
	CreatedAt    string `json:"createdAt"`
}

func (h *AdminHandler) Approve(c echo.Context) error {
	var body ApproveRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.svc.Approve(c.Request().Context(), requester(c), c.Param("id"), body.Condition)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res))
}

func (h *AdminHandler) Reject(c echo.Context) error {
	var body ReasonRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.svc.Reject(c.Request().Context(), requester(c), c.Param("id"), body.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res))
}

func (h *AdminHandler) Suspend(c echo.Context) error {
	var body ReasonRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.svc.Suspend(c.Request().Context(), requester(c), c.Param("id"), body.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res))
}

func (h *AdminHandler) Override(c echo.Context) error {
	var body OverrideRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.svc.Override(c.Request().Context(), requester(c), c.Param("id"), body.Status, body.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res))
}

func (h *AdminHandler) BulkStatus(c echo.Context) error {
	var body BulkStatusRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.svc.BulkOverride(c.Request().Context(), requester(c), body.ItemIDs, body.Status)
	if err != nil {
		return respondError(c, err)
	}
	outcomes := make([]BulkOutcomeResponse, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		r := BulkOutcomeResponse{ItemID: o.ItemID, Status: o.Status.String(), CartsPurged: o.CartsPurged}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		outcomes = append(outcomes, r)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"updated":  res.Updated,
		"failed":   res.Failed,
		"outcomes": outcomes,
	})
}

func (h *AdminHandler) DeleteItem(c echo.Context) error {
	res, err := h.svc.DeleteItem(c.Request().Context(), requester(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toDeleteResponse(res))
}

func (h *AdminHandler) SuspendUser(c echo.Context) error {
	return h.userAction(c, h.svc.SuspendUser)
}

func (h *AdminHandler) ReinstateUser(c echo.Context) error {
	return h.userAction(c, h.svc.ReinstateUser)
}

func (h *AdminHandler) GrantAdmin(c echo.Context) error {
	return h.userAction(c, h.svc.GrantAdmin)
}

func (h *AdminHandler) RevokeAdmin(c echo.Context) error {
	return h.userAction(c, h.svc.RevokeAdmin)
}

type userActionFunc func(ctx context.Context, req identity.Requester, uid string) error

func (h *AdminHandler) userAction(c echo.Context, fn userActionFunc) error {
	uid := c.Param("uid")
	if err := fn(c.Request().Context(), requester(c), uid); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "uid": uid})
}

func (h *AdminHandler) ReconcileCarts(c echo.Context) error {
	report, err := h.svc.ReconcileCarts(c.Request().Context(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scanned":      report.Scanned,
		"missingItems": report.MissingItems,
		"unavailable":  report.Unavailable,
		"removed":      report.Removed,
	})
}

func (h *AdminHandler) AuditLogs(c echo.Context) error {
	f := repository.AuditLogFilter{
		ActorUID:     c.QueryParam("actorUid"),
		Action:       model.AuditAction(c.QueryParam("action")),
		ResourceType: model.AuditResourceType(c.QueryParam("resourceType")),
		ResourceID:   c.QueryParam("resourceId"),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}
	for name, dst := range map[string]**time.Time{"from": &f.CreatedFrom, "to": &f.CreatedTo} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, name+" must be RFC3339")
		}
		*dst = &t
	}
	logs, err := h.svc.AuditLogs(c.Request().Context(), requester(c), f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditLogResponse{
			ID:           l.ID,
			ActorUID:     l.ActorUID,
			Action:       string(l.Action),
			ResourceType: string(l.ResourceType),
			ResourceID:   l.ResourceID,
			BeforeJSON:   l.BeforeJSON,
			AfterJSON:    l.AfterJSON,
			CartsPurged:  l.CartsPurged,
			CreatedAt:    l.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"auditLogs": out})
}
