package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
)

const maxBulkItems = 100

type BulkItemOutcome struct {
	ItemID      string
	Status      lifecycle.Status
	CartsPurged int64
	Err         error
}

type BulkResult struct {
	Updated  int
	Failed   int
	Outcomes []BulkItemOutcome
}

// AdminService gates every call on the requester's admin flag before it looks
// at the payload.
type AdminService interface {
	Approve(ctx context.Context, req identity.Requester, itemID string, condition *string) (*TransitionResult, error)
	Reject(ctx context.Context, req identity.Requester, itemID, reason string) (*TransitionResult, error)
	Suspend(ctx context.Context, req identity.Requester, itemID, reason string) (*TransitionResult, error)
	Override(ctx context.Context, req identity.Requester, itemID, status, note string) (*TransitionResult, error)
	BulkOverride(ctx context.Context, req identity.Requester, itemIDs []string, status string) (*BulkResult, error)
	DeleteItem(ctx context.Context, req identity.Requester, itemID string) (*DeleteResult, error)
	SuspendUser(ctx context.Context, req identity.Requester, uid string) error
	ReinstateUser(ctx context.Context, req identity.Requester, uid string) error
	GrantAdmin(ctx context.Context, req identity.Requester, uid string) error
	RevokeAdmin(ctx context.Context, req identity.Requester, uid string) error
	ReconcileCarts(ctx context.Context, req identity.Requester) (ReconcileReport, error)
	AuditLogs(ctx context.Context, req identity.Requester, f repository.AuditLogFilter) ([]model.AuditLog, error)
}

type adminService struct {
	lifecycle LifecycleService
	items     ItemService
	carts     CartService
	profiles  repository.UserProfileRepository
	audit     repository.AuditLogRepository
	directory identity.Directory
	now       func() time.Time
}

func NewAdminService(lc LifecycleService, items ItemService, carts CartService, profiles repository.UserProfileRepository, audit repository.AuditLogRepository, directory identity.Directory) AdminService {
	return &adminService{
		lifecycle: lc,
		items:     items,
		carts:     carts,
		profiles:  profiles,
		audit:     audit,
		directory: directory,
		now:       time.Now,
	}
}

func (s *adminService) Approve(ctx context.Context, req identity.Requester, itemID string, condition *string) (*TransitionResult, error) {
	if err := requireAdmin(req); err != nil {
		return nil, err
	}
	res, err := s.lifecycle.Transition(ctx, req, itemID, lifecycle.StatusForSale, TransitionOptions{Condition: condition})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, req, model.AuditActionApproveItem, res)
	return res, nil
}

// Reject sends an item back to the seller as a draft, from review or from a
// live listing.
func (s *adminService) Reject(ctx context.Context, req identity.Requester, itemID, reason string) (*TransitionResult, error) {
	if err := requireAdmin(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("reason is required")
	}
	res, err := s.lifecycle.Transition(ctx, req, itemID, lifecycle.StatusDraft, TransitionOptions{Override: true, Note: reason})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, req, model.AuditActionRejectItem, res)
	return res, nil
}

func (s *adminService) Suspend(ctx context.Context, req identity.Requester, itemID, reason string) (*TransitionResult, error) {
	if err := requireAdmin(req); err != nil {
		return nil, err
	}
	res, err := s.lifecycle.Transition(ctx, req, itemID, lifecycle.StatusSuspended, TransitionOptions{Override: true, Note: reason})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, req, model.AuditActionSuspendItem, res)
	return res, nil
}

func (s *adminService) Override(ctx context.Context, req identity.Requester, itemID, status, note string) (*TransitionResult, error) {
	if err := requireAdmin(req); err != nil {
		return nil, err
	}
	to, err := lifecycle.ParseAny(status)
	if err != nil {
		return nil, err
	}
	res, err := s.lifecycle.Transition(ctx, req, itemID, to, TransitionOptions{Override: true, Note: note})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, req, model.AuditActionOverrideStatus, res)
	return res, nil
}

// BulkOverride applies the same override to each item independently.
func (s *adminService) BulkOverride(ctx context.Context, req identity.Requester, itemIDs []string, status string) (*BulkResult, error) {
	if err := requireAdmin(req); err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, apperr.Validation("itemIds is required")
	}
	if len(itemIDs) > maxBulkItems {
		return nil, apperr.Validation("at most %d items per request", maxBulkItems)
	}
	to, err := lifecycle.ParseAny(status)
	if err != nil {
		return nil, err
	}
	out := &BulkResult{}
	for _, id := range itemIDs {
		res, err := s.lifecycle.Transition(ctx, req, id, to, TransitionOptions{Override: true})
		o := BulkItemOutcome{ItemID: id, Err: err}
		if err != nil {
			out.Failed++
		} else {
			out.Updated++
			o.Status = res.Item.Status
			o.CartsPurged = res.CartsPurged
			s.recordTransition(ctx, req, model.AuditActionOverrideStatus, res)
		}
		out.Outcomes = append(out.Outcomes, o)
	}
	return out, nil
}

func (s *adminService) DeleteItem(ctx context.Context, req identity.Requester, itemID string) (*DeleteResult, error) {
	if err := requireAdmin(req); err != nil {
		return nil, err
	}
	before, err := s.items.Get(ctx, req, itemID)
	if err != nil {
		return nil, err
	}
	res, err := s.items.Delete(ctx, req, itemID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, &model.AuditLog{
		ActorUID:     req.ID,
		Action:       model.AuditActionDeleteItem,
		ResourceType: model.AuditResourceItem,
		ResourceID:   itemID,
		BeforeJSON:   snapshot(map[string]interface{}{"status": before.Status, "sellerId": before.SellerID, "title": before.Title}),
		AfterJSON:    snapshot(map[string]interface{}{"deleted": true}),
		CartsPurged:  res.CartsPurged,
	})
	return res, nil
}

func (s *adminService) SuspendUser(ctx context.Context, req identity.Requester, uid string) error {
	return s.setSuspended(ctx, req, uid, true)
}

func (s *adminService) ReinstateUser(ctx context.Context, req identity.Requester, uid string) error {
	return s.setSuspended(ctx, req, uid, false)
}

func (s *adminService) setSuspended(ctx context.Context, req identity.Requester, uid string, suspended bool) error {
	if err := requireAdmin(req); err != nil {
		return err
	}
	if uid = strings.TrimSpace(uid); uid == "" {
		return apperr.Validation("uid is required")
	}
	if suspended && uid == req.ID {
		return apperr.Validation("cannot suspend yourself")
	}
	before, err := s.profiles.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.profiles.SetSuspended(ctx, uid, suspended); err != nil {
		return err
	}
	// The profile flag is what the middleware enforces; the directory copy
	// only stops new sign-ins.
	if s.directory != nil {
		if err := s.directory.SetDisabled(ctx, uid, suspended); err != nil {
			log.Printf("admin %s: directory disable=%v for %s failed: %v", req.ID, suspended, uid, err)
		}
	}
	action := model.AuditActionSuspendUser
	if !suspended {
		action = model.AuditActionReinstateUser
	}
	s.record(ctx, &model.AuditLog{
		ActorUID:     req.ID,
		Action:       action,
		ResourceType: model.AuditResourceUser,
		ResourceID:   uid,
		BeforeJSON:   snapshot(map[string]interface{}{"suspended": before.Suspended}),
		AfterJSON:    snapshot(map[string]interface{}{"suspended": suspended}),
	})
	return nil
}

func (s *adminService) GrantAdmin(ctx context.Context, req identity.Requester, uid string) error {
	return s.setAdmin(ctx, req, uid, true)
}

func (s *adminService) RevokeAdmin(ctx context.Context, req identity.Requester, uid string) error {
	return s.setAdmin(ctx, req, uid, false)
}

func (s *adminService) setAdmin(ctx context.Context, req identity.Requester, uid string, admin bool) error {
	if err := requireAdmin(req); err != nil {
		return err
	}
	if uid = strings.TrimSpace(uid); uid == "" {
		return apperr.Validation("uid is required")
	}
	if !admin && uid == req.ID {
		return apperr.Validation("cannot revoke your own admin role")
	}
	email := ""
	if s.directory != nil {
		e, err := s.directory.LookupEmail(ctx, uid)
		if err != nil {
			return err
		}
		email = e
	}
	before, err := s.profiles.Ensure(ctx, uid, email)
	if err != nil {
		return err
	}
	if err := s.profiles.SetAdmin(ctx, uid, admin); err != nil {
		return err
	}
	if s.directory != nil {
		if err := s.directory.SetAdminClaim(ctx, uid, admin); err != nil {
			log.Printf("admin %s: directory admin=%v for %s failed: %v", req.ID, admin, uid, err)
		}
	}
	action := model.AuditActionGrantAdmin
	if !admin {
		action = model.AuditActionRevokeAdmin
	}
	s.record(ctx, &model.AuditLog{
		ActorUID:     req.ID,
		Action:       action,
		ResourceType: model.AuditResourceUser,
		ResourceID:   uid,
		BeforeJSON:   snapshot(map[string]interface{}{"isAdmin": before.IsAdmin}),
		AfterJSON:    snapshot(map[string]interface{}{"isAdmin": admin}),
	})
	return nil
}

func (s *adminService) ReconcileCarts(ctx context.Context, req identity.Requester) (ReconcileReport, error) {
	if err := requireAdmin(req); err != nil {
		return ReconcileReport{}, err
	}
	report, err := s.carts.ReconcileAllCarts(ctx)
	s.record(ctx, &model.AuditLog{
		ActorUID:     req.ID,
		Action:       model.AuditActionReconcileCarts,
		ResourceType: model.AuditResourceCart,
		ResourceID:   "*",
		AfterJSON:    snapshot(report),
		CartsPurged:  report.Removed,
	})
	return report, err
}

func (s *adminService) AuditLogs(ctx context.Context, req identity.Requester, f repository.AuditLogFilter) ([]model.AuditLog, error) {
	if err := requireAdmin(req); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, f)
}

func (s *adminService) recordTransition(ctx context.Context, req identity.Requester, action model.AuditAction, res *TransitionResult) {
	after := map[string]interface{}{"status": res.Item.Status}
	if res.Item.ModerationNote != "" {
		after["note"] = res.Item.ModerationNote
	}
	if res.PurgeErr != nil {
		after["purgeError"] = res.PurgeErr.Error()
	}
	s.record(ctx, &model.AuditLog{
		ActorUID:     req.ID,
		Action:       action,
		ResourceType: model.AuditResourceItem,
		ResourceID:   res.Item.ID,
		BeforeJSON:   snapshot(map[string]interface{}{"status": res.From}),
		AfterJSON:    snapshot(after),
		CartsPurged:  res.CartsPurged,
	})
}

// record never fails the admin action it describes.
func (s *adminService) record(ctx context.Context, entry *model.AuditLog) {
	if s.audit == nil {
		return
	}
	entry.ID = ulid.Make().String()
	entry.CreatedAt = s.now()
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Printf("audit %s %s/%s by %s: %v", entry.Action, entry.ResourceType, entry.ResourceID, entry.ActorUID, err)
	}
}

func snapshot(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
