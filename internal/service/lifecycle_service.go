package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
)

// TransitionResult reports the primary transition together with the outcome
// of the cart purge that follows it. A non-nil PurgeErr never undoes Item.
type TransitionResult struct {
	Item        *model.Item
	From        lifecycle.Status
	CartsPurged int64
	PurgeErr    error
}

type TransitionOptions struct {
	// Override takes the admin moderation path instead of the regular table.
	Override bool
	// Condition corrects the item condition; only valid on admin approval.
	Condition *string
	Note      string
}

type LifecycleService interface {
	Transition(ctx context.Context, req identity.Requester, itemID string, to lifecycle.Status, opts TransitionOptions) (*TransitionResult, error)
	Submit(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error)
	Withdraw(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error)
	Unlist(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error)
	Collect(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error)
}

type lifecycleService struct {
	items     repository.ItemRepository
	purchases repository.PurchaseRepository
	carts     CartPurger
	notify    NotificationService
	now       func() time.Time
}

func NewLifecycleService(items repository.ItemRepository, purchases repository.PurchaseRepository, carts CartPurger, notify NotificationService) LifecycleService {
	return &lifecycleService{
		items:     items,
		purchases: purchases,
		carts:     carts,
		notify:    orNoop(notify),
		now:       time.Now,
	}
}

func (s *lifecycleService) Submit(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error) {
	return s.Transition(ctx, req, itemID, lifecycle.StatusPending, TransitionOptions{})
}

// Withdraw is the seller's way back: a submission returns to draft, a live
// listing is withdrawn.
func (s *lifecycleService) Withdraw(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	to := lifecycle.StatusWithdrawn
	if item.Status == lifecycle.StatusPending {
		to = lifecycle.StatusDraft
	}
	return s.Transition(ctx, req, itemID, to, TransitionOptions{})
}

func (s *lifecycleService) Unlist(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error) {
	return s.Transition(ctx, req, itemID, lifecycle.StatusPending, TransitionOptions{})
}

// Collect is idempotent for the buyer: collecting an already collected item
// returns it unchanged.
func (s *lifecycleService) Collect(ctx context.Context, req identity.Requester, itemID string) (*TransitionResult, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == lifecycle.StatusCollected {
		if !item.SoldTo(req.ID) {
			return nil, apperr.ErrForbidden
		}
		return &TransitionResult{Item: item, From: item.Status}, nil
	}
	return s.Transition(ctx, req, itemID, lifecycle.StatusCollected, TransitionOptions{})
}

func (s *lifecycleService) Transition(ctx context.Context, req identity.Requester, itemID string, to lifecycle.Status, opts TransitionOptions) (*TransitionResult, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	if opts.Override && !req.IsAdmin {
		return nil, apperr.ErrForbidden
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	from := item.Status
	if item.Reserved() {
		// Cancel the holding order first; it releases the item to for-sale.
		return nil, apperr.Transition(from.String(), to.String())
	}

	if opts.Override {
		err = lifecycle.CheckOverride(from, to)
	} else {
		err = lifecycle.Check(from, to, actorsFor(req, item))
	}
	if err != nil {
		return nil, err
	}

	set, err := s.fieldsFor(req, item, to, opts)
	if err != nil {
		return nil, err
	}
	swapped, err := s.items.CompareAndSwapStatus(ctx, itemID, from, to, set)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Someone moved the item between our read and the swap.
		current, ferr := s.items.FindByID(ctx, itemID)
		if ferr != nil {
			return nil, ferr
		}
		return nil, apperr.Transition(current.Status.String(), to.String())
	}

	if to == lifecycle.StatusCollected && s.purchases != nil {
		if _, err := s.purchases.MarkCollectedIfPending(ctx, itemID, req.ID); err != nil {
			log.Printf("collect item %s: purchase record not updated: %v", itemID, err)
		}
	}

	updated, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	res := &TransitionResult{Item: updated, From: from}
	if lifecycle.LeavesMarket(from, to) {
		purgeItem(ctx, s.carts, itemID, res)
	}
	s.announce(ctx, updated, from, opts.Note)
	return res, nil
}

func (s *lifecycleService) fieldsFor(req identity.Requester, item *model.Item, to lifecycle.Status, opts TransitionOptions) (map[string]interface{}, error) {
	set := map[string]interface{}{}
	approving := item.Status == lifecycle.StatusPending && to == lifecycle.StatusForSale && req.IsAdmin
	if opts.Condition != nil {
		if !approving {
			return nil, apperr.Validation("condition can only be corrected during approval")
		}
		c, err := model.ParseCondition(*opts.Condition)
		if err != nil {
			return nil, err
		}
		set["item_condition"] = c
	}
	now := s.now()
	if approving {
		set["approved_by"] = req.ID
		set["approved_at"] = now
	}
	if to == lifecycle.StatusCollected {
		set["collected_by"] = req.ID
		set["collected_at"] = now
	}
	if to.ForbidsBuyer() {
		set["buyer_id"] = nil
	}
	if note := strings.TrimSpace(opts.Note); note != "" {
		set["moderation_note"] = note
	}
	return set, nil
}

func (s *lifecycleService) announce(ctx context.Context, item *model.Item, from lifecycle.Status, note string) {
	n := Notice{To: item.SellerID, ItemID: item.ID, Body: item.Title}
	switch {
	case from == lifecycle.StatusPending && item.Status == lifecycle.StatusForSale:
		n.Type, n.Title = model.NotificationItemApproved, "Your item is live"
	case from == lifecycle.StatusPending && item.Status == lifecycle.StatusDraft && note != "":
		n.Type, n.Title, n.Body = model.NotificationItemRejected, "Your item was returned to draft", note
	case item.Status == lifecycle.StatusSuspended:
		n.Type, n.Title, n.Body = model.NotificationItemSuspended, "Your item was suspended", note
	case item.Status == lifecycle.StatusCollected:
		n.Type, n.Title = model.NotificationItemCollected, "Your item was collected"
	default:
		return
	}
	s.notify.Notify(ctx, n)
}

// purgeItem is the compensating step after an item leaves the market. Its
// failure is recorded on res and logged; the sweep in ReconcileAllCarts
// removes whatever is left behind.
func purgeItem(ctx context.Context, carts CartPurger, itemID string, res *TransitionResult) {
	if carts == nil {
		return
	}
	n, err := carts.RemoveItemFromAllCarts(ctx, itemID)
	res.CartsPurged = n
	if err != nil {
		res.PurgeErr = fmt.Errorf("purge item %s from carts: %w", itemID, err)
		log.Printf("%v", res.PurgeErr)
	}
}
