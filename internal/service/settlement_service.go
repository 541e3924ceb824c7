package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shopspring/decimal"
)

// Reasons an entry was passed over during settlement.
const (
	SkipItemMissing    = "item_missing"
	SkipOwnItem        = "own_item"
	SkipNotForSale     = "not_for_sale"
	SkipAlreadySettled = "already_settled"
	SkipLostRace       = "lost_race"
	SkipStoreError     = "store_error"
)

type SettlementRequest struct {
	BuyerID    string
	BuyerEmail string
	PaymentID  string
	// AmountGross is what the gateway says was paid. Nil when unknown.
	AmountGross *decimal.Decimal
	Source      string
}

type SkippedEntry struct {
	ItemID string
	Reason string
}

type SettlementResult struct {
	BuyerID          string
	PaymentID        string
	ProcessedItemIDs []string
	Purchases        []model.PurchaseRecord
	Skipped          []SkippedEntry
	CartCleared      int64
}

func (r *SettlementResult) skip(itemID, reason string) {
	r.Skipped = append(r.Skipped, SkippedEntry{ItemID: itemID, Reason: reason})
}

type SettlementService interface {
	Settle(ctx context.Context, in SettlementRequest) (*SettlementResult, error)
}

type settlementService struct {
	tx       repository.TransactionManager
	carts    repository.CartRepository
	items    repository.ItemRepository
	profiles repository.UserProfileRepository
	purger   CartPurger
	notify   NotificationService
}

func NewSettlementService(tx repository.TransactionManager, carts repository.CartRepository, items repository.ItemRepository, profiles repository.UserProfileRepository, purger CartPurger, notify NotificationService) SettlementService {
	return &settlementService{
		tx:       tx,
		carts:    carts,
		items:    items,
		profiles: profiles,
		purger:   purger,
		notify:   orNoop(notify),
	}
}

// Settle turns the buyer's cart into purchase records. Each entry settles on
// its own: the purchase insert and the for-sale -> sold swap share one
// transaction, so the loser of a race leaves no record behind. Replaying the
// same payment id is a no-op per item.
func (s *settlementService) Settle(ctx context.Context, in SettlementRequest) (*SettlementResult, error) {
	in.BuyerID = strings.TrimSpace(in.BuyerID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	if in.BuyerID == "" {
		return nil, apperr.Validation("buyer id is required")
	}
	if in.PaymentID == "" {
		return nil, apperr.Validation("payment id is required")
	}

	res := &SettlementResult{BuyerID: in.BuyerID, PaymentID: in.PaymentID}
	entries, err := s.carts.ListByCart(ctx, in.BuyerID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return res, nil
	}
	if in.BuyerEmail == "" {
		in.BuyerEmail = s.emailOf(ctx, in.BuyerID)
	}

	total := decimal.Zero
	for _, entry := range entries {
		rec, reason := s.settleEntry(ctx, in, entry)
		if reason != "" {
			res.skip(entry.ItemID, reason)
			continue
		}
		res.ProcessedItemIDs = append(res.ProcessedItemIDs, rec.ItemID)
		res.Purchases = append(res.Purchases, *rec)
		total = total.Add(rec.TotalAmount)

		purge := &TransitionResult{}
		purgeItem(ctx, s.purger, rec.ItemID, purge)
		s.notify.Notify(ctx, Notice{
			To:         rec.SellerID,
			Type:       model.NotificationItemSold,
			Title:      "Your item was sold",
			Body:       rec.ItemTitle,
			ItemID:     rec.ItemID,
			PurchaseID: rec.ID,
		})
	}

	if s.purger != nil {
		n, err := s.purger.RemoveUserCartEntries(ctx, in.BuyerID)
		res.CartCleared = n
		if err != nil {
			log.Printf("settle %s: clearing cart of %s failed: %v", in.PaymentID, in.BuyerID, err)
		}
	}
	if in.AmountGross != nil && len(res.Purchases) > 0 && !in.AmountGross.Equal(total) {
		log.Printf("settle %s: gateway amount %s differs from settled total %s", in.PaymentID, in.AmountGross.StringFixed(2), total.StringFixed(2))
	}
	log.Printf("settle %s (%s): buyer=%s processed=%d skipped=%d", in.PaymentID, in.Source, in.BuyerID, len(res.ProcessedItemIDs), len(res.Skipped))
	return res, nil
}

func (s *settlementService) settleEntry(ctx context.Context, in SettlementRequest, entry model.CartEntry) (*model.PurchaseRecord, string) {
	item, err := s.items.FindByID(ctx, entry.ItemID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, SkipItemMissing
	}
	if err != nil {
		log.Printf("settle %s: load item %s: %v", in.PaymentID, entry.ItemID, err)
		return nil, SkipStoreError
	}
	if item.SellerID == in.BuyerID {
		return nil, SkipOwnItem
	}
	if item.Status.Settled() && item.SoldTo(in.BuyerID) {
		return nil, SkipAlreadySettled
	}
	// Reserved items settle through their order, never through the cart.
	if !item.Status.Purchasable() {
		return nil, SkipNotForSale
	}

	qty := entry.Quantity
	if qty < 1 {
		qty = 1
	}
	rec := &model.PurchaseRecord{
		ID:               uuid.NewString(),
		ItemID:           item.ID,
		ItemTitle:        item.Title,
		ItemPrice:        item.Price,
		Quantity:         qty,
		SellerID:         item.SellerID,
		SellerEmail:      s.emailOf(ctx, item.SellerID),
		BuyerID:          in.BuyerID,
		BuyerEmail:       in.BuyerEmail,
		PaymentID:        in.PaymentID,
		TotalAmount:      item.Price.Mul(decimal.NewFromInt(int64(qty))),
		Status:           model.PurchaseStatusPaid,
		CollectionStatus: model.CollectionStatusPending,
	}
	err = s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if err := r.Purchases().Create(ctx, rec); err != nil {
			return err
		}
		swapped, err := r.Items().CompareAndSwapStatus(ctx, item.ID, lifecycle.StatusForSale, lifecycle.StatusSold, map[string]interface{}{
			"buyer_id": in.BuyerID,
		})
		if err != nil {
			return err
		}
		if !swapped {
			return apperr.Transition(lifecycle.StatusForSale.String(), lifecycle.StatusSold.String())
		}
		return nil
	})
	switch {
	case err == nil:
		return rec, ""
	case errors.Is(err, repository.ErrDuplicate):
		return nil, SkipAlreadySettled
	case errors.Is(err, apperr.ErrInvalidTransition):
		return nil, SkipLostRace
	default:
		log.Printf("settle %s: item %s: %v", in.PaymentID, item.ID, err)
		return nil, SkipStoreError
	}
}

func (s *settlementService) emailOf(ctx context.Context, uid string) string {
	if s.profiles == nil {
		return ""
	}
	p, err := s.profiles.FindByID(ctx, uid)
	if err != nil {
		return ""
	}
	return p.Email
}
