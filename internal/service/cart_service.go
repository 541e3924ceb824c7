package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shopspring/decimal"
)

const reconcileBatchSize = 200

type CartLine struct {
	Entry     model.CartEntry
	Item      model.Item
	LineTotal decimal.Decimal
}

type CartView struct {
	CartID string
	Lines  []CartLine
	Total  decimal.Decimal
}

type ReconcileReport struct {
	Scanned      int
	MissingItems int
	Unavailable  int
	Removed      int64
}

// CartPurger is the part of the cart service other services depend on.
type CartPurger interface {
	RemoveItemFromAllCarts(ctx context.Context, itemID string) (int64, error)
	RemoveUserCartEntries(ctx context.Context, userID string) (int64, error)
}

type CartService interface {
	CartPurger
	Add(ctx context.Context, req identity.Requester, itemID string, quantity int) (*CartView, error)
	Remove(ctx context.Context, req identity.Requester, itemID string) (*CartView, error)
	Get(ctx context.Context, req identity.Requester) (*CartView, error)
	ReconcileAllCarts(ctx context.Context) (ReconcileReport, error)
}

type cartService struct {
	carts repository.CartRepository
	items repository.ItemRepository
}

func NewCartService(carts repository.CartRepository, items repository.ItemRepository) CartService {
	return &cartService{carts: carts, items: items}
}

func (s *cartService) Add(ctx context.Context, req identity.Requester, itemID string, quantity int) (*CartView, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, apperr.Validation("itemId is required")
	}
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Status.Purchasable() {
		return nil, apperr.Validation("item is not for sale")
	}
	if item.SellerID == req.ID {
		return nil, apperr.Validation("cannot add your own item to cart")
	}
	entry := &model.CartEntry{
		ID:       uuid.NewString(),
		CartID:   req.ID,
		ItemID:   itemID,
		Quantity: quantity,
	}
	if err := s.carts.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return s.view(ctx, req.ID)
}

func (s *cartService) Remove(ctx context.Context, req identity.Requester, itemID string) (*CartView, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	if _, err := s.carts.DeleteEntry(ctx, req.ID, itemID); err != nil {
		return nil, err
	}
	return s.view(ctx, req.ID)
}

func (s *cartService) Get(ctx context.Context, req identity.Requester) (*CartView, error) {
	if !req.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	return s.view(ctx, req.ID)
}

// view hides entries whose item is gone or off the market; the sweep deletes them.
func (s *cartService) view(ctx context.Context, cartID string) (*CartView, error) {
	entries, err := s.carts.ListByCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ItemID)
	}
	items, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	v := &CartView{CartID: cartID, Lines: make([]CartLine, 0, len(entries)), Total: decimal.Zero}
	for _, e := range entries {
		it, ok := byID[e.ItemID]
		if !ok || !it.Status.Purchasable() {
			continue
		}
		line := CartLine{Entry: e, Item: it, LineTotal: it.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))}
		v.Lines = append(v.Lines, line)
		v.Total = v.Total.Add(line.LineTotal)
	}
	return v, nil
}

func (s *cartService) RemoveItemFromAllCarts(ctx context.Context, itemID string) (int64, error) {
	if itemID == "" {
		return 0, apperr.Validation("itemId is required")
	}
	return s.carts.DeleteByItem(ctx, itemID)
}

func (s *cartService) RemoveUserCartEntries(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperr.Validation("userId is required")
	}
	return s.carts.DeleteByCart(ctx, userID)
}

func (s *cartService) ReconcileAllCarts(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	entries, err := s.carts.ListAll(ctx)
	if err != nil {
		return report, err
	}
	report.Scanned = len(entries)

	seen := map[string]bool{}
	var ids []string
	for _, e := range entries {
		if !seen[e.ItemID] {
			seen[e.ItemID] = true
			ids = append(ids, e.ItemID)
		}
	}
	status := make(map[string]model.Item, len(ids))
	for start := 0; start < len(ids); start += reconcileBatchSize {
		end := start + reconcileBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		items, err := s.items.FindByIDs(ctx, ids[start:end])
		if err != nil {
			return report, err
		}
		for _, it := range items {
			status[it.ID] = it
		}
	}

	var stale []string
	for _, e := range entries {
		it, ok := status[e.ItemID]
		switch {
		case !ok:
			report.MissingItems++
			stale = append(stale, e.ID)
		case !it.Status.Purchasable():
			report.Unavailable++
			stale = append(stale, e.ID)
		}
	}
	var errs []error
	for start := 0; start < len(stale); start += reconcileBatchSize {
		end := start + reconcileBatchSize
		if end > len(stale) {
			end = len(stale)
		}
		n, err := s.carts.DeleteByIDs(ctx, stale[start:end])
		report.Removed += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(stale) > 0 {
		log.Printf("cart reconcile: scanned=%d missing=%d unavailable=%d removed=%d", report.Scanned, report.MissingItems, report.Unavailable, report.Removed)
	}
	return report, errors.Join(errs...)
}
