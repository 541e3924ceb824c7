package service

import (
	"context"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
)

type PurchaseService interface {
	ListMine(ctx context.Context, req identity.Requester) ([]PurchaseWithItem, error)
	ListSales(ctx context.Context, req identity.Requester) ([]PurchaseWithItem, error)
	Get(ctx context.Context, req identity.Requester, id string) (*PurchaseWithItem, error)
	// Collect confirms handover through the purchase; it moves the item too.
	Collect(ctx context.Context, req identity.Requester, id string) (*PurchaseWithItem, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	itemRepo     repository.ItemRepository
	lifecycle    LifecycleService
}

// PurchaseWithItem pairs the record with the live item. Item is nil once the
// item has been deleted; the record's snapshot fields still describe it.
type PurchaseWithItem struct {
	Purchase model.PurchaseRecord
	Item     *model.Item
}

func NewPurchaseService(purchaseRepo repository.PurchaseRepository, itemRepo repository.ItemRepository, lifecycle LifecycleService) PurchaseService {
	return &purchaseService{purchaseRepo: purchaseRepo, itemRepo: itemRepo, lifecycle: lifecycle}
}

func (s *purchaseService) ListMine(ctx context.Context, req identity.Requester) ([]PurchaseWithItem, error) {
	if !req.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	list, err := s.purchaseRepo.ListByBuyer(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, list)
}

func (s *purchaseService) ListSales(ctx context.Context, req identity.Requester) ([]PurchaseWithItem, error) {
	if !req.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	list, err := s.purchaseRepo.ListBySeller(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, list)
}

func (s *purchaseService) Get(ctx context.Context, req identity.Requester, id string) (*PurchaseWithItem, error) {
	if !req.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	p, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != req.ID && p.SellerID != req.ID && !req.IsAdmin {
		return nil, apperr.ErrForbidden
	}
	out, err := s.withItems(ctx, []model.PurchaseRecord{*p})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *purchaseService) Collect(ctx context.Context, req identity.Requester, id string) (*PurchaseWithItem, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	p, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != req.ID {
		return nil, apperr.ErrForbidden
	}
	res, err := s.lifecycle.Collect(ctx, req, p.ItemID)
	if err != nil {
		return nil, err
	}
	updated, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PurchaseWithItem{Purchase: *updated, Item: res.Item}, nil
}

func (s *purchaseService) withItems(ctx context.Context, list []model.PurchaseRecord) ([]PurchaseWithItem, error) {
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ItemID)
	}
	items, err := s.itemRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	out := make([]PurchaseWithItem, 0, len(list))
	for _, p := range list {
		out = append(out, PurchaseWithItem{Purchase: p, Item: byID[p.ItemID]})
	}
	return out, nil
}
