package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shinyyama/campus-market/internal/storage"
	"github.com/shopspring/decimal"
)

const (
	maxTitleLen     = 120
	maxImages       = 10
	defaultPageSize = 20
	maxPageSize     = 100
)

// publicStatuses are visible to anyone browsing the catalogue.
var publicStatuses = map[lifecycle.Status]bool{
	lifecycle.StatusForSale:   true,
	lifecycle.StatusSold:      true,
	lifecycle.StatusCollected: true,
}

type CreateItemInput struct {
	Title             string
	Description       string
	Price             decimal.Decimal
	Category          string
	Condition         string
	Images            []string
	CollectionAddress string
}

// UpdateItemInput carries only the fields being changed.
type UpdateItemInput struct {
	Title             *string
	Description       *string
	Price             *decimal.Decimal
	Category          *string
	Condition         *string
	Images            *[]string
	CollectionAddress *string
}

type ListItemsInput struct {
	Filter repository.ItemFilter
	// Query is matched case-insensitively against title and description of
	// the fetched page only, so Total counts rows before the match.
	Query string
}

type ItemPage struct {
	Items []model.Item
	Total int64
}

type DeleteResult struct {
	ItemID      string
	CartsPurged int64
	PurgeErr    error
	ImageErr    error
}

type ItemService interface {
	Create(ctx context.Context, req identity.Requester, in CreateItemInput) (*model.Item, error)
	Get(ctx context.Context, req identity.Requester, id string) (*model.Item, error)
	Update(ctx context.Context, req identity.Requester, id string, in UpdateItemInput) (*model.Item, error)
	Delete(ctx context.Context, req identity.Requester, id string) (*DeleteResult, error)
	List(ctx context.Context, req identity.Requester, in ListItemsInput) (*ItemPage, error)
}

type itemService struct {
	repo   repository.ItemRepository
	carts  CartPurger
	images storage.ImageStore
}

func NewItemService(repo repository.ItemRepository, carts CartPurger, images storage.ImageStore) ItemService {
	if images == nil {
		images = storage.NewNoopImageStore()
	}
	return &itemService{repo: repo, carts: carts, images: images}
}

func (s *itemService) Create(ctx context.Context, req identity.Requester, in CreateItemInput) (*model.Item, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if err := checkPrice(in.Price); err != nil {
		return nil, err
	}
	category, err := model.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	condition, err := model.ParseCondition(in.Condition)
	if err != nil {
		return nil, err
	}
	refs, err := cleanImages(in.Images)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	item := &model.Item{
		ID:                id,
		Title:             title,
		Description:       description,
		Price:             in.Price,
		Category:          category,
		Condition:         condition,
		Status:            lifecycle.StatusDraft,
		SellerID:          req.ID,
		CollectionAddress: strings.TrimSpace(in.CollectionAddress),
		Images:            model.NewItemImages(id, refs),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, req identity.Requester, id string) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !publicStatuses[item.Status] && !canManage(req, item) && !item.SoldTo(req.ID) {
		return nil, apperr.ErrNotFound
	}
	return item, nil
}

func (s *itemService) Update(ctx context.Context, req identity.Requester, id string, in UpdateItemInput) (*model.Item, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(req, item) {
		return nil, apperr.ErrForbidden
	}
	if item.Status.Settled() {
		return nil, apperr.Validation("item %s is %s and can no longer be edited", id, item.Status)
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title, err := cleanTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			return nil, apperr.Validation("description is required")
		}
		fields["description"] = d
	}
	if in.Price != nil {
		if err := checkPrice(*in.Price); err != nil {
			return nil, err
		}
		fields["price"] = *in.Price
	}
	if in.Category != nil {
		c, err := model.ParseCategory(*in.Category)
		if err != nil {
			return nil, err
		}
		fields["category"] = c
	}
	if in.Condition != nil {
		// After submission only an approving admin may correct the condition.
		if item.Status != lifecycle.StatusDraft {
			return nil, apperr.Validation("condition can only be changed while the item is a draft")
		}
		c, err := model.ParseCondition(*in.Condition)
		if err != nil {
			return nil, err
		}
		fields["item_condition"] = c
	}
	if in.CollectionAddress != nil {
		fields["collection_address"] = strings.TrimSpace(*in.CollectionAddress)
	}
	var refs []string
	if in.Images != nil {
		if refs, err = cleanImages(*in.Images); err != nil {
			return nil, err
		}
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	if in.Images != nil {
		if err := s.repo.ReplaceImages(ctx, id, refs); err != nil {
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, id)
}

// Delete purges carts first, then removes the row, then the stored images.
// Only the row removal can fail the call.
func (s *itemService) Delete(ctx context.Context, req identity.Requester, id string) (*DeleteResult, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(req, item) {
		return nil, apperr.ErrForbidden
	}
	if !req.IsAdmin && item.Status == lifecycle.StatusSold {
		return nil, apperr.Transition(item.Status.String(), "deleted")
	}
	if item.Reserved() {
		return nil, apperr.Transition(item.Status.String(), "deleted")
	}

	res := &DeleteResult{ItemID: id}
	if s.carts != nil {
		n, err := s.carts.RemoveItemFromAllCarts(ctx, id)
		res.CartsPurged = n
		if err != nil {
			res.PurgeErr = err
			log.Printf("delete item %s: cart purge failed: %v", id, err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	if refs := item.ImageRefs(); len(refs) > 0 {
		if err := s.images.Delete(ctx, refs); err != nil {
			res.ImageErr = err
			log.Printf("delete item %s: image cleanup failed: %v", id, err)
		}
	}
	return res, nil
}

func (s *itemService) List(ctx context.Context, req identity.Requester, in ListItemsInput) (*ItemPage, error) {
	f := in.Filter
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = defaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperr.Validation("minPrice must not exceed maxPrice")
	}
	f.Statuses = visibleStatuses(req, f)

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if q := strings.ToLower(strings.TrimSpace(in.Query)); q != "" {
		matched := items[:0]
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q) {
				matched = append(matched, it)
			}
		}
		items = matched
	}
	return &ItemPage{Items: items, Total: total}, nil
}

// visibleStatuses narrows the status filter to what req may see. Admins and
// callers listing their own items see everything they ask for.
func visibleStatuses(req identity.Requester, f repository.ItemFilter) []lifecycle.Status {
	own := req.ID != "" && (f.SellerID == req.ID || f.BuyerID == req.ID)
	if req.IsAdmin || own {
		return f.Statuses
	}
	var out []lifecycle.Status
	for _, st := range f.Statuses {
		if publicStatuses[st] {
			out = append(out, st)
		}
	}
	if len(out) == 0 {
		out = []lifecycle.Status{lifecycle.StatusForSale}
	}
	return out
}

func cleanTitle(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if t == "" || len([]rune(t)) > maxTitleLen {
		return "", apperr.Validation("title must be 1-%d characters", maxTitleLen)
	}
	return t, nil
}

func checkPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if p.Exponent() < -2 && !p.Equal(p.Round(2)) {
		return apperr.Validation("price has more than two decimal places")
	}
	return nil
}

func cleanImages(refs []string) ([]string, error) {
	if len(refs) > maxImages {
		return nil, apperr.Validation("at most %d images", maxImages)
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if strings.HasPrefix(r, "data:") {
			return nil, apperr.Validation("images must be storage references, not data URIs")
		}
		out = append(out, r)
	}
	return out, nil
}
