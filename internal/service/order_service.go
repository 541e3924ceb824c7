package service

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shopspring/decimal"
)

// OrderService is the older checkout flow: the cart is split into one order
// per seller and each item is reserved (pending, buyer set) until the order
// is paid or canceled.
type OrderService interface {
	CreateFromCart(ctx context.Context, req identity.Requester) ([]model.Order, error)
	List(ctx context.Context, req identity.Requester) ([]model.Order, error)
	Get(ctx context.Context, req identity.Requester, id string) (*model.Order, error)
	Cancel(ctx context.Context, req identity.Requester, id string) (*model.Order, error)
	Complete(ctx context.Context, orderID, paymentID string) ([]model.PurchaseRecord, error)
}

type orderService struct {
	tx       repository.TransactionManager
	orders   repository.OrderRepository
	carts    repository.CartRepository
	items    repository.ItemRepository
	profiles repository.UserProfileRepository
	purger   CartPurger
}

func NewOrderService(tx repository.TransactionManager, orders repository.OrderRepository, carts repository.CartRepository, items repository.ItemRepository, profiles repository.UserProfileRepository, purger CartPurger) OrderService {
	return &orderService{tx: tx, orders: orders, carts: carts, items: items, profiles: profiles, purger: purger}
}

func (s *orderService) CreateFromCart(ctx context.Context, req identity.Requester) ([]model.Order, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	entries, err := s.carts.ListByCart(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperr.Validation("cart is empty")
	}

	bySeller := map[string][]reservation{}
	for _, e := range entries {
		item, err := s.items.FindByID(ctx, e.ItemID)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				log.Printf("checkout %s: load item %s: %v", req.ID, e.ItemID, err)
			}
			continue
		}
		if !item.Status.Purchasable() || item.SellerID == req.ID {
			continue
		}
		bySeller[item.SellerID] = append(bySeller[item.SellerID], reservation{item: item, quantity: e.Quantity})
	}
	if len(bySeller) == 0 {
		return nil, apperr.Validation("no purchasable items in cart")
	}
	sellers := make([]string, 0, len(bySeller))
	for id := range bySeller {
		sellers = append(sellers, id)
	}
	sort.Strings(sellers)

	var created []model.Order
	for _, sellerID := range sellers {
		order, err := s.reserve(ctx, req.ID, sellerID, bySeller[sellerID])
		if err != nil {
			log.Printf("checkout %s: order for seller %s not created: %v", req.ID, sellerID, err)
			continue
		}
		created = append(created, *order)
		for _, it := range order.Items {
			purgeItem(ctx, s.purger, it.ItemID, &TransitionResult{})
		}
	}
	if len(created) == 0 {
		return nil, apperr.Transition(lifecycle.StatusForSale.String(), lifecycle.StatusPending.String())
	}
	if s.purger != nil {
		if _, err := s.purger.RemoveUserCartEntries(ctx, req.ID); err != nil {
			log.Printf("checkout %s: clearing cart failed: %v", req.ID, err)
		}
	}
	return created, nil
}

type reservation struct {
	item     *model.Item
	quantity int
}

// reserve creates the order and moves every item to pending in one
// transaction; losing any swap drops the whole order.
func (s *orderService) reserve(ctx context.Context, buyerID, sellerID string, lines []reservation) (*model.Order, error) {
	order := &model.Order{
		ID:       uuid.NewString(),
		BuyerID:  buyerID,
		SellerID: sellerID,
		Status:   model.OrderStatusOpen,
	}
	for _, l := range lines {
		qty := l.quantity
		if qty < 1 {
			qty = 1
		}
		order.Items = append(order.Items, model.OrderItem{
			OrderID:   order.ID,
			ItemID:    l.item.ID,
			Title:     l.item.Title,
			UnitPrice: l.item.Price,
			Quantity:  qty,
		})
	}
	order.Total = order.ComputeTotal()

	err := s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		for _, l := range lines {
			if err := lifecycle.Check(l.item.Status, lifecycle.StatusPending, lifecycle.ActorCheckout); err != nil {
				return err
			}
			ok, err := r.Items().CompareAndSwapStatus(ctx, l.item.ID, lifecycle.StatusForSale, lifecycle.StatusPending, map[string]interface{}{
				"buyer_id": buyerID,
			})
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Transition(lifecycle.StatusForSale.String(), lifecycle.StatusPending.String())
			}
		}
		return r.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, req identity.Requester) ([]model.Order, error) {
	if !req.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	return s.orders.ListByBuyer(ctx, req.ID)
}

func (s *orderService) Get(ctx context.Context, req identity.Requester, id string) (*model.Order, error) {
	if !req.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != req.ID && o.SellerID != req.ID && !req.IsAdmin {
		return nil, apperr.ErrForbidden
	}
	return o, nil
}

// Cancel releases every reserved item back to for-sale.
func (s *orderService) Cancel(ctx context.Context, req identity.Requester, id string) (*model.Order, error) {
	if err := requireActive(req); err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != req.ID && !req.IsAdmin {
		return nil, apperr.ErrForbidden
	}
	if o.Status != model.OrderStatusOpen {
		return nil, apperr.Transition(string(o.Status), string(model.OrderStatusCanceled))
	}
	err = s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		ok, err := r.Orders().CompareAndSwapStatus(ctx, o.ID, model.OrderStatusOpen, model.OrderStatusCanceled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Transition(string(model.OrderStatusOpen), string(model.OrderStatusCanceled))
		}
		for _, it := range o.Items {
			item, err := r.Items().FindByID(ctx, it.ItemID)
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			// Only release what this order still holds.
			if item.Status != lifecycle.StatusPending || !item.SoldTo(o.BuyerID) {
				continue
			}
			if err := lifecycle.Check(item.Status, lifecycle.StatusForSale, lifecycle.ActorCheckout); err != nil {
				return err
			}
			if _, err := r.Items().CompareAndSwapStatus(ctx, item.ID, lifecycle.StatusPending, lifecycle.StatusForSale, map[string]interface{}{
				"buyer_id": nil,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

// Complete settles a paid order. Every reserved item becomes sold with a
// purchase record, or nothing changes.
func (s *orderService) Complete(ctx context.Context, orderID, paymentID string) ([]model.PurchaseRecord, error) {
	if orderID == "" || paymentID == "" {
		return nil, apperr.Validation("order id and payment id are required")
	}
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == model.OrderStatusPaid && o.PaymentID != nil && *o.PaymentID == paymentID {
		return nil, nil
	}
	if o.Status != model.OrderStatusOpen {
		return nil, apperr.Transition(string(o.Status), string(model.OrderStatusPaid))
	}
	buyerEmail := s.emailOf(ctx, o.BuyerID)
	sellerEmail := s.emailOf(ctx, o.SellerID)

	var records []model.PurchaseRecord
	err = s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		ok, err := r.Orders().CompareAndSwapStatus(ctx, o.ID, model.OrderStatusOpen, model.OrderStatusPaid, map[string]interface{}{
			"payment_id": paymentID,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Transition(string(model.OrderStatusOpen), string(model.OrderStatusPaid))
		}
		for _, it := range o.Items {
			item, err := r.Items().FindByID(ctx, it.ItemID)
			if err != nil {
				return err
			}
			if !item.SoldTo(o.BuyerID) {
				return apperr.ErrInvalidTransition
			}
			if err := lifecycle.Check(item.Status, lifecycle.StatusSold, lifecycle.ActorSettlement); err != nil {
				return err
			}
			oid := o.ID
			rec := model.PurchaseRecord{
				ID:               uuid.NewString(),
				ItemID:           item.ID,
				ItemTitle:        it.Title,
				ItemPrice:        it.UnitPrice,
				Quantity:         it.Quantity,
				SellerID:         o.SellerID,
				SellerEmail:      sellerEmail,
				BuyerID:          o.BuyerID,
				BuyerEmail:       buyerEmail,
				PaymentID:        paymentID,
				OrderID:          &oid,
				TotalAmount:      it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
				Status:           model.PurchaseStatusPaid,
				CollectionStatus: model.CollectionStatusPending,
			}
			if err := r.Purchases().Create(ctx, &rec); err != nil {
				return err
			}
			ok, err := r.Items().CompareAndSwapStatus(ctx, item.ID, lifecycle.StatusPending, lifecycle.StatusSold, nil)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Transition(item.Status.String(), lifecycle.StatusSold.String())
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *orderService) emailOf(ctx context.Context, uid string) string {
	if s.profiles == nil {
		return ""
	}
	p, err := s.profiles.FindByID(ctx, uid)
	if err != nil {
		return ""
	}
	return p.Email
}
