package service

import (
	"context"
	"testing"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrders_GroupedBySeller(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a1 := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	a2 := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "2.50")
	b1 := e.seedItem(t, seller2.ID, lifecycle.StatusForSale, "30")
	for _, id := range []string{a1.ID, a2.ID, b1.ID} {
		e.addToCart(t, buyer.ID, id)
	}
	e.addToCart(t, buyer2.ID, a1.ID)

	orders, err := e.orderSvc.CreateFromCart(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	totals := map[string]decimal.Decimal{}
	for _, o := range orders {
		assert.Equal(t, model.OrderStatusOpen, o.Status)
		assert.True(t, o.Total.Equal(o.ComputeTotal()))
		totals[o.SellerID] = o.Total
	}
	assert.True(t, totals[seller.ID].Equal(decimal.RequireFromString("12.5")))
	assert.True(t, totals[seller2.ID].Equal(decimal.NewFromInt(30)))

	for _, id := range []string{a1.ID, a2.ID, b1.ID} {
		item, err := e.items.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusPending, item.Status)
		assert.True(t, item.SoldTo(buyer.ID))
		assert.Equal(t, "reserved", lifecycle.ToLegacy(item.Status))
	}
	entries, err := e.carts.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = e.orderSvc.CreateFromCart(ctx, buyer)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOrders_CancelReleasesItems(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.addToCart(t, buyer.ID, item.ID)
	orders, err := e.orderSvc.CreateFromCart(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	_, err = e.orderSvc.Cancel(ctx, buyer2, orders[0].ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	o, err := e.orderSvc.Cancel(ctx, buyer, orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, o.Status)

	got, err := e.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusForSale, got.Status)
	assert.Nil(t, got.BuyerID)

	_, err = e.orderSvc.Cancel(ctx, buyer, orders[0].ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestOrders_CompleteSettlesReservedItems(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.addToCart(t, buyer.ID, item.ID)
	orders, err := e.orderSvc.CreateFromCart(ctx, buyer)
	require.NoError(t, err)

	recs, err := e.orderSvc.Complete(ctx, orders[0].ID, "pf-order-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, buyer.ID, recs[0].BuyerID)
	require.NotNil(t, recs[0].OrderID)
	assert.Equal(t, orders[0].ID, *recs[0].OrderID)
	assert.Equal(t, lifecycle.StatusSold, e.status(t, item.ID))

	o, err := e.orderSvc.Get(ctx, buyer, orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, o.Status)

	again, err := e.orderSvc.Complete(ctx, orders[0].ID, "pf-order-1")
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = e.orderSvc.Complete(ctx, orders[0].ID, "pf-other")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestOrders_ReservedItemHeldUntilOrderCloses(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.addToCart(t, buyer.ID, item.ID)
	orders, err := e.orderSvc.CreateFromCart(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	_, err = e.lifecycleSvc.Withdraw(ctx, seller, item.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = e.adminSvc.Approve(ctx, admin, item.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = e.lifecycleSvc.Transition(ctx, admin, item.ID, lifecycle.StatusSuspended, TransitionOptions{Override: true})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = e.itemSvc.Delete(ctx, seller, item.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = e.itemSvc.Delete(ctx, admin, item.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	got, err := e.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, got.Status)
	assert.True(t, got.SoldTo(buyer.ID))

	recs, err := e.orderSvc.Complete(ctx, orders[0].ID, "pf-held-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, lifecycle.StatusSold, e.status(t, item.ID))
}

func TestOrders_AdminCancelsBeforeModerating(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.addToCart(t, buyer.ID, item.ID)
	orders, err := e.orderSvc.CreateFromCart(ctx, buyer)
	require.NoError(t, err)

	_, err = e.orderSvc.Cancel(ctx, admin, orders[0].ID)
	require.NoError(t, err)

	res, err := e.lifecycleSvc.Transition(ctx, admin, item.ID, lifecycle.StatusSuspended, TransitionOptions{Override: true, Note: "counterfeit"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusSuspended, res.Item.Status)
}
