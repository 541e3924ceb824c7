package service

import (
	"context"
	"testing"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddRules(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	live := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "7.25")
	draft := e.seedItem(t, seller.ID, lifecycle.StatusDraft, "1")

	_, err := e.cartSvc.Add(ctx, buyer, draft.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = e.cartSvc.Add(ctx, seller, live.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = e.cartSvc.Add(ctx, buyer, live.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = e.cartSvc.Add(ctx, buyer, "missing", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.cartSvc.Add(ctx, nobody, live.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = e.cartSvc.Add(ctx, buyer, live.ID, 1)
	require.NoError(t, err)
	view, err := e.cartSvc.Add(ctx, buyer, live.ID, 2)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Entry.Quantity)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("14.5")))

	view, err = e.cartSvc.Remove(ctx, buyer, live.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())
}

func TestCartService_GetHidesStaleEntries(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	live := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	withdrawn := e.seedItem(t, seller.ID, lifecycle.StatusWithdrawn, "99")
	e.addToCart(t, buyer.ID, live.ID)
	e.addToCart(t, buyer.ID, withdrawn.ID)
	e.addToCart(t, buyer.ID, "missing")

	view, err := e.cartSvc.Get(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, live.ID, view.Lines[0].Item.ID)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(10)))
}

func TestCartService_RemoveItemFromAllCartsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.addToCart(t, buyer.ID, item.ID)
	e.addToCart(t, buyer2.ID, item.ID)

	n, err := e.cartSvc.RemoveItemFromAllCarts(ctx, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = e.cartSvc.RemoveItemFromAllCarts(ctx, item.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = e.cartSvc.RemoveItemFromAllCarts(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = e.cartSvc.RemoveUserCartEntries(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
