package service

import (
	"context"
	"testing"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueSummary(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	lamp := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "25.50")
	desk := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "40")
	other := e.seedItem(t, seller2.ID, lifecycle.StatusForSale, "9.99")
	e.addToCart(t, buyer.ID, lamp.ID)
	e.addToCart(t, buyer.ID, desk.ID)
	e.addToCart(t, buyer.ID, other.ID)

	_, err := e.settleSvc.Settle(ctx, SettlementRequest{BuyerID: buyer.ID, PaymentID: "pf-rev", Source: "test"})
	require.NoError(t, err)
	_, err = e.lifecycleSvc.Collect(ctx, buyer, desk.ID)
	require.NoError(t, err)

	sum, err := e.revenueSvc.Summary(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Sales)
	assert.Equal(t, 1, sum.Collected)
	assert.Equal(t, "65.50", sum.Gross.StringFixed(2))
	assert.Equal(t, "25.50", sum.AwaitingCollection.StringFixed(2))

	empty, err := e.revenueSvc.Summary(ctx, buyer2)
	require.NoError(t, err)
	assert.Zero(t, empty.Sales)
	assert.True(t, empty.Gross.IsZero())

	_, err = e.revenueSvc.Summary(ctx, nobody)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
