package service

import (
	"context"
	"testing"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_InboxFlow(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	e.notifySvc.Notify(ctx, Notice{To: seller.ID, Type: model.NotificationItemSold, Title: "sold", ItemID: "item-1", PurchaseID: "p-1"})
	e.notifySvc.Notify(ctx, Notice{To: seller.ID, Type: model.NotificationItemApproved, Title: "live", ItemID: "item-2"})
	e.notifySvc.Notify(ctx, Notice{To: seller.ID, Title: "untyped is dropped"})
	e.notifySvc.Notify(ctx, Notice{Type: model.NotificationItemSold, Title: "nobody is dropped"})

	page, err := e.notifySvc.List(ctx, seller, true, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Unread)
	require.Len(t, page.Notifications, 2)

	n, err := e.notifySvc.MarkByItem(ctx, seller, "item-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	page, err = e.notifySvc.List(ctx, seller, true, 0)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, model.NotificationItemApproved, page.Notifications[0].Type)
	assert.Nil(t, page.Notifications[0].PurchaseID)

	n, err = e.notifySvc.MarkAllRead(ctx, seller)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	page, err = e.notifySvc.List(ctx, seller, false, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Unread)
	assert.Len(t, page.Notifications, 2)
}

func TestNotifications_RequireSignedInUser(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	_, err := e.notifySvc.List(ctx, nobody, true, 10)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.notifySvc.MarkAllRead(ctx, nobody)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	suspended := seller
	suspended.Suspended = true
	_, err = e.notifySvc.MarkByItem(ctx, suspended, "item-1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestNotifications_NilServiceIsNoop(t *testing.T) {
	svc := orNoop(nil)
	svc.Notify(context.Background(), Notice{To: seller.ID, Type: model.NotificationItemSold})
	page, err := svc.List(context.Background(), seller, true, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)
}
