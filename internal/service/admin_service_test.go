package service

import (
	"context"
	"testing"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Non-admins are turned away before any payload is looked at, so even empty
// arguments must come back Forbidden rather than as validation errors.
func TestAdmin_NonAdminAlwaysForbidden(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusPending, "10")

	calls := map[string]func() error{
		"approve": func() error { _, err := e.adminSvc.Approve(ctx, seller, item.ID, nil); return err },
		"reject":  func() error { _, err := e.adminSvc.Reject(ctx, seller, item.ID, ""); return err },
		"suspend": func() error { _, err := e.adminSvc.Suspend(ctx, seller, "", ""); return err },
		"override": func() error {
			_, err := e.adminSvc.Override(ctx, seller, item.ID, "not-a-status", "")
			return err
		},
		"bulk":           func() error { _, err := e.adminSvc.BulkOverride(ctx, seller, nil, ""); return err },
		"delete":         func() error { _, err := e.adminSvc.DeleteItem(ctx, seller, item.ID); return err },
		"suspend user":   func() error { return e.adminSvc.SuspendUser(ctx, seller, "") },
		"reinstate user": func() error { return e.adminSvc.ReinstateUser(ctx, seller, buyer.ID) },
		"grant admin":    func() error { return e.adminSvc.GrantAdmin(ctx, seller, seller.ID) },
		"revoke admin":   func() error { return e.adminSvc.RevokeAdmin(ctx, seller, admin.ID) },
		"reconcile":      func() error { _, err := e.adminSvc.ReconcileCarts(ctx, seller); return err },
		"audit logs": func() error {
			_, err := e.adminSvc.AuditLogs(ctx, seller, repository.AuditLogFilter{})
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), apperr.ErrForbidden)
		})
	}
	assert.Equal(t, lifecycle.StatusPending, e.status(t, item.ID))

	_, err := e.adminSvc.Approve(ctx, nobody, item.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAdmin_SuspendPurgesAndAudits(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.addToCart(t, buyer.ID, item.ID)
	e.addToCart(t, buyer2.ID, item.ID)

	res, err := e.adminSvc.Suspend(ctx, admin, item.ID, "prohibited item")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusSuspended, res.Item.Status)
	assert.EqualValues(t, 2, res.CartsPurged)

	logs, err := e.adminSvc.AuditLogs(ctx, admin, repository.AuditLogFilter{ResourceID: item.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionSuspendItem, logs[0].Action)
	assert.Equal(t, admin.ID, logs[0].ActorUID)
	assert.EqualValues(t, 2, logs[0].CartsPurged)
	assert.JSONEq(t, `{"status":"for-sale"}`, logs[0].BeforeJSON)
	assert.Len(t, logs[0].ID, 26)

	// Suspended items come back through a regular admin edge.
	back, err := e.lifecycleSvc.Transition(ctx, admin, item.ID, lifecycle.StatusForSale, TransitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusForSale, back.Item.Status)
}

func TestAdmin_RejectNeedsReason(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusPending, "10")

	_, err := e.adminSvc.Reject(ctx, admin, item.ID, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	res, err := e.adminSvc.Reject(ctx, admin, item.ID, "missing photos")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDraft, res.Item.Status)
	assert.Equal(t, "missing photos", res.Item.ModerationNote)
}

func TestAdmin_OverrideRules(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	live := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	sold := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.sellTo(t, sold.ID, buyer.ID)

	_, err := e.adminSvc.Override(ctx, admin, live.ID, "sold", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = e.adminSvc.Override(ctx, admin, sold.ID, "withdrawn", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = e.adminSvc.Override(ctx, admin, live.ID, "archived", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// Legacy vocabulary is accepted at this boundary.
	res, err := e.adminSvc.Override(ctx, admin, live.ID, "inactive", "duplicate listing")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusWithdrawn, res.Item.Status)
}

func TestAdmin_BulkOverride(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "1")
	b := e.seedItem(t, seller.ID, lifecycle.StatusPending, "1")
	c := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "1")
	e.sellTo(t, c.ID, buyer.ID)

	res, err := e.adminSvc.BulkOverride(ctx, admin, []string{a.ID, b.ID, c.ID, "missing"}, "withdrawn")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Outcomes, 4)
	assert.NoError(t, res.Outcomes[0].Err)
	assert.ErrorIs(t, res.Outcomes[2].Err, apperr.ErrInvalidTransition)
	assert.ErrorIs(t, res.Outcomes[3].Err, apperr.ErrNotFound)
	assert.Equal(t, lifecycle.StatusWithdrawn, e.status(t, b.ID))

	_, err = e.adminSvc.BulkOverride(ctx, admin, nil, "withdrawn")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAdmin_DeleteItem(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	item := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "10")
	e.addToCart(t, buyer.ID, item.ID)

	res, err := e.adminSvc.DeleteItem(ctx, admin, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.CartsPurged)
	_, err = e.items.FindByID(ctx, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, []string{"items/" + item.ID + "/front.jpg"}, e.images.deleted)

	logs, err := e.audit.List(ctx, repository.AuditLogFilter{Action: model.AuditActionDeleteItem})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, item.ID, logs[0].ResourceID)
}

func TestAdmin_UserModeration(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	require.NoError(t, e.adminSvc.SuspendUser(ctx, admin, buyer.ID))
	p, err := e.profiles.FindByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, p.Suspended)
	assert.True(t, e.directory.disabled[buyer.ID])

	require.NoError(t, e.adminSvc.ReinstateUser(ctx, admin, buyer.ID))
	p, err = e.profiles.FindByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.False(t, p.Suspended)
	assert.False(t, e.directory.disabled[buyer.ID])

	assert.ErrorIs(t, e.adminSvc.SuspendUser(ctx, admin, "ghost"), apperr.ErrNotFound)
	assert.ErrorIs(t, e.adminSvc.SuspendUser(ctx, admin, admin.ID), apperr.ErrValidation)

	require.NoError(t, e.adminSvc.GrantAdmin(ctx, admin, "new-user"))
	p, err = e.profiles.FindByID(ctx, "new-user")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
	assert.Equal(t, "new-user@uni.example", p.Email)
	assert.True(t, e.directory.admin["new-user"])

	require.NoError(t, e.adminSvc.RevokeAdmin(ctx, admin, "new-user"))
	assert.False(t, e.directory.admin["new-user"])
	assert.ErrorIs(t, e.adminSvc.RevokeAdmin(ctx, admin, admin.ID), apperr.ErrValidation)

	logs, err := e.audit.List(ctx, repository.AuditLogFilter{ResourceType: model.AuditResourceUser})
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}

func TestAdmin_ReconcileCarts(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	live := e.seedItem(t, seller.ID, lifecycle.StatusForSale, "1")
	gone := e.seedItem(t, seller.ID, lifecycle.StatusWithdrawn, "1")
	e.addToCart(t, buyer.ID, live.ID)
	e.addToCart(t, buyer.ID, gone.ID)
	e.addToCart(t, buyer2.ID, "missing")

	report, err := e.adminSvc.ReconcileCarts(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.MissingItems)
	assert.Equal(t, 1, report.Unavailable)
	assert.EqualValues(t, 2, report.Removed)

	left, err := e.carts.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, live.ID, left[0].ItemID)
}
