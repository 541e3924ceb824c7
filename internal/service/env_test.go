package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	seller  = identity.Requester{ID: "seller-1", Email: "seller1@uni.example"}
	seller2 = identity.Requester{ID: "seller-2", Email: "seller2@uni.example"}
	buyer   = identity.Requester{ID: "buyer-1", Email: "buyer1@uni.example"}
	buyer2  = identity.Requester{ID: "buyer-2", Email: "buyer2@uni.example"}
	admin   = identity.Requester{ID: "admin-1", Email: "admin@uni.example", IsAdmin: true}
	nobody  = identity.Requester{}
)

type testEnv struct {
	db        *gorm.DB
	items     repository.ItemRepository
	carts     repository.CartRepository
	purchases repository.PurchaseRepository
	orders    repository.OrderRepository
	profiles  repository.UserProfileRepository
	audit     repository.AuditLogRepository
	notes     repository.NotificationRepository
	tx        repository.TransactionManager

	images    *fakeImages
	directory *fakeDirectory

	cartSvc      CartService
	itemSvc      ItemService
	lifecycleSvc LifecycleService
	settleSvc    SettlementService
	purchaseSvc  PurchaseService
	orderSvc     OrderService
	adminSvc     AdminService
	notifySvc    NotificationService
	revenueSvc   RevenueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	e := &testEnv{
		db:        db,
		items:     repository.NewItemRepository(db),
		carts:     repository.NewCartRepository(db),
		purchases: repository.NewPurchaseRepository(db),
		orders:    repository.NewOrderRepository(db),
		profiles:  repository.NewUserProfileRepository(db),
		audit:     repository.NewAuditLogRepository(db),
		notes:     repository.NewNotificationRepository(db),
		tx:        repository.NewTransactionManager(db),
		images:    &fakeImages{},
		directory: newFakeDirectory(),
	}
	e.notifySvc = NewNotificationService(e.notes)
	e.cartSvc = NewCartService(e.carts, e.items)
	e.itemSvc = NewItemService(e.items, e.cartSvc, e.images)
	e.lifecycleSvc = NewLifecycleService(e.items, e.purchases, e.cartSvc, e.notifySvc)
	e.settleSvc = NewSettlementService(e.tx, e.carts, e.items, e.profiles, e.cartSvc, e.notifySvc)
	e.purchaseSvc = NewPurchaseService(e.purchases, e.items, e.lifecycleSvc)
	e.orderSvc = NewOrderService(e.tx, e.orders, e.carts, e.items, e.profiles, e.cartSvc)
	e.revenueSvc = NewRevenueService(e.purchases)
	e.adminSvc = NewAdminService(e.lifecycleSvc, e.itemSvc, e.cartSvc, e.profiles, e.audit, e.directory)

	for _, r := range []identity.Requester{seller, seller2, buyer, buyer2, admin} {
		_, err := e.profiles.Ensure(context.Background(), r.ID, r.Email)
		require.NoError(t, err)
	}
	return e
}

func (e *testEnv) seedItem(t *testing.T, sellerID string, status lifecycle.Status, price string) *model.Item {
	t.Helper()
	id := uuid.NewString()
	item := &model.Item{
		ID:          id,
		Title:       "Graphing calculator " + id[:6],
		Description: "Works fine, batteries included",
		Price:       decimal.RequireFromString(price),
		Category:    model.CategoryElectronics,
		Condition:   model.ConditionUsed,
		Status:      status,
		SellerID:    sellerID,
		Images:      model.NewItemImages(id, []string{"items/" + id + "/front.jpg"}),
	}
	require.NoError(t, e.items.Create(context.Background(), item))
	return item
}

func (e *testEnv) sellTo(t *testing.T, itemID, buyerID string) {
	t.Helper()
	ok, err := e.items.CompareAndSwapStatus(context.Background(), itemID, lifecycle.StatusForSale, lifecycle.StatusSold, map[string]interface{}{"buyer_id": buyerID})
	require.NoError(t, err)
	require.True(t, ok)
}

func (e *testEnv) addToCart(t *testing.T, cartID, itemID string) {
	t.Helper()
	require.NoError(t, e.carts.Upsert(context.Background(), &model.CartEntry{
		ID:       uuid.NewString(),
		CartID:   cartID,
		ItemID:   itemID,
		Quantity: 1,
	}))
}

func (e *testEnv) status(t *testing.T, itemID string) lifecycle.Status {
	t.Helper()
	item, err := e.items.FindByID(context.Background(), itemID)
	require.NoError(t, err)
	return item.Status
}

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeImages) Delete(_ context.Context, refs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, refs...)
	return f.err
}

type fakeDirectory struct {
	mu       sync.Mutex
	admin    map[string]bool
	disabled map[string]bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{admin: map[string]bool{}, disabled: map[string]bool{}}
}

func (d *fakeDirectory) SetAdminClaim(_ context.Context, uid string, admin bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admin[uid] = admin
	return nil
}

func (d *fakeDirectory) SetDisabled(_ context.Context, uid string, disabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabled[uid] = disabled
	return nil
}

func (d *fakeDirectory) LookupEmail(_ context.Context, uid string) (string, error) {
	return uid + "@uni.example", nil
}

// failingPurger stands in for a cart store that is down.
type failingPurger struct{}

var errCartsDown = errors.New("carts unavailable")

func (failingPurger) RemoveItemFromAllCarts(context.Context, string) (int64, error) {
	return 0, errCartsDown
}

func (failingPurger) RemoveUserCartEntries(context.Context, string) (int64, error) {
	return 0, errCartsDown
}
