// Package app assembles repositories and services from config. Both the API
// server and the maintenance CLI build on it.
package app

import (
	"context"
	"fmt"
	"log"

	gcs "cloud.google.com/go/storage"
	"firebase.google.com/go/v4/auth"
	"github.com/shinyyama/campus-market/internal/config"
	"github.com/shinyyama/campus-market/internal/db"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shinyyama/campus-market/internal/service"
	"github.com/shinyyama/campus-market/internal/storage"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB

	AuthClient *auth.Client
	Verifier   identity.Verifier
	Resolver   *identity.AdminResolver
	Directory  identity.Directory

	Profiles repository.UserProfileRepository

	Items         service.ItemService
	Lifecycle     service.LifecycleService
	Carts         service.CartService
	Settlement    service.SettlementService
	Purchases     service.PurchaseService
	Orders        service.OrderService
	Notifications service.NotificationService
	Revenue       service.RevenueService
	Admin         service.AdminService

	storageClient *gcs.Client
}

// New connects to the database and the identity provider. Images fall back
// to a no-op store when no bucket is configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	conn, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	fbApp, err := identity.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("init firebase: %w", err)
	}
	authClient, err := fbApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	images := storage.NewNoopImageStore()
	var storageClient *gcs.Client
	if cfg.ImageBucket != "" {
		images, storageClient, err = storage.NewGCSImageStore(ctx, cfg.ImageBucket, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
	} else {
		log.Printf("IMAGE_BUCKET not set; image cleanup disabled")
	}

	a := Wire(conn, identity.NewFirebaseDirectory(authClient), images, cfg.AdminEmails)
	a.Config = cfg
	a.AuthClient = authClient
	a.Verifier = identity.NewFirebaseVerifier(authClient)
	a.storageClient = storageClient
	return a, nil
}

// Wire builds every repository and service over conn.
func Wire(conn *gorm.DB, directory identity.Directory, images storage.ImageStore, adminEmails []string) *App {
	itemRepo := repository.NewItemRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	purchaseRepo := repository.NewPurchaseRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	profileRepo := repository.NewUserProfileRepository(conn)
	auditRepo := repository.NewAuditLogRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	tx := repository.NewTransactionManager(conn)

	notifications := service.NewNotificationService(notificationRepo)
	carts := service.NewCartService(cartRepo, itemRepo)
	items := service.NewItemService(itemRepo, carts, images)
	lc := service.NewLifecycleService(itemRepo, purchaseRepo, carts, notifications)

	return &App{
		DB:            conn,
		Resolver:      identity.NewAdminResolver(profileRepo, adminEmails),
		Directory:     directory,
		Profiles:      profileRepo,
		Items:         items,
		Lifecycle:     lc,
		Carts:         carts,
		Settlement:    service.NewSettlementService(tx, cartRepo, itemRepo, profileRepo, carts, notifications),
		Purchases:     service.NewPurchaseService(purchaseRepo, itemRepo, lc),
		Orders:        service.NewOrderService(tx, orderRepo, cartRepo, itemRepo, profileRepo, carts),
		Notifications: notifications,
		Revenue:       service.NewRevenueService(purchaseRepo),
		Admin:         service.NewAdminService(lc, items, carts, profileRepo, auditRepo, directory),
	}
}

func (a *App) Close() {
	if a.storageClient != nil {
		if err := a.storageClient.Close(); err != nil {
			log.Printf("close storage client: %v", err)
		}
	}
	if a.DB == nil {
		return
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
