package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/campus-market/internal/handler"
	appmw "github.com/shinyyama/campus-market/internal/middleware"
	"github.com/shinyyama/campus-market/internal/payment"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shinyyama/campus-market/internal/service"
)

// Deps is everything the HTTP surface needs; main builds it.
type Deps struct {
	Auth          *appmw.AuthMiddleware
	Items         service.ItemService
	Lifecycle     service.LifecycleService
	Carts         service.CartService
	Settlement    service.SettlementService
	Purchases     service.PurchaseService
	Orders        service.OrderService
	Notifications service.NotificationService
	Revenue       service.RevenueService
	Admin         service.AdminService
	Profiles      repository.UserProfileRepository

	PaymentVerifier *payment.SignatureVerifier
	SyncSettle      bool

	// OriginSuffixes are host suffixes allowed by CORS besides localhost.
	OriginSuffixes []string
	GitSHA         string
	BuildTime      string
}

type Server struct {
	e *echo.Echo
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  originAllowed(d.OriginSuffixes),
	}))

	itemHandler := handler.NewItemHandler(d.Items, d.Lifecycle)
	cartHandler := handler.NewCartHandler(d.Carts)
	paymentHandler := handler.NewPaymentHandler(d.PaymentVerifier, d.Settlement, d.Orders, d.SyncSettle)
	purchaseHandler := handler.NewPurchaseHandler(d.Purchases, d.Notifications)
	orderHandler := handler.NewOrderHandler(d.Orders, d.Items)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	adminHandler := handler.NewAdminHandler(d.Admin)
	userHandler := handler.NewUserHandler(d.Profiles)
	revenueHandler := handler.NewRevenueHandler(d.Revenue)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.GitSHA,
			"build_time": d.BuildTime,
		})
	})

	auth := d.Auth.RequireAuth
	api := e.Group("/api")

	api.GET("/items", itemHandler.List, d.Auth.OptionalAuth)
	api.GET("/items/:id", itemHandler.Get, d.Auth.OptionalAuth)
	api.POST("/items", itemHandler.Create, auth)
	api.PUT("/items/:id", itemHandler.Update, auth)
	api.DELETE("/items/:id", itemHandler.Delete, auth)
	api.POST("/items/:id/submit", itemHandler.Submit, auth)
	api.POST("/items/:id/withdraw", itemHandler.Withdraw, auth)
	api.POST("/items/:id/unlist", itemHandler.Unlist, auth)
	api.POST("/items/:id/collect", itemHandler.Collect, auth)

	api.GET("/me", userHandler.Me, auth)
	api.GET("/me/items", itemHandler.ListMine, auth)
	api.GET("/me/purchases", purchaseHandler.ListMine, auth)
	api.GET("/me/sales", purchaseHandler.ListSales, auth)
	api.GET("/me/revenue", revenueHandler.Get, auth)
	api.GET("/users/:uid/public", userHandler.GetPublic)

	api.GET("/cart", cartHandler.Get, auth)
	api.POST("/cart", cartHandler.Add, auth)
	api.DELETE("/cart/:itemId", cartHandler.Remove, auth)

	api.POST("/payments/success", paymentHandler.Success, auth)
	api.POST("/payments/notify", paymentHandler.Notify)

	api.GET("/purchases/:id", purchaseHandler.Get, auth)
	api.POST("/purchases/:id/collect", purchaseHandler.Collect, auth)

	api.POST("/orders", orderHandler.Create, auth)
	api.GET("/orders", orderHandler.List, auth)
	api.GET("/orders/:id", orderHandler.Get, auth)
	api.POST("/orders/:id/cancel", orderHandler.Cancel, auth)

	api.GET("/notifications", notificationHandler.List, auth)
	api.POST("/notifications/read", notificationHandler.MarkAllRead, auth)
	api.POST("/notifications/items/:itemId/read", notificationHandler.MarkItemRead, auth)

	admin := api.Group("/admin", auth, appmw.RequireAdmin)
	admin.POST("/items/bulk-status", adminHandler.BulkStatus)
	admin.POST("/items/:id/approve", adminHandler.Approve)
	admin.POST("/items/:id/reject", adminHandler.Reject)
	admin.POST("/items/:id/suspend", adminHandler.Suspend)
	admin.POST("/items/:id/override", adminHandler.Override)
	admin.DELETE("/items/:id", adminHandler.DeleteItem)
	admin.POST("/users/:uid/suspend", adminHandler.SuspendUser)
	admin.POST("/users/:uid/reinstate", adminHandler.ReinstateUser)
	admin.POST("/users/:uid/grant-admin", adminHandler.GrantAdmin)
	admin.POST("/users/:uid/revoke-admin", adminHandler.RevokeAdmin)
	admin.POST("/carts/reconcile", adminHandler.ReconcileCarts)
	admin.GET("/audit-logs", adminHandler.AuditLogs)

	return &Server{e: e}
}

// originAllowed accepts local development origins and any http(s) origin
// whose host ends in one of suffixes.
func originAllowed(suffixes []string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(low)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		for _, s := range suffixes {
			// Suffixes match whole labels: vercel.app admits x.vercel.app,
			// never evilvercel.app.
			s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
			if s != "" && (host == s || strings.HasSuffix(host, "."+s)) {
				return true, nil
			}
		}
		return false, nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
