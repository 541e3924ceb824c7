package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/campus-market/internal/app"
	"github.com/shinyyama/campus-market/internal/config"
	"github.com/shinyyama/campus-market/internal/db"
	appmw "github.com/shinyyama/campus-market/internal/middleware"
	"github.com/shinyyama/campus-market/internal/payment"
	"github.com/shinyyama/campus-market/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	if err := db.Migrate(a.DB); err != nil {
		log.Printf("auto migrate error: %v", err)
	}

	srv := server.New(server.Deps{
		Auth:            appmw.NewAuthMiddleware(a.Verifier, a.Resolver),
		Items:           a.Items,
		Lifecycle:       a.Lifecycle,
		Carts:           a.Carts,
		Settlement:      a.Settlement,
		Purchases:       a.Purchases,
		Orders:          a.Orders,
		Notifications:   a.Notifications,
		Revenue:         a.Revenue,
		Admin:           a.Admin,
		Profiles:        a.Profiles,
		PaymentVerifier: payment.NewSignatureVerifier(cfg.PaymentMerchantID, cfg.PaymentPassphrase),
		SyncSettle:      cfg.PaymentSyncSettle,
		OriginSuffixes:  cfg.CORSAllowedSuffixes,
		GitSHA:          cfg.GitSHA,
		BuildTime:       cfg.BuildTime,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}
