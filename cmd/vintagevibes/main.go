package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"github.com/phentivokcs/vintagevibes/internal/config"
	"github.com/phentivokcs/vintagevibes/internal/http/handlers"
	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and answer generically; never leak internals
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong, please try again",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)

	api := app.Group("/api/v1")

	// Catalog
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Get)

	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/availability", availLimiter, deps.ProductHandler.Availability)

	// Reservations & checkout
	resLimiter := limiter.New(limiter.Config{Max: 30, Expiration: time.Minute})
	api.Post("/reservations", resLimiter, deps.ReservationHandler.Reserve)
	api.Delete("/reservations", deps.ReservationHandler.Release)
	api.Post("/checkout", deps.CheckoutHandler.Submit)
	api.Post("/checkout/abandon", deps.CheckoutHandler.Abandon)

	// Payment gateway callback (id only; state is re-queried)
	app.Get("/payment/callback", deps.PaymentHandler.Callback)

	// Auth (login throttled)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), authH.Login)
	api.Post("/auth/logout", authH.Logout)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/orders", deps.AdminHandler.OrdersList)
	admin.Get("/orders/:id", deps.AdminHandler.OrderDetail)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Post("/orders/:id/shipment", deps.AdminHandler.CreateShipment)
	api.Post("/reservations/sweep", handlers.RequireAdmin(authSvc), deps.ReservationHandler.Sweep)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	// Background sweeper reclaims expired soft holds
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sweeper := services.NewSweeper(
		services.NewReservationService(repos.NewInventoryRepo(db), cfg.ReservationTTL),
		cfg.SweepInterval,
	)
	go sweeper.Run(ctx)

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	log.Fatal(app.Listen(":" + cfg.Port))
}
