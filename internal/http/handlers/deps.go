package handlers

import (
	"github.com/phentivokcs/vintagevibes/internal/barion"
	"github.com/phentivokcs/vintagevibes/internal/billingo"
	"github.com/phentivokcs/vintagevibes/internal/config"
	"github.com/phentivokcs/vintagevibes/internal/packeta"
	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/resend"
	"github.com/phentivokcs/vintagevibes/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	ProductHandler     *ProductHandler
	ReservationHandler *ReservationHandler
	CheckoutHandler    *CheckoutHandler
	PaymentHandler     *PaymentHandler
	AdminHandler       *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	gateway := barion.New(cfg.BarionBaseURL, cfg.BarionPOSKey, cfg.BarionPayeeEmail)

	fulfill := &services.FulfillmentService{Orders: orderRepo}
	if cfg.ResendAPIKey != "" {
		fulfill.Mailer = resend.New(cfg.ResendAPIKey, cfg.ResendFromEmail)
	}
	if cfg.BillingoEnabled && cfg.BillingoAPIKey != "" {
		fulfill.Invoicer = billingo.New(cfg.BillingoAPIKey, cfg.BillingoBlockID)
	}
	if cfg.PacketaAPIPassword != "" {
		fulfill.Labels = packeta.New(cfg.PacketaAPIPassword, cfg.PacketaAPIID)
	}

	resSvc := services.NewReservationService(invRepo, cfg.ReservationTTL)
	catalogSvc := services.NewCatalogService(prodRepo, invRepo)
	checkoutSvc := &services.CheckoutService{
		Res:         resSvc,
		Products:    prodRepo,
		Customers:   custRepo,
		Orders:      orderRepo,
		Gateway:     gateway,
		Fulfill:     fulfill,
		CheckoutTTL: cfg.CheckoutTTL,
		// Barion posts the callback to this server, not the SPA.
		CallbackURL: cfg.PublicURL + "/payment/callback",
		RedirectURL: cfg.FrontendURL + "/payment-result",
	}
	settleSvc := &services.SettlementService{
		Orders:  orderRepo,
		Inv:     invRepo,
		Gateway: gateway,
		Fulfill: fulfill,
	}

	return &Deps{
		ProductHandler:     &ProductHandler{Catalog: catalogSvc},
		ReservationHandler: &ReservationHandler{Res: resSvc},
		CheckoutHandler:    &CheckoutHandler{Checkout: checkoutSvc},
		PaymentHandler:     &PaymentHandler{Settle: settleSvc, FrontendURL: cfg.FrontendURL},
		AdminHandler:       &AdminHandler{Orders: orderRepo, Fulfill: fulfill},
	}
}
