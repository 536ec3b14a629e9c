package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phentivokcs/vintagevibes/internal/barion"
	"github.com/phentivokcs/vintagevibes/internal/domain"
	"github.com/phentivokcs/vintagevibes/internal/repos"

	"github.com/google/uuid"
)

// Gateway is the payment provider seen by checkout and settlement.
// barion.Client satisfies it; tests inject a fake.
type Gateway interface {
	StartPayment(ctx context.Context, req barion.StartRequest) (barion.StartResult, error)
	GetPaymentState(ctx context.Context, paymentID string) (barion.PaymentState, error)
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CartItem is the client's snapshot of one line. Price is advisory:
// the order stores the server-side price and a mismatch is audited.
type CartItem struct {
	ProductID string `json:"productId"`
	Price     int64  `json:"price"`
}

type CheckoutInput struct {
	SessionID     string               `json:"sessionId"`
	Items         []CartItem           `json:"items"`
	Customer      Contact              `json:"customer"`
	Shipping      domain.Address       `json:"shipping"`
	Billing       *domain.Address      `json:"billing,omitempty"`
	PacketaPoint  *domain.PacketaPoint `json:"packetaPoint,omitempty"`
	PaymentMethod string               `json:"paymentMethod"`
	Notes         string               `json:"notes"`
}

type CheckoutResult struct {
	OrderID     string `json:"orderId"`
	PaymentID   string `json:"paymentId,omitempty"`
	GatewayURL  string `json:"gatewayUrl,omitempty"`
	ServerTotal int64  `json:"total"`
	ClientTotal int64  `json:"-"`
}

// ItemFailure names one cart line that lost its reservation race.
type ItemFailure struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

// ReservationConflictError reports the specific failing items. Sibling
// items that did reserve stay held; abandoning the checkout and
// releasing them is the caller's explicit choice.
type ReservationConflictError struct {
	Failures []ItemFailure
}

func (e *ReservationConflictError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ProductID)
	}
	return "items no longer available: " + strings.Join(ids, ", ")
}

// CheckoutService orchestrates reserve -> order -> settle-or-redirect.
type CheckoutService struct {
	Res       *ReservationService
	Products  *repos.ProductRepo
	Customers *repos.CustomerRepo
	Orders    *repos.OrderRepo
	Gateway   Gateway
	Fulfill   *FulfillmentService

	CheckoutTTL time.Duration // hold window covering the gateway redirect
	CallbackURL string
	RedirectURL string
}

// Checkout runs the full submission. For cash on delivery the purchase
// completes synchronously; for barion the order and items are created
// BEFORE the gateway session is requested, so a fast callback can
// always resolve its order by payment id.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if len(in.Items) == 0 {
		return CheckoutResult{}, errors.New("cart empty")
	}

	online := in.PaymentMethod == domain.MethodBarion
	ttl := s.Res.DefaultTTL
	if online {
		ttl = s.CheckoutTTL
	}

	// Per-item independent holds; partial success is a normal outcome,
	// not a rollback trigger (no cross-item transaction).
	var failures []ItemFailure
	for _, it := range in.Items {
		out, err := s.Res.Reserve(it.ProductID, in.SessionID, ttl)
		if err != nil {
			return CheckoutResult{}, err
		}
		if !out.OK {
			failures = append(failures, ItemFailure{ProductID: it.ProductID, Reason: out.Reason})
		}
	}
	if len(failures) > 0 {
		return CheckoutResult{}, &ReservationConflictError{Failures: failures}
	}

	// Server-side price snapshot; the client total is advisory only.
	var serverTotal, clientTotal int64
	products := make([]domain.Product, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := s.Products.Get(it.ProductID)
		if err != nil {
			return CheckoutResult{}, err
		}
		products = append(products, p)
		serverTotal += p.Price
		clientTotal += it.Price
	}

	cust, err := s.Customers.UpsertByEmail(in.Customer.Email, in.Customer.Name, in.Customer.Phone)
	if err != nil {
		return CheckoutResult{}, err
	}

	billing := in.Shipping
	if in.Billing != nil {
		billing = *in.Billing
	}
	shipJSON, _ := json.Marshal(in.Shipping)
	billJSON, _ := json.Marshal(billing)

	order := repos.NewOrder{
		ID:            uuid.NewString(),
		CustomerID:    cust.ID,
		CustomerEmail: cust.Email,
		CustomerPhone: cust.Phone,
		ShippingName:  in.Shipping.Name,
		Status:        domain.OrderProcessing,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: in.PaymentMethod,
		Total:         serverTotal,
		ShippingAddr:  string(shipJSON),
		BillingAddr:   string(billJSON),
		Notes:         in.Notes,
	}
	if in.PacketaPoint != nil {
		order.PacketaPointID = in.PacketaPoint.ID
		order.PacketaPoint = in.PacketaPoint.Name
		order.PacketaAddress = strings.TrimSpace(in.PacketaPoint.City + ", " + in.PacketaPoint.Street)
	}
	if err := s.Orders.Create(order); err != nil {
		return CheckoutResult{}, err
	}
	for _, p := range products {
		if err := s.Orders.InsertItem(order.ID, p.ID, 1, p.Price); err != nil {
			return CheckoutResult{}, err
		}
	}

	res := CheckoutResult{OrderID: order.ID, ServerTotal: serverTotal, ClientTotal: clientTotal}

	if !online {
		// Cash on delivery: synchronous end to end, no settlement handler.
		for _, p := range products {
			if _, err := s.Res.CompletePurchase(p.ID, in.SessionID); err != nil {
				return CheckoutResult{}, err
			}
		}
		if s.Fulfill != nil {
			row, items, err := s.orderWithItems(order.ID)
			if err == nil {
				s.Fulfill.ConfirmOrder(row, items)
			}
		}
		return res, nil
	}

	items := make([]barion.Item, 0, len(products))
	for _, p := range products {
		desc := "Vintage item"
		if p.Size != "" {
			desc = "Size: " + p.Size
		}
		items = append(items, barion.Item{
			Name:        p.Name,
			Description: desc,
			Quantity:    1,
			Unit:        "piece",
			UnitPrice:   p.Price,
			ItemTotal:   p.Price,
			SKU:         p.ID,
		})
	}

	start, err := s.Gateway.StartPayment(ctx, barion.StartRequest{
		PaymentRequestID: order.ID,
		CallbackURL:      s.CallbackURL,
		RedirectURL:      s.RedirectURL,
		Total:            serverTotal,
		Items:            items,
	})
	if err != nil {
		// Order stays pending; the TTL and sweeper reclaim the holds.
		return CheckoutResult{}, fmt.Errorf("start payment: %w", err)
	}
	if err := s.Orders.SetPaymentSession(order.ID, start.PaymentID, start.GatewayURL); err != nil {
		return CheckoutResult{}, err
	}

	res.PaymentID = start.PaymentID
	res.GatewayURL = start.GatewayURL
	return res, nil
}

// Abandon releases the session's holds on the given items, best effort.
func (s *CheckoutService) Abandon(sessionID string, productIDs []string) {
	for _, id := range productIDs {
		_ = s.Res.Release(id, sessionID)
	}
}

func (s *CheckoutService) orderWithItems(orderID string) (repos.OrderRow, []repos.OrderItemRow, error) {
	row, err := s.Orders.Get(orderID)
	if err != nil {
		return repos.OrderRow{}, nil, err
	}
	items, err := s.Orders.Items(orderID)
	return row, items, err
}
