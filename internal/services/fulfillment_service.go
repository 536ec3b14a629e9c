package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phentivokcs/vintagevibes/internal/billingo"
	"github.com/phentivokcs/vintagevibes/internal/domain"
	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/packeta"
	"github.com/phentivokcs/vintagevibes/internal/repos"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Invoicer interface {
	CreateInvoice(ctx context.Context, partner billingo.Partner, items []billingo.Item, paymentMethod, comment string) (billingo.Document, error)
}

type LabelService interface {
	CreateShipment(ctx context.Context, p packeta.Packet) (packeta.Shipment, error)
}

// FulfillmentService fans out post-settlement side effects. Email and
// invoicing are fire-and-forget: failures are logged and never block or
// roll back a settlement. Shipment-label creation is synchronous since
// an admin is waiting on the result.
type FulfillmentService struct {
	Orders   *repos.OrderRepo
	Mailer   Mailer       // nil disables email
	Invoicer Invoicer     // nil disables invoicing
	Labels   LabelService // nil disables shipments

	SideEffectTimeout time.Duration
}

func (f *FulfillmentService) timeout() time.Duration {
	if f.SideEffectTimeout > 0 {
		return f.SideEffectTimeout
	}
	return 30 * time.Second
}

// AfterPaymentSucceeded dispatches the post-settlement side effects for
// an online order: confirmation email and invoice.
func (f *FulfillmentService) AfterPaymentSucceeded(order repos.OrderRow, items []repos.OrderItemRow) {
	f.ConfirmOrder(order, items)

	if f.Invoicer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout())
		defer cancel()
		if err := f.createInvoice(ctx, order, items); err != nil {
			applog.BgError("fulfillment.invoice.fail", err, map[string]any{"order_id": order.ID})
		}
	}()
}

// ConfirmOrder sends the order-confirmation email (both payment paths).
func (f *FulfillmentService) ConfirmOrder(order repos.OrderRow, items []repos.OrderItemRow) {
	if f.Mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout())
		defer cancel()
		html := confirmationHTML(order, items)
		if err := f.Mailer.Send(ctx, order.CustomerEmail, "Rendelés visszaigazolás", html); err != nil {
			applog.BgError("fulfillment.email.fail", err, map[string]any{"order_id": order.ID})
		}
	}()
}

// NotifyStatusChange emails the customer when an admin moves the order
// to shipped or delivered.
func (f *FulfillmentService) NotifyStatusChange(order repos.OrderRow, status string) {
	if f.Mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout())
		defer cancel()
		html := statusHTML(order, status)
		if err := f.Mailer.Send(ctx, order.CustomerEmail, "Rendelés állapota frissült", html); err != nil {
			applog.BgError("fulfillment.status_email.fail", err, map[string]any{"order_id": order.ID, "status": status})
		}
	}()
}

// CreateShipment registers a Packeta packet for the order and stores
// the returned identifiers. COD carries the full total for
// cash-on-delivery orders.
func (f *FulfillmentService) CreateShipment(ctx context.Context, orderID string) (packeta.Shipment, error) {
	if f.Labels == nil {
		return packeta.Shipment{}, fmt.Errorf("shipments disabled")
	}
	order, err := f.Orders.Get(orderID)
	if err != nil {
		return packeta.Shipment{}, err
	}
	if order.PacketaPointID == "" {
		return packeta.Shipment{}, fmt.Errorf("order %s has no pickup point", orderID)
	}
	addrID, err := packeta.ParseAddressID(order.PacketaPointID)
	if err != nil {
		return packeta.Shipment{}, fmt.Errorf("bad pickup point id %q: %w", order.PacketaPointID, err)
	}

	var cod int64
	if order.PaymentMethod == domain.MethodCashOnDelivery {
		cod = order.Total
	}

	ship, err := f.Labels.CreateShipment(ctx, packeta.Packet{
		Number:    "ORDER-" + order.ID,
		Name:      order.ShippingName,
		Email:     order.CustomerEmail,
		Phone:     order.CustomerPhone,
		AddressID: addrID,
		COD:       cod,
		Value:     order.Total,
	})
	if err != nil {
		return packeta.Shipment{}, err
	}
	if err := f.Orders.SetShipment(order.ID, ship.PacketID, ship.Barcode, ship.TrackingURL, ship.LabelURL); err != nil {
		return packeta.Shipment{}, err
	}
	return ship, nil
}

func (f *FulfillmentService) createInvoice(ctx context.Context, order repos.OrderRow, items []repos.OrderItemRow) error {
	var addr domain.Address
	_ = json.Unmarshal([]byte(order.BillingAddr), &addr)

	partner := billingo.Partner{
		Name: firstNonEmpty(addr.Name, order.ShippingName),
		Address: billingo.PartnerAddress{
			CountryCode: "HU",
			PostCode:    addr.PostalCode,
			City:        addr.City,
			Address:     addr.Address,
		},
		Emails: []string{order.CustomerEmail},
		Phone:  order.CustomerPhone,
	}

	lines := make([]billingo.Item, 0, len(items))
	for _, it := range items {
		lines = append(lines, billingo.Item{
			Name:          it.Name,
			UnitPrice:     it.Price,
			UnitPriceType: "gross",
			Quantity:      it.Quantity,
			Unit:          "db",
			VAT:           "27%",
			Comment:       it.Category,
		})
	}

	doc, err := f.Invoicer.CreateInvoice(ctx, partner, lines, "bankcard", "Webshop rendelés: "+order.ID)
	if err != nil {
		return err
	}
	return f.Orders.SetInvoice(order.ID, doc.ID.String(), doc.InvoiceNumber, doc.PublicURL)
}

func confirmationHTML(order repos.OrderRow, items []repos.OrderItemRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Rendelés visszaigazolás</h2>")
	fmt.Fprintf(&b, "<p>Kedves %s!</p><p>Köszönjük rendelését! Rendelését rögzítettük és hamarosan feldolgozzuk.</p>", htmlName(order))
	fmt.Fprintf(&b, "<p><strong>Rendelés azonosító:</strong> %s<br><strong>Összeg:</strong> %d Ft</p>", order.ID, order.Total)
	b.WriteString("<table><tr><th>Termék</th><th>Db</th><th>Ár</th></tr>")
	for _, it := range items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d Ft</td></tr>", it.Name, it.Quantity, it.Price)
	}
	b.WriteString("</table>")
	return b.String()
}

func statusHTML(order repos.OrderRow, status string) string {
	label := map[string]string{
		domain.OrderShipped:   "Csomagját átadtuk a futárszolgálatnak.",
		domain.OrderDelivered: "Csomagját kézbesítettük.",
		domain.OrderCancelled: "Rendelését töröltük.",
	}[status]
	if label == "" {
		label = "Rendelésének állapota megváltozott: " + status
	}
	out := fmt.Sprintf("<h2>Rendelés állapota frissült</h2><p>Kedves %s!</p><p>%s</p><p><strong>Rendelés azonosító:</strong> %s</p>",
		htmlName(order), label, order.ID)
	if status == domain.OrderShipped && order.TrackingURL != "" {
		out += fmt.Sprintf(`<p><a href="%s">Csomagkövetés</a></p>`, order.TrackingURL)
	}
	return out
}

func htmlName(order repos.OrderRow) string {
	return firstNonEmpty(order.ShippingName, order.CustomerEmail)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
