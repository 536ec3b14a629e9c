package repos

import "github.com/jmoiron/sqlx"

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type OrderRow struct {
	ID             string `db:"id"`
	CustomerID     string `db:"customer_id"`
	CustomerEmail  string `db:"customer_email"`
	CustomerPhone  string `db:"customer_phone"`
	ShippingName   string `db:"shipping_name"`
	Status         string `db:"status"`
	PaymentStatus  string `db:"payment_status"`
	PaymentMethod  string `db:"payment_method"`
	Total          int64  `db:"total"`
	ShippingAddr   string `db:"shipping_address"`
	BillingAddr    string `db:"billing_address"`
	Notes          string `db:"notes"`
	PaymentID      string `db:"payment_id"`
	RedirectURL    string `db:"payment_redirect_url"`
	TransactionID  string `db:"barion_transaction_id"`
	PacketaPointID string `db:"packeta_point_id"`
	PacketaPoint   string `db:"packeta_point_name"`
	PacketaAddress string `db:"packeta_point_address"`
	PacketID       string `db:"packeta_packet_id"`
	Barcode        string `db:"packeta_barcode"`
	TrackingURL    string `db:"packeta_tracking_url"`
	LabelURL       string `db:"packeta_label_url"`
	InvoiceID      string `db:"invoice_id"`
	InvoiceNumber  string `db:"invoice_number"`
	InvoiceURL     string `db:"invoice_url"`
	CreatedAt      string `db:"created_at"`
}

type OrderItemRow struct {
	OrderID   string `db:"order_id"`
	ProductID string `db:"product_id"`
	Name      string `db:"name"`
	Category  string `db:"category"`
	Quantity  int    `db:"quantity"`
	Price     int64  `db:"price_at_purchase"`
}

type OrderSummary struct {
	ID            string `db:"id"`
	CustomerEmail string `db:"customer_email"`
	Status        string `db:"status"`
	PaymentStatus string `db:"payment_status"`
	PaymentMethod string `db:"payment_method"`
	Total         int64  `db:"total"`
	CreatedAt     string `db:"created_at"`
}

// NewOrder carries the write-once fields of an order header.
type NewOrder struct {
	ID             string
	CustomerID     string
	CustomerEmail  string
	CustomerPhone  string
	ShippingName   string
	Status         string
	PaymentStatus  string
	PaymentMethod  string
	Total          int64
	ShippingAddr   string // JSON snapshot
	BillingAddr    string // JSON snapshot
	Notes          string
	PacketaPointID string
	PacketaPoint   string
	PacketaAddress string
}

func (r *OrderRepo) Create(o NewOrder) error {
	_, err := r.db.Exec(`
	  INSERT INTO orders
	    (id, customer_id, customer_email, customer_phone, shipping_name,
	     status, payment_status, payment_method, total,
	     shipping_address, billing_address, notes,
	     packeta_point_id, packeta_point_name, packeta_point_address, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, o.ID, o.CustomerID, o.CustomerEmail, o.CustomerPhone, o.ShippingName,
		o.Status, o.PaymentStatus, o.PaymentMethod, o.Total,
		o.ShippingAddr, o.BillingAddr, o.Notes,
		o.PacketaPointID, o.PacketaPoint, o.PacketaAddress)
	return err
}

func (r *OrderRepo) InsertItem(orderID, productID string, quantity int, price int64) error {
	_, err := r.db.Exec(`
	  INSERT INTO order_items(order_id, product_id, quantity, price_at_purchase)
	  VALUES(?, ?, ?, ?)
	`, orderID, productID, quantity, price)
	return err
}

const orderColumns = `
	id, COALESCE(customer_id,'') AS customer_id, customer_email, customer_phone,
	shipping_name, status, payment_status, payment_method, total,
	shipping_address, billing_address, notes,
	COALESCE(payment_id,'') AS payment_id,
	COALESCE(payment_redirect_url,'') AS payment_redirect_url,
	COALESCE(barion_transaction_id,'') AS barion_transaction_id,
	COALESCE(packeta_point_id,'') AS packeta_point_id,
	COALESCE(packeta_point_name,'') AS packeta_point_name,
	COALESCE(packeta_point_address,'') AS packeta_point_address,
	COALESCE(packeta_packet_id,'') AS packeta_packet_id,
	COALESCE(packeta_barcode,'') AS packeta_barcode,
	COALESCE(packeta_tracking_url,'') AS packeta_tracking_url,
	COALESCE(packeta_label_url,'') AS packeta_label_url,
	COALESCE(invoice_id,'') AS invoice_id,
	COALESCE(invoice_number,'') AS invoice_number,
	COALESCE(invoice_url,'') AS invoice_url,
	created_at`

func (r *OrderRepo) Get(orderID string) (OrderRow, error) {
	var o OrderRow
	err := r.db.Get(&o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID)
	return o, err
}

// ByPaymentID resolves the gateway callback's only trusted input, the
// payment id, back to an order.
func (r *OrderRepo) ByPaymentID(paymentID string) (OrderRow, error) {
	var o OrderRow
	err := r.db.Get(&o, `SELECT `+orderColumns+` FROM orders WHERE payment_id = ?`, paymentID)
	return o, err
}

func (r *OrderRepo) Items(orderID string) ([]OrderItemRow, error) {
	var items []OrderItemRow
	err := r.db.Select(&items, `
		SELECT oi.order_id, oi.product_id, p.name, p.category, oi.quantity, oi.price_at_purchase
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY p.name
	`, orderID)
	return items, err
}

// SetPaymentSession stores the gateway session once Payment/Start
// succeeds; the order must already exist so a fast callback can find it.
func (r *OrderRepo) SetPaymentSession(orderID, paymentID, redirectURL string) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET payment_id = ?, payment_redirect_url = ?, payment_status = 'prepared',
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, paymentID, redirectURL, orderID)
	return err
}

// SetPaymentProgress mirrors a non-terminal gateway state onto the
// order. Guarded so an out-of-order callback can never regress an
// order that already reached a terminal payment state.
func (r *OrderRepo) SetPaymentProgress(orderID, paymentStatus, transactionID string) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET payment_status = ?,
		    barion_transaction_id = COALESCE(NULLIF(?,''), barion_transaction_id),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND payment_status IN ('pending','prepared','started')
	`, paymentStatus, transactionID, orderID)
	return err
}

// Settle applies a terminal gateway outcome exactly once. The WHERE
// clause only matches while payment_status is still non-terminal, so a
// re-delivered callback reports changed=false and the caller skips the
// one-shot side effects.
func (r *OrderRepo) Settle(orderID, status, paymentStatus, transactionID string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE orders
		SET status = ?, payment_status = ?,
		    barion_transaction_id = COALESCE(NULLIF(?,''), barion_transaction_id),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND payment_status IN ('pending','prepared','started')
	`, status, paymentStatus, transactionID, orderID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *OrderRepo) UpdateStatus(orderID, status string) error {
	_, err := r.db.Exec(`
		UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, orderID)
	return err
}

func (r *OrderRepo) SetInvoice(orderID, invoiceID, number, url string) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET invoice_id = ?, invoice_number = ?, invoice_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, invoiceID, number, url, orderID)
	return err
}

func (r *OrderRepo) SetShipment(orderID, packetID, barcode, trackingURL, labelURL string) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET packeta_packet_id = ?, packeta_barcode = ?,
		    packeta_tracking_url = ?, packeta_label_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, packetID, barcode, trackingURL, labelURL, orderID)
	return err
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, customer_email, status, payment_status, payment_method, total, created_at
		FROM orders
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}
