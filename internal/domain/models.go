package domain

import "database/sql"

// Inventory states. InventoryStatus is the single source of truth for
// purchasability; Sold and Stock are legacy mirrors kept consistent on
// every transition.
const (
	InventoryAvailable = "available"
	InventoryReserved  = "reserved"
	InventorySold      = "sold"
)

// Order lifecycle states.
const (
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Payment states mirroring the gateway.
const (
	PaymentPending   = "pending"
	PaymentPrepared  = "prepared"
	PaymentStarted   = "started"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
	PaymentExpired   = "expired"
)

// Payment methods.
const (
	MethodBarion         = "barion"
	MethodCashOnDelivery = "cash_on_delivery"
)

// Product is a one-of-a-kind catalog item; quantity is always 0 or 1.
// ReservedBy holds an anonymous session token or a customer email.
// ReservedUntil is unix milliseconds so sub-second holds order correctly.
type Product struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	Price           int64          `db:"price" json:"price"`
	Size            string         `db:"size" json:"size"`
	Condition       string         `db:"condition" json:"condition"`
	Category        string         `db:"category" json:"category"`
	Gender          string         `db:"gender" json:"gender"`
	ImagesJSON      string         `db:"images_json" json:"images"`
	Stock           int            `db:"stock" json:"stock"`
	Sold            bool           `db:"sold" json:"sold"`
	InventoryStatus string         `db:"inventory_status" json:"inventory_status"`
	ReservedBy      sql.NullString `db:"reserved_by" json:"-"`
	ReservedUntil   sql.NullInt64  `db:"reserved_until" json:"-"`
	CreatedAt       string         `db:"created_at" json:"created_at"`
	UpdatedAt       sql.NullString `db:"updated_at" json:"-"`
}

type Customer struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// Address is denormalized onto the order as a JSON snapshot, immutable
// once set.
type Address struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PacketaPoint is the parcel locker chosen in the Packeta widget.
type PacketaPoint struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

type Availability struct {
	Status string `json:"status"` // available | reserved | sold
}
