package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (catalog + admin user)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products double as the inventory store: every row is a unique
-- physical item. inventory_status is authoritative; sold/stock are
-- legacy mirrors derived on every transition. reserved_until is unix
-- milliseconds so sub-second holds compare correctly.
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT DEFAULT '',
  price INTEGER NOT NULL CHECK (price >= 0),
  size TEXT DEFAULT '',
  condition TEXT DEFAULT '',
  category TEXT DEFAULT '',
  gender TEXT DEFAULT '',
  images_json TEXT DEFAULT '[]',
  stock INTEGER NOT NULL DEFAULT 1 CHECK (stock IN (0,1)),
  sold INTEGER NOT NULL DEFAULT 0 CHECK (sold IN (0,1)),
  inventory_status TEXT NOT NULL DEFAULT 'available'
    CHECK (inventory_status IN ('available','reserved','sold')),
  reserved_by TEXT,
  reserved_until INTEGER,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_status   ON products(inventory_status);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_created  ON products(created_at);

CREATE TABLE IF NOT EXISTS customers(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_email ON customers(LOWER(email));

-- Orders are write-once-then-settled; never deleted. Address columns
-- are immutable JSON snapshots taken at checkout.
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_id TEXT REFERENCES customers(id),
  customer_email TEXT NOT NULL,
  customer_phone TEXT DEFAULT '',
  shipping_name TEXT DEFAULT '',
  status TEXT NOT NULL DEFAULT 'processing'
    CHECK (status IN ('processing','shipped','delivered','cancelled')),
  payment_status TEXT NOT NULL DEFAULT 'pending'
    CHECK (payment_status IN ('pending','prepared','started','succeeded','failed','cancelled','expired')),
  payment_method TEXT NOT NULL DEFAULT 'barion'
    CHECK (payment_method IN ('barion','cash_on_delivery')),
  total INTEGER NOT NULL,
  shipping_address TEXT NOT NULL,
  billing_address TEXT NOT NULL,
  notes TEXT DEFAULT '',
  payment_id TEXT,
  payment_redirect_url TEXT,
  barion_transaction_id TEXT,
  packeta_point_id TEXT,
  packeta_point_name TEXT,
  packeta_point_address TEXT,
  packeta_packet_id TEXT,
  packeta_barcode TEXT,
  packeta_tracking_url TEXT,
  packeta_label_url TEXT,
  invoice_id TEXT,
  invoice_number TEXT,
  invoice_url TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_payment_id ON orders(payment_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL DEFAULT 1,
  price_at_purchase INTEGER NOT NULL,
  PRIMARY KEY (order_id, product_id)
);

-- Admin users & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo catalog")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,name,description,price,size,condition,category,gender,images_json) VALUES
	  ('vv-nike-windbreaker-90s','Nike Windbreaker 90s','Color-block shell jacket, archive piece',15000,'L','Kiváló','Dzseki','Férfi','["products/vv-nike-windbreaker-90s/main.jpg"]'),
	  ('vv-tommy-crewneck','Tommy Hilfiger Crewneck','Flag logo sweatshirt',12500,'M','Jó','Pulóver','Férfi','["products/vv-tommy-crewneck/main.jpg"]'),
	  ('vv-tnf-fleece','The North Face Fleece','Denali style fleece, early 2000s',18000,'S','Kiváló','Pulóver','Női','["products/vv-tnf-fleece/main.jpg"]')`)

	return tx.Commit()
}

// seedUsers ensures an admin exists (idempotent; safe to run every start).
func seedUsers(db *sqlx.DB) error {
	h, _ := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 12)

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO users(id,email,name,password_hash,role)
		VALUES('u-admin','admin@vintagevibes.hu','Admin',?, 'ADMIN')
		ON CONFLICT(email) DO NOTHING
	`, string(h)); err != nil {
		return err
	}

	return tx.Commit()
}
