package repos

import (
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
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
	// Seed baseline data if DB is empty (shops/categories/products/orders)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Shops
CREATE TABLE IF NOT EXISTS shops(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  city TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_slug ON categories(slug);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL REFERENCES shops(id) ON DELETE RESTRICT,
  category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
  brand_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  original_price NUMERIC,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  sales_count INTEGER NOT NULL DEFAULT 0 CHECK (sales_count >= 0),
  rating NUMERIC NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 5),
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  raw_tags TEXT,
  images_json TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_shop       ON products(shop_id);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_status     ON products(status);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Options / variants
CREATE TABLE IF NOT EXISTS product_options(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  value TEXT NOT NULL,
  price NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_options_product ON product_options(product_id);

-- Orders (only order_items membership is read here, for co-occurrence)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  qty INTEGER NOT NULL DEFAULT 1,
  PRIMARY KEY (order_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);
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

	log.Println("[seed] inserting demo shops/categories/products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO shops(id,name,city) VALUES
	  ('shop-hanoi','Hanoi Outfitters','Hanoi'),
	  ('shop-hcm','Saigon Sneakers','Ho Chi Minh'),
	  ('shop-nocity','Warehouse Direct',NULL)`)

	tx.MustExec(`INSERT INTO categories(id,name,slug) VALUES
	  ('cat-shirts','Shirts','shirts'),
	  ('cat-shoes','Shoes','shoes'),
	  ('cat-bags','Bags','bags')`)

	tx.MustExec(`INSERT INTO products(id,shop_id,category_id,brand_id,name,slug,description,price,original_price,stock,sales_count,rating,status,raw_tags,images_json) VALUES
	  ('p-ao-thun','shop-hanoi','cat-shirts','brand-local','Ao Thun Basic','ao-thun-basic','Plain cotton tee',120000,150000,40,320,4.6,'ACTIVE','["ao thun","cotton","basic"]','["p-ao-thun/1.jpg","p-ao-thun/2.jpg"]'),
	  ('p-sneaker','shop-hcm','cat-shoes','brand-run','Runner Sneaker','runner-sneaker','Lightweight running shoe',890000,NULL,12,75,4.2,'ACTIVE','sneaker,running,shoes','["p-sneaker/1.jpg"]'),
	  ('p-tote','shop-nocity','cat-bags',NULL,'Canvas Tote','canvas-tote','Everyday canvas tote',220000,NULL,25,8,4.9,'ACTIVE','tote,canvas','["p-tote/1.jpg"]'),
	  ('p-retired','shop-hanoi','cat-shirts',NULL,'Old Flannel','old-flannel','No longer sold',99000,NULL,0,410,3.9,'INACTIVE','flannel','[]')`)

	tx.MustExec(`INSERT INTO product_options(id,product_id,name,value,price,stock) VALUES
	  ('opt-1','p-ao-thun','size','M',120000,20),
	  ('opt-2','p-ao-thun','size','L',125000,20),
	  ('opt-3','p-sneaker','size','42',890000,6)`)

	// a couple of shared orders so bought-together has signal
	o1, o2 := uuid.NewString(), uuid.NewString()
	tx.MustExec(`INSERT INTO orders(id) VALUES (?),(?)`, o1, o2)
	tx.MustExec(`INSERT INTO order_items(order_id,product_id,qty) VALUES
	  (?, 'p-ao-thun', 1), (?, 'p-sneaker', 1),
	  (?, 'p-ao-thun', 2), (?, 'p-tote', 1)`, o1, o1, o2, o2)

	return tx.Commit()
}
