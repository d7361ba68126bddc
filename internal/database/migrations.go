package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createTicketTypesTable,
		createPromoCodesTable,
		createReferralsTable,
		createTicketSalesTable,
		createShareEventsTable,
		createSaleSideEffectsTable,
		createShareEventsScopeIndex,
		createTicketSalesEventIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createTicketTypesTable = `
CREATE TABLE IF NOT EXISTS ticket_types (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL,
    name VARCHAR(255) NOT NULL,
    price DECIMAL(10,2) NOT NULL CHECK (price >= 0),
    quantity_available INTEGER NOT NULL CHECK (quantity_available >= 0),
    quantity_sold INTEGER NOT NULL DEFAULT 0,
    max_per_customer INTEGER,
    sale_start TIMESTAMP,
    sale_end TIMESTAMP,
    benefits TEXT[],
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_transferable BOOLEAN NOT NULL DEFAULT FALSE,
    transfer_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (quantity_sold >= 0 AND quantity_sold <= quantity_available)
);`

const createPromoCodesTable = `
CREATE TABLE IF NOT EXISTS promo_codes (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL,
    code VARCHAR(64) NOT NULL,
    discount_type VARCHAR(20) NOT NULL,
    discount_value DECIMAL(10,2) NOT NULL CHECK (discount_value >= 0),
    max_discount_amount DECIMAL(10,2),
    min_purchase_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
    max_uses INTEGER,
    current_uses INTEGER NOT NULL DEFAULT 0,
    start_date TIMESTAMP,
    end_date TIMESTAMP,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(event_id, code),
    CHECK (discount_type IN ('percentage', 'fixed')),
    CHECK (max_uses IS NULL OR current_uses <= max_uses)
);`

const createReferralsTable = `
CREATE TABLE IF NOT EXISTS referrals (
    id SERIAL PRIMARY KEY,
    referrer_id INTEGER NOT NULL,
    referred_email VARCHAR(255) NOT NULL,
    event_id INTEGER NOT NULL,
    referral_code VARCHAR(64) UNIQUE NOT NULL,
    discount_amount DECIMAL(10,2) NOT NULL CHECK (discount_amount >= 0),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    used_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'used', 'expired'))
);`

const createTicketSalesTable = `
CREATE TABLE IF NOT EXISTS ticket_sales (
    id SERIAL PRIMARY KEY,
    ticket_type_id INTEGER NOT NULL REFERENCES ticket_types(id),
    event_id INTEGER NOT NULL,
    customer_email VARCHAR(255) NOT NULL,
    customer_name VARCHAR(255) NOT NULL,
    customer_phone VARCHAR(50),
    quantity INTEGER NOT NULL CHECK (quantity >= 1),
    total_amount DECIMAL(10,2) NOT NULL CHECK (total_amount >= 0),
    fees DECIMAL(10,2) NOT NULL DEFAULT 0 CHECK (fees >= 0),
    payment_status VARCHAR(20) NOT NULL DEFAULT 'paid',
    order_number VARCHAR(64) UNIQUE NOT NULL,
    promo_code_id INTEGER REFERENCES promo_codes(id),
    referral_id INTEGER REFERENCES referrals(id),
    share_platform VARCHAR(50),
    share_source VARCHAR(100),
    delivery_method VARCHAR(20) NOT NULL DEFAULT 'digital',
    billing_address TEXT,
    metadata JSONB,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (payment_status IN ('pending', 'paid', 'refunded', 'disputed'))
);`

const createShareEventsTable = `
CREATE TABLE IF NOT EXISTS share_events (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL,
    ticket_type_id INTEGER,
    platform VARCHAR(50) NOT NULL,
    click_count INTEGER NOT NULL DEFAULT 0,
    conversion_count INTEGER NOT NULL DEFAULT 0,
    revenue_generated DECIMAL(12,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createSaleSideEffectsTable = `
CREATE TABLE IF NOT EXISTS sale_side_effects (
    sale_id INTEGER PRIMARY KEY REFERENCES ticket_sales(id),
    promo_code_id INTEGER REFERENCES promo_codes(id),
    promo_applied_at TIMESTAMP,
    share_platform VARCHAR(50),
    share_source VARCHAR(100),
    share_applied_at TIMESTAMP,
    attempts INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP
);`

const createShareEventsScopeIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS share_events_scope_idx
ON share_events (event_id, COALESCE(ticket_type_id, 0), platform);`

const createTicketSalesEventIndex = `
CREATE INDEX IF NOT EXISTS ticket_sales_event_idx
ON ticket_sales (event_id, ticket_type_id);`
