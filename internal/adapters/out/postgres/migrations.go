package postgres

import (
	"context"
	"fmt"

	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/offerrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"

	"gorm.io/gorm"
)

// Notification channels the change feed listens on.
const (
	OrdersChannel   = "dispatch_orders"
	CouriersChannel = "dispatch_couriers"
	OffersChannel   = "dispatch_offers"
)

// The triggers only notify on the transitions dispatch reacts to; the payload is
// the row key as text ("<courier_id>:<order_id>" for offers).
var triggerStatements = []string{
	`CREATE OR REPLACE FUNCTION dispatch_notify_order() RETURNS trigger AS $$
BEGIN
	IF NEW.status = 'seeking_courier' AND (TG_OP = 'INSERT' OR OLD.status IS DISTINCT FROM NEW.status) THEN
		PERFORM pg_notify('` + OrdersChannel + `', NEW.id::text);
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS dispatch_orders_notify ON orders`,
	`CREATE TRIGGER dispatch_orders_notify AFTER INSERT OR UPDATE OF status ON orders
	FOR EACH ROW EXECUTE FUNCTION dispatch_notify_order()`,

	`CREATE OR REPLACE FUNCTION dispatch_notify_courier() RETURNS trigger AS $$
BEGIN
	IF NEW.available AND (TG_OP = 'INSERT' OR NOT OLD.available) THEN
		PERFORM pg_notify('` + CouriersChannel + `', NEW.id::text);
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS dispatch_couriers_notify ON couriers`,
	`CREATE TRIGGER dispatch_couriers_notify AFTER INSERT OR UPDATE OF available ON couriers
	FOR EACH ROW EXECUTE FUNCTION dispatch_notify_courier()`,

	`CREATE OR REPLACE FUNCTION dispatch_notify_offer() RETURNS trigger AS $$
BEGIN
	IF NEW.accepted IS NOT NULL AND NOT NEW.settled AND (TG_OP = 'INSERT' OR OLD.accepted IS NULL) THEN
		PERFORM pg_notify('` + OffersChannel + `', NEW.courier_id::text || ':' || NEW.order_id::text);
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS dispatch_offers_notify ON offers`,
	`CREATE TRIGGER dispatch_offers_notify AFTER INSERT OR UPDATE OF accepted ON offers
	FOR EACH ROW EXECUTE FUNCTION dispatch_notify_offer()`,
}

// Migrate creates or updates the dispatch tables and installs the change feed triggers.
// It is safe to run repeatedly.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(&orderrepo.OrderDTO{}, &courierrepo.CourierDTO{}, &offerrepo.OfferDTO{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range triggerStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to install change feed triggers: %w", err)
			}
		}
		return nil
	})
}
