package repos

import (
	"github.com/jmoiron/sqlx"
)

// InventoryRepo owns every inventory state transition. Each mutating
// operation is a single conditional UPDATE whose WHERE clause encodes
// the precondition, so two concurrent requests can never both observe
// 'available' and both win: the row update is the linearization point.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Reserve places or refreshes a soft hold. It wins iff the item is not
// sold AND (available, already held by this holder, or held by an
// expired holder). until/now are unix milliseconds. Returns whether the
// caller won the hold.
func (r *InventoryRepo) Reserve(productID, holder string, until, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE products
		SET inventory_status = 'reserved',
		    reserved_by = ?, reserved_until = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND inventory_status != 'sold'
		  AND (inventory_status = 'available' OR reserved_by = ? OR reserved_until < ?)
	`, holder, until, productID, holder, now)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// Release clears a hold only if the caller still owns it. A stale
// release from an expired or transferred hold must not touch the new
// holder's reservation, so losing the condition is a silent no-op.
func (r *InventoryRepo) Release(productID, holder string) error {
	_, err := r.db.Exec(`
		UPDATE products
		SET inventory_status = 'available',
		    reserved_by = NULL, reserved_until = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND inventory_status = 'reserved' AND reserved_by = ?
	`, productID, holder)
	return err
}

// CompletePurchase turns the caller's hold into a sale. Returns whether
// the row transitioned; an already-sold item reports false here and the
// caller treats it as an idempotent retry.
func (r *InventoryRepo) CompletePurchase(productID, holder string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE products
		SET inventory_status = 'sold', sold = 1, stock = 0,
		    reserved_by = NULL, reserved_until = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND inventory_status = 'reserved' AND reserved_by = ?
	`, productID, holder)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// MarkSold finalizes a sale regardless of the current holder. Only the
// payment settlement path uses it: the gateway outcome, not the session,
// is authoritative there. Idempotent.
func (r *InventoryRepo) MarkSold(productID string) error {
	_, err := r.db.Exec(`
		UPDATE products
		SET inventory_status = 'sold', sold = 1, stock = 0,
		    reserved_by = NULL, reserved_until = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND inventory_status != 'sold'
	`, productID)
	return err
}

// ForceRelease clears a hold regardless of holder (terminally dead
// order). No-op when the item is not reserved.
func (r *InventoryRepo) ForceRelease(productID string) error {
	_, err := r.db.Exec(`
		UPDATE products
		SET inventory_status = 'available',
		    reserved_by = NULL, reserved_until = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND inventory_status = 'reserved'
	`, productID)
	return err
}

// SweepExpired releases every hold whose deadline passed. The same
// conditional-update discipline as Reserve, so it is safe to run
// concurrently with live reserve/release traffic.
func (r *InventoryRepo) SweepExpired(now int64) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE products
		SET inventory_status = 'available',
		    reserved_by = NULL, reserved_until = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE inventory_status = 'reserved' AND reserved_until < ?
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Status reads the authoritative inventory status (for classifying a
// lost reserve and for the availability endpoint).
func (r *InventoryRepo) Status(productID string) (string, error) {
	var s string
	err := r.db.Get(&s, `SELECT inventory_status FROM products WHERE id = ?`, productID)
	return s, err
}
