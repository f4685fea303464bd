package sqlite

import (
	"time"

	"github.com/relook-app/relook/internal/domain"
)

// ─── Purchase Ledger ────────────────────────────────────────────────────────

// RecordPurchase appends a store purchase to the ledger.
func (d *DB) RecordPurchase(p domain.Purchase) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO purchases (cosmetic_id, price, xp_before, xp_after, at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.CosmeticID, p.Price, p.XPBefore, p.XPAfter, p.At.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Purchases returns recent purchases, newest first.
func (d *DB) Purchases(limit int) ([]domain.Purchase, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT id, cosmetic_id, price, xp_before, xp_after, at
		 FROM purchases ORDER BY at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		var at int64
		if err := rows.Scan(&p.ID, &p.CosmeticID, &p.Price, &p.XPBefore, &p.XPAfter, &at); err != nil {
			return nil, err
		}
		p.At = time.Unix(at, 0)
		out = append(out, p)
	}
	return out, rows.Err()
}

// TotalSpent returns the XP spent across all purchases.
func (d *DB) TotalSpent() (int, error) {
	var total int
	err := d.db.QueryRow(`SELECT COALESCE(SUM(price), 0) FROM purchases`).Scan(&total)
	return total, err
}
