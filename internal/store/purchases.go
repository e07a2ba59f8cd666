package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/partsbin/internal/model"
)

const purchaseColumns = `id, item_id, project_id, supplier, sku, name, category, quantity,
	unit_price, shipping, currency, purchased_at, source_file`

// FileInfo holds the tracked mtime and size for an order file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// ImportBatch is the parsed content of one order file.
type ImportBatch struct {
	SourceFile string
	File       FileInfo
	Purchases  []model.Purchase
	// Restock adds purchased quantities to inventory. Set on first import
	// of a file only, so re-parsing an edited file does not double stock.
	Restock bool
}

// ListPurchases returns all purchases, newest first.
func (s *Store) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+purchaseColumns+` FROM purchases
		ORDER BY purchased_at DESC, id`))
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Purchase
	for rows.Next() {
		var (
			p                            model.Purchase
			qty                          int64
			price, shipping, purchasedAt string
		)
		err := rows.Scan(&p.ID, &p.ItemID, &p.ProjectID, &p.Supplier, &p.SKU, &p.Name, &p.Category,
			&qty, &price, &shipping, &p.Currency, &purchasedAt, &p.SourceFile)
		if err != nil {
			return nil, err
		}
		p.Quantity = int(qty)
		p.UnitPrice = parseDecimal(price)
		p.Shipping = parseDecimal(shipping)
		p.PurchasedAt = parseTime(purchasedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddPurchase records a single manual purchase.
func (s *Store) AddPurchase(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now()
	}
	if err := s.insertPurchase(ctx, s.db, p); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Store) insertPurchase(ctx context.Context, q querier, p model.Purchase) error {
	_, err := q.ExecContext(ctx, s.q(`INSERT INTO purchases (`+purchaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			item_id = excluded.item_id, project_id = excluded.project_id,
			supplier = excluded.supplier, sku = excluded.sku, name = excluded.name,
			category = excluded.category, quantity = excluded.quantity,
			unit_price = excluded.unit_price, shipping = excluded.shipping,
			currency = excluded.currency, purchased_at = excluded.purchased_at,
			source_file = excluded.source_file`),
		p.ID, p.ItemID, p.ProjectID, p.Supplier, p.SKU, p.Name, p.Category, p.Quantity,
		p.UnitPrice.String(), p.Shipping.String(), p.Currency, formatTime(p.PurchasedAt), p.SourceFile,
	)
	if err != nil {
		return fmt.Errorf("saving purchase %s: %w", p.ID, err)
	}
	return nil
}

// ApplyImport replaces the purchases of one order file, links each line to
// an inventory item (creating one by SKU when needed) and tracks the file.
func (s *Store) ApplyImport(ctx context.Context, b ImportBatch) error {
	now := time.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM purchases WHERE source_file = ?`), b.SourceFile); err != nil {
			return fmt.Errorf("clearing purchases for %s: %w", b.SourceFile, err)
		}

		for _, p := range b.Purchases {
			p.SourceFile = b.SourceFile
			if p.ItemID == "" && p.SKU != "" {
				id, err := s.ensureItem(ctx, tx, p, now)
				if err != nil {
					return err
				}
				p.ItemID = id
			}
			if b.Restock && p.ItemID != "" {
				// The price only follows the order when it is in the item's
				// currency; the stored pair must stay consistent.
				_, err := tx.ExecContext(ctx, s.q(`UPDATE items
					SET quantity = quantity + ?,
						unit_price = CASE WHEN UPPER(currency) = UPPER(?) THEN ? ELSE unit_price END,
						updated_at = ?
					WHERE id = ?`),
					p.Quantity, p.Currency, p.UnitPrice.String(), formatTime(now), p.ItemID)
				if err != nil {
					return fmt.Errorf("restocking %s: %w", p.ItemID, err)
				}
			}
			if err := s.insertPurchase(ctx, tx, p); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO file_tracker (file_path, mtime_ns, size_bytes)
			VALUES (?, ?, ?)
			ON CONFLICT (file_path) DO UPDATE SET mtime_ns = excluded.mtime_ns, size_bytes = excluded.size_bytes`),
			b.SourceFile, b.File.MtimeNs, b.File.SizeBytes)
		if err != nil {
			return fmt.Errorf("tracking %s: %w", b.SourceFile, err)
		}
		return nil
	})
}

// ensureItem finds the item for a purchase's SKU or creates an empty one.
func (s *Store) ensureItem(ctx context.Context, tx *sql.Tx, p model.Purchase, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, s.q(`SELECT id FROM items WHERE sku = ? AND (supplier = ? OR supplier = '')
		ORDER BY supplier DESC LIMIT 1`), p.SKU, p.Supplier).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("looking up sku %s: %w", p.SKU, err)
	}

	name := p.Name
	if name == "" {
		name = p.SKU
	}
	it := model.InventoryItem{
		ID:        ItemIDForSKU(p.Supplier, p.SKU),
		Name:      name,
		SKU:       p.SKU,
		Category:  p.Category,
		Supplier:  p.Supplier,
		UnitPrice: p.UnitPrice,
		Currency:  p.Currency,
		UpdatedAt: now,
	}
	if err := s.upsertItem(ctx, tx, it); err != nil {
		return "", err
	}
	return it.ID, nil
}

// TrackedFiles returns a map of file path to FileInfo for all imported files.
func (s *Store) TrackedFiles(ctx context.Context) (map[string]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT file_path, mtime_ns, size_bytes FROM file_tracker`))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// ForgetFile removes a file's purchases and its tracking entry.
func (s *Store) ForgetFile(ctx context.Context, path string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM purchases WHERE source_file = ?`), path); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`DELETE FROM file_tracker WHERE file_path = ?`), path)
		return err
	})
}

// Dismiss hides a recommendation id from future results.
func (s *Store) Dismiss(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO dismissed_recommendations (id, dismissed_at)
		VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET dismissed_at = excluded.dismissed_at`),
		id, formatTime(at))
	if err != nil {
		return fmt.Errorf("dismissing %s: %w", id, err)
	}
	return nil
}

// Undismiss restores a dismissed recommendation.
func (s *Store) Undismiss(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM dismissed_recommendations WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOne(res, "dismissed recommendation", id)
}

// Dismissed returns the set of dismissed recommendation ids.
func (s *Store) Dismissed(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id FROM dismissed_recommendations`))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
