package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

const itemColumns = `id, name, sku, category, supplier, quantity, min_quantity,
	unit_price, currency, location, tags, updated_at`

// itemNamespace seeds deterministic ids for items created by order imports.
var itemNamespace = uuid.MustParse("6f1c4c1e-5b7a-4f0e-9d43-2f6f0b1a7c11")

// ItemIDForSKU returns the id an imported item gets for a supplier and SKU.
func ItemIDForSKU(supplier, sku string) string {
	return uuid.NewSHA1(itemNamespace, []byte(supplier+"\x00"+sku)).String()
}

// ListItems returns all inventory items ordered by name.
func (s *Store) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+itemColumns+` FROM items ORDER BY name, id`))
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem returns one item by id.
func (s *Store) GetItem(ctx context.Context, id string) (model.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return it, notFound("item", id)
	}
	return it, err
}

// SaveItem inserts or updates an item. An empty id is assigned a new UUID.
func (s *Store) SaveItem(ctx context.Context, it model.InventoryItem) (model.InventoryItem, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = time.Now()
	}
	if err := s.upsertItem(ctx, s.db, it); err != nil {
		return it, err
	}
	return it, nil
}

func (s *Store) upsertItem(ctx context.Context, q querier, it model.InventoryItem) error {
	tags, err := json.Marshal(nonNil(it.Tags))
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, s.q(`INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, sku = excluded.sku, category = excluded.category,
			supplier = excluded.supplier, quantity = excluded.quantity,
			min_quantity = excluded.min_quantity, unit_price = excluded.unit_price,
			currency = excluded.currency, location = excluded.location,
			tags = excluded.tags, updated_at = excluded.updated_at`),
		it.ID, it.Name, it.SKU, it.Category, it.Supplier, it.Quantity, it.MinQuantity,
		it.UnitPrice.String(), it.Currency, it.Location, string(tags), formatTime(it.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving item %s: %w", it.ID, err)
	}
	return nil
}

// SetQuantity sets the on-hand quantity of an item.
func (s *Store) SetQuantity(ctx context.Context, id string, qty int) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE items SET quantity = ?, updated_at = ? WHERE id = ?`),
		qty, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating quantity: %w", err)
	}
	return expectOne(res, "item", id)
}

// SetUnitPrice updates the unit price of an item.
func (s *Store) SetUnitPrice(ctx context.Context, id string, price decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE items SET unit_price = ?, updated_at = ? WHERE id = ?`),
		price.String(), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating unit price: %w", err)
	}
	return expectOne(res, "item", id)
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectOne(res, "item", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (model.InventoryItem, error) {
	var (
		it                     model.InventoryItem
		price, tags, updatedAt string
		quantity, minQuantity  int64
	)
	err := r.Scan(&it.ID, &it.Name, &it.SKU, &it.Category, &it.Supplier, &quantity, &minQuantity,
		&price, &it.Currency, &it.Location, &tags, &updatedAt)
	if err != nil {
		return it, err
	}
	it.Quantity = int(quantity)
	it.MinQuantity = int(minQuantity)
	it.UnitPrice = parseDecimal(price)
	it.UpdatedAt = parseTime(updatedAt)
	if tags != "" {
		_ = json.Unmarshal([]byte(tags), &it.Tags)
	}
	return it, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
