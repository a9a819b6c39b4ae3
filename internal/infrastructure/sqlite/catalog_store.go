package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/shopspring/decimal"
)

// CatalogStore persists one sale item catalog per store
type CatalogStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db, now: time.Now}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func scanSaleItem(scanner interface{ Scan(...any) error }) (*domain.SaleItem, error) {
	var item domain.SaleItem
	var amount, unit decimal.NullDecimal
	var percent sql.NullInt64

	err := scanner.Scan(&item.Name, &item.NormalizedName, &item.PriceDisplay, &amount, &percent, &unit)
	if err != nil {
		return nil, err
	}

	if amount.Valid && percent.Valid {
		p := int(percent.Int64)
		item.DiscountAmount = &amount.Decimal
		item.DiscountPercentage = &p
	}
	if unit.Valid {
		item.UnitPrice = &unit.Decimal
	}
	return &item, nil
}

const saleItemCols = `name, normalized_name, price_display, discount_amount, discount_percentage, unit_price`

// SaveCatalog replaces the stored catalog of a store in one transaction
func (s *CatalogStore) SaveCatalog(ctx context.Context, storeID, storeName string, catalog *domain.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO stores (store_id, store_name, scraped_at) VALUES (?, ?, ?)
		 ON CONFLICT(store_id) DO UPDATE SET store_name = excluded.store_name, scraped_at = excluded.scraped_at`,
		storeID, storeName, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE store_id = ?`, storeID); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sale_items (store_id, position, `+saleItemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range catalog.Items() {
		_, err := stmt.ExecContext(ctx,
			storeID, i, item.Name, item.NormalizedName, item.PriceDisplay,
			nullDecimal(item.DiscountAmount), nullInt(item.DiscountPercentage), nullDecimal(item.UnitPrice),
		)
		if err != nil {
			return fmt.Errorf("insert sale item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadCatalog returns a store's catalog in scrape order
func (s *CatalogStore) LoadCatalog(ctx context.Context, storeID string) (*domain.Catalog, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM stores WHERE store_id = ?`, storeID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, storeID)
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+saleItemCols+` FROM sale_items WHERE store_id = ? ORDER BY position ASC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	catalog := domain.NewCatalog()
	for rows.Next() {
		item, err := scanSaleItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		catalog.Add(item)
	}
	return catalog, rows.Err()
}

// ListStores returns every store with a saved catalog, most recently scraped first
func (s *CatalogStore) ListStores(ctx context.Context) ([]domain.StoreInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.store_id, s.store_name, s.scraped_at, COUNT(i.position)
		 FROM stores s LEFT JOIN sale_items i ON i.store_id = s.store_id
		 GROUP BY s.store_id
		 ORDER BY s.scraped_at DESC, s.store_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	stores := []domain.StoreInfo{}
	for rows.Next() {
		var info domain.StoreInfo
		if err := rows.Scan(&info.StoreID, &info.StoreName, &info.ScrapedAt, &info.ItemCount); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, info)
	}
	return stores, rows.Err()
}
