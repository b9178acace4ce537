// Package catalog loads the fixed product list the assistant may offer.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/worldofchami/paychat/pkg/models"
)

// ErrEmptyCatalog is returned when a source yields no products.
var ErrEmptyCatalog = errors.New("catalog: no products")

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT ''
	);`

// Load reads the catalog from the SQLite database when dbPath is set and
// from the JSON file at path otherwise.
func Load(ctx context.Context, path, dbPath string) (*models.Catalog, error) {
	if strings.TrimSpace(dbPath) != "" {
		return LoadSQLite(ctx, dbPath)
	}
	return LoadFile(path)
}

// LoadFile reads a JSON array of {name, price, image} entries.
func LoadFile(path string) (*models.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a JSON product list.
func Parse(raw []byte) (*models.Catalog, error) {
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := validate(products); err != nil {
		return nil, err
	}
	return models.NewCatalog(products), nil
}

// LoadSQLite reads the products table of a SQLite database in insertion order.
func LoadSQLite(ctx context.Context, dbPath string) (*models.Catalog, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	defer closeDB(db)

	rows, err := db.WithContext(ctx).Raw(`SELECT name, price, image FROM products ORDER BY id ASC`).Rows()
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var name, price, image string
		if err := rows.Scan(&name, &price, &image); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(price))
		if err != nil {
			return nil, fmt.Errorf("catalog: product %q has invalid price %q: %w", name, price, err)
		}
		products = append(products, models.Product{Name: name, Price: d, Image: image})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate products: %w", err)
	}

	if err := validate(products); err != nil {
		return nil, err
	}
	return models.NewCatalog(products), nil
}

// Seed creates the products table if needed and appends the given products.
func Seed(ctx context.Context, dbPath string, products []models.Product) error {
	if err := validate(products); err != nil {
		return err
	}

	db, err := open(dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(schemaSQL).Error; err != nil {
			return fmt.Errorf("catalog: create schema: %w", err)
		}
		for _, p := range products {
			if err := tx.Exec(`INSERT INTO products (name, price, image) VALUES (?, ?, ?)`,
				p.Name, p.Price.String(), p.Image).Error; err != nil {
				return fmt.Errorf("catalog: insert %q: %w", p.Name, err)
			}
		}
		return nil
	})
}

func open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func validate(products []models.Product) error {
	if len(products) == 0 {
		return ErrEmptyCatalog
	}
	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("catalog: product %d has no name", i)
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("catalog: product %q has negative price", p.Name)
		}
	}
	return nil
}
