package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownItem is the product name reported for transactions whose amount does
// not match any catalog price.
const UnknownItem = "Unknown Item"

// Product is a single purchasable catalog entry.
type Product struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// DisplayPrice renders the price the way the catalog lists it to the model.
func (p Product) DisplayPrice() string {
	return p.Price.String()
}

// Amount renders the price as a two-decimal amount suitable for the payment API.
func (p Product) Amount() string {
	return p.Price.StringFixed(2)
}

// Catalog is the read-only product list loaded once at startup. It is safe for
// concurrent use because nothing mutates it after construction.
type Catalog struct {
	products []Product
}

// NewCatalog copies products into a new Catalog.
func NewCatalog(products []Product) *Catalog {
	cp := make([]Product, len(products))
	copy(cp, products)
	return &Catalog{products: cp}
}

// Products returns a copy of the catalog entries in load order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	cp := make([]Product, len(c.products))
	copy(cp, c.products)
	return cp
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// FindByName resolves a product by case-insensitive exact name match.
func (c *Catalog) FindByName(name string) (Product, bool) {
	if c == nil || name == "" {
		return Product{}, false
	}
	for _, p := range c.products {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Product{}, false
}

// FindByPrice returns the first product whose price equals amount when both
// are rounded to two decimal places. Several products may share a price; the
// first in catalog order wins. Only used to label transactions for display.
func (c *Catalog) FindByPrice(amount string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	want, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Product{}, false
	}
	wantFixed := want.StringFixed(2)
	for _, p := range c.products {
		if p.Price.StringFixed(2) == wantFixed {
			return p, true
		}
	}
	return Product{}, false
}
