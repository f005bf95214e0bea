// Package sku generates product identifiers of the form "XXX-0001": the
// category's three letter initials, a hyphen, and a zero padded sequence
// number that only ever counts up.
package sku

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"catalog-service/internal/model"
)

// CategorySource resolves the category whose initials prefix the SKU.
type CategorySource interface {
	FindByID(ctx context.Context, id uint) (*model.Category, error)
}

// ProductSource lists every SKU starting with the given prefix. The listing
// must include soft deleted products so their numbers are never handed out
// again.
type ProductSource interface {
	SKUsWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Allocator computes the next SKU for a category from the store's current
// contents. Allocation is not atomic on its own: callers serialize per
// category and rely on the unique index on the sku column to catch races.
type Allocator struct {
	categories CategorySource
	products   ProductSource
}

func NewAllocator(categories CategorySource, products ProductSource) *Allocator {
	return &Allocator{categories: categories, products: products}
}

// NextSKU returns the next free SKU for the category, e.g. "GUI-0002" when
// "GUI-0001" is the highest existing number.
func (a *Allocator) NextSKU(ctx context.Context, categoryID uint) (string, error) {
	category, err := a.categories.FindByID(ctx, categoryID)
	if err != nil {
		return "", err
	}
	prefix := strings.ToUpper(category.SKUInitials)
	existing, err := a.products.SKUsWithPrefix(ctx, prefix+"-")
	if err != nil {
		return "", err
	}
	return Next(prefix, existing), nil
}

// Next computes "<prefix>-<max+1>" over the existing SKUs, zero padding the
// number to four digits. The sequence number is the segment after the last
// hyphen; a SKU whose last segment is not an integer is ignored rather than
// treated as an error.
func Next(prefix string, existing []string) string {
	max := 0
	for _, s := range existing {
		parts := strings.Split(s, "-")
		if len(parts) < 2 {
			continue
		}
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%04d", prefix, max+1)
}
