package service

import (
	"context"
	"testing"

	"catalog-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeInventoryStatus(t *testing.T) {
	cases := []struct {
		name    string
		product model.Product
		status  StockStatus
	}{
		{"zero stock", model.Product{StockQuantity: 0, ReorderPoint: 0}, StatusOutOfStock},
		{"zero stock with reorder point", model.Product{StockQuantity: 0, ReorderPoint: 5}, StatusOutOfStock},
		{"below reorder point", model.Product{StockQuantity: 3, ReorderPoint: 5}, StatusLowStock},
		{"at reorder point", model.Product{StockQuantity: 5, ReorderPoint: 5}, StatusLowStock},
		{"above reorder point", model.Product{StockQuantity: 6, ReorderPoint: 5}, StatusInStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := ComputeInventoryStatus(&tc.product)
			assert.Equal(t, tc.status, st.Status)
		})
	}
}

func TestComputeInventoryValueAndMargin(t *testing.T) {
	// No unit cost means no value and no margin.
	st := ComputeInventoryStatus(&model.Product{StockQuantity: 10, SellingPrice: intPtr(1500)})
	assert.Nil(t, st.TotalValue)
	assert.Nil(t, st.ProfitMargin)

	// Unit cost alone yields a value, no margin.
	st = ComputeInventoryStatus(&model.Product{StockQuantity: 10, UnitCost: intPtr(1000)})
	require.NotNil(t, st.TotalValue)
	assert.Equal(t, 10000, *st.TotalValue)
	assert.Nil(t, st.ProfitMargin)

	// Both prices give the margin in percent.
	st = ComputeInventoryStatus(&model.Product{
		StockQuantity: 10,
		UnitCost:      intPtr(1000),
		SellingPrice:  intPtr(1500),
	})
	require.NotNil(t, st.ProfitMargin)
	assert.InDelta(t, 50.0, *st.ProfitMargin, 0.0001)

	// A zero unit cost still values the stock, but no margin is derived.
	st = ComputeInventoryStatus(&model.Product{StockQuantity: 10, UnitCost: intPtr(0), SellingPrice: intPtr(1500)})
	require.NotNil(t, st.TotalValue)
	assert.Equal(t, 0, *st.TotalValue)
	assert.Nil(t, st.ProfitMargin)
}

func TestInventoryReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.createCategory(t, "Toys", "TOY")

	_, err := f.products.Create(ctx, CreateProductInput{
		Name:          "Car",
		CategoryID:    &cat.ID,
		StockQuantity: intPtr(10),
		ReorderPoint:  intPtr(5),
		UnitCost:      intPtr(1000),
		SellingPrice:  intPtr(1500),
	})
	require.NoError(t, err)
	_, err = f.products.Create(ctx, CreateProductInput{
		Name:          "Boat",
		CategoryID:    &cat.ID,
		StockQuantity: intPtr(2),
		ReorderPoint:  intPtr(5),
	})
	require.NoError(t, err)
	_, err = f.products.Create(ctx, CreateProductInput{Name: "Plane", CategoryID: &cat.ID})
	require.NoError(t, err)

	report, err := f.products.InventoryReport(ctx)
	require.NoError(t, err)

	require.Len(t, report.Products, 3)
	assert.Equal(t, 3, report.Summary.TotalProducts)
	assert.Equal(t, 1, report.Summary.InStock)
	assert.Equal(t, 1, report.Summary.LowStock)
	assert.Equal(t, 1, report.Summary.OutOfStock)
	assert.Equal(t, 10000, report.Summary.TotalInventoryValue)

	// Ordered by SKU, so the first entry is the car.
	assert.Equal(t, "TOY-0001", report.Products[0].SKU)
	assert.Equal(t, StatusInStock, report.Products[0].Status)
}
