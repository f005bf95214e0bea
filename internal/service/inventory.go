package service

import (
	"context"

	"catalog-service/internal/model"
)

// StockStatus classifies a product's stock level.
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// InventoryStatus is the derived stock view of one product. TotalValue is
// absent without a unit cost; ProfitMargin is absent without a positive
// unit cost and a selling price.
type InventoryStatus struct {
	Status       StockStatus `json:"status"`
	TotalValue   *int        `json:"total_value"`
	ProfitMargin *float64    `json:"profit_margin"`
}

// ComputeInventoryStatus derives the stock view from the product's
// counters alone. Zero stock is out_of_stock even when the reorder point
// is also zero.
func ComputeInventoryStatus(p *model.Product) InventoryStatus {
	var st InventoryStatus
	switch {
	case p.StockQuantity == 0:
		st.Status = StatusOutOfStock
	case p.StockQuantity <= p.ReorderPoint:
		st.Status = StatusLowStock
	default:
		st.Status = StatusInStock
	}
	if p.UnitCost != nil {
		value := p.StockQuantity * *p.UnitCost
		st.TotalValue = &value
		if *p.UnitCost > 0 && p.SellingPrice != nil {
			margin := float64(*p.SellingPrice-*p.UnitCost) / float64(*p.UnitCost) * 100
			st.ProfitMargin = &margin
		}
	}
	return st
}

// ProductInventory pairs a product with its derived inventory status.
type ProductInventory struct {
	model.Product
	InventoryStatus
}

// InventorySummary aggregates the report across all products.
type InventorySummary struct {
	TotalProducts       int `json:"total_products"`
	InStock             int `json:"in_stock"`
	LowStock            int `json:"low_stock"`
	OutOfStock          int `json:"out_of_stock"`
	TotalInventoryValue int `json:"total_inventory_value"`
}

// InventoryReport lists every product with its status plus the summary
// block.
type InventoryReport struct {
	Products []ProductInventory `json:"products"`
	Summary  InventorySummary   `json:"summary"`
}

// InventoryReport builds the stock report over every live product.
func (s *ProductService) InventoryReport(ctx context.Context) (*InventoryReport, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	products, err := s.repos.Products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &InventoryReport{Products: make([]ProductInventory, 0, len(products))}
	for i := range products {
		status := ComputeInventoryStatus(&products[i])
		report.Products = append(report.Products, ProductInventory{
			Product:         products[i],
			InventoryStatus: status,
		})
		report.Summary.TotalProducts++
		switch status.Status {
		case StatusInStock:
			report.Summary.InStock++
		case StatusLowStock:
			report.Summary.LowStock++
		default:
			report.Summary.OutOfStock++
		}
		if status.TotalValue != nil {
			report.Summary.TotalInventoryValue += *status.TotalValue
		}
	}
	return report, nil
}
