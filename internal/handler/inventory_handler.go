package handler

import (
	"net/http"
	"time"

	"catalog-service/internal/service"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InventoryHandler exposes stock adjustments and the inventory report.
type InventoryHandler struct {
	products *service.ProductService
}

func NewInventoryHandler(products *service.ProductService) *InventoryHandler {
	return &InventoryHandler{products: products}
}

// Update handles adjusting stock counters for a product addressed by SKU
func (h *InventoryHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	sku := c.Param("sku")
	log.Info("Updating inventory", zap.String("sku", sku))

	var in service.InventoryUpdateInput
	if err := c.Bind(&in); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	product, err := h.products.UpdateInventory(c.Request().Context(), sku, in)
	if err != nil {
		return respondError(c, log, err, "Failed to update inventory")
	}

	prometheus.RecordProductOperation("update_inventory")
	prometheus.UpdateProductInventory(product.SKU, product.Name, categoryLabel(product), float64(product.StockQuantity))
	log.Info("Inventory updated successfully",
		zap.String("sku", product.SKU),
		zap.Int("stock_quantity", product.StockQuantity),
		zap.Int("reorder_point", product.ReorderPoint))
	return c.JSON(http.StatusOK, product)
}

// Status handles the full inventory report with the summary block
func (h *InventoryHandler) Status(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Building inventory report")
	defer prometheus.TrackDBOperation("inventory_status")(time.Now())

	report, err := h.products.InventoryReport(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to build inventory report")
	}

	for i := range report.Products {
		p := &report.Products[i].Product
		prometheus.UpdateProductInventory(p.SKU, p.Name, categoryLabel(p), float64(p.StockQuantity))
	}

	log.Info("Inventory report built",
		zap.Int("total_products", report.Summary.TotalProducts),
		zap.Int("low_stock", report.Summary.LowStock),
		zap.Int("out_of_stock", report.Summary.OutOfStock))
	return c.JSON(http.StatusOK, report)
}
