package handler

import (
	"net/http"
	"strconv"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductHandler exposes product CRUD on top of the lifecycle service,
// which keeps the database row and the product folder in step.
type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func categoryLabel(p *model.Product) string {
	if p.Category != nil {
		return p.Category.Name
	}
	return ""
}

// List handles retrieving all products with category, tags and materials preloaded
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Listing products")
	defer prometheus.TrackDBOperation("list_products")(time.Now())

	products, err := h.products.List(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve products")
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// Search handles case-insensitive search over name, description and SKU
func (h *ProductHandler) Search(c echo.Context) error {
	log := logger.FromEcho(c)
	query := c.QueryParam("q")
	log.Info("Searching products", zap.String("query", query))
	defer prometheus.TrackDBOperation("search_products")(time.Now())

	products, err := h.products.Search(c.Request().Context(), query)
	if err != nil {
		return respondError(c, log, err, "Failed to search products")
	}

	log.Info("Product search finished",
		zap.String("query", query),
		zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// Get handles retrieving a single product by ID
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, log, err, "Invalid product id")
	}
	log.Info("Getting product", zap.Uint("product_id", id))
	defer prometheus.TrackDBOperation("get_product")(time.Now())

	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve product")
	}

	prometheus.RecordProductView(product.SKU, categoryLabel(product))
	log.Info("Product retrieved successfully",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// Create handles creating a new product with its SKU and folder
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Creating new product")

	var in service.CreateProductInput
	if err := c.Bind(&in); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	product, err := h.products.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, log, err, "Failed to create product")
	}

	prometheus.RecordProductOperation("create")
	prometheus.UpdateProductInventory(product.SKU, product.Name, categoryLabel(product), float64(product.StockQuantity))
	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.String("name", product.Name),
		zap.String("folder", product.FolderPath))
	return c.JSON(http.StatusCreated, echo.Map{
		"product_id": product.ID,
		"sku":        product.SKU,
		"message":    "Product created successfully",
	})
}

// Update handles partial product updates, including folder renames
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, log, err, "Invalid product id")
	}
	log.Info("Updating product", zap.Uint("product_id", id))

	var in service.UpdateProductInput
	if err := c.Bind(&in); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	product, err := h.products.Update(c.Request().Context(), id, in)
	if err != nil {
		return respondError(c, log, err, "Failed to update product")
	}

	prometheus.RecordProductOperation("update")
	prometheus.UpdateProductInventory(product.SKU, product.Name, categoryLabel(product), float64(product.StockQuantity))
	log.Info("Product updated successfully",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, echo.Map{
		"product_id": product.ID,
		"sku":        product.SKU,
		"message":    "Product updated successfully",
	})
}

// Delete handles removing a product; delete_files=true removes its folder too
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, log, err, "Invalid product id")
	}

	deleteFiles := false
	if raw := c.QueryParam("delete_files"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warn("Invalid delete_files parameter", zap.String("value", raw))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "delete_files must be a boolean"})
		}
		deleteFiles = v
	}
	log.Info("Deleting product",
		zap.Uint("product_id", id),
		zap.Bool("delete_files", deleteFiles))

	if err := h.products.Delete(c.Request().Context(), id, deleteFiles); err != nil {
		return respondError(c, log, err, "Failed to delete product")
	}

	prometheus.RecordProductOperation("delete")
	log.Info("Product deleted successfully", zap.Uint("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
