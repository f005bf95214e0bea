package handler

import (
	"net/http"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CategoryRequest defines the structure for category creation/update requests
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	SKUInitials string `json:"sku_initials" validate:"required"`
	Description string `json:"description"`
}

// CategoryHandler exposes category CRUD straight over the repository.
type CategoryHandler struct {
	categories *repository.CategoryRepository
}

func NewCategoryHandler(categories *repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List handles retrieving all categories
func (h *CategoryHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Listing categories")
	defer prometheus.TrackDBOperation("list_categories")(time.Now())

	categories, err := h.categories.FindAll(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve categories")
	}

	log.Info("Categories retrieved successfully", zap.Int("count", len(categories)))
	return c.JSON(http.StatusOK, categories)
}

// Create handles creating a new category
func (h *CategoryHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Creating new category")
	defer prometheus.TrackDBOperation("create_category")(time.Now())

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	category := &model.Category{
		Name:        req.Name,
		SKUInitials: req.SKUInitials,
		Description: req.Description,
	}
	if err := h.categories.Create(c.Request().Context(), category); err != nil {
		return respondError(c, log, err, "Failed to create category")
	}

	prometheus.RecordCategoryOperation("create")
	log.Info("Category created successfully",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name),
		zap.String("sku_initials", category.SKUInitials))
	return c.JSON(http.StatusCreated, category)
}

// Update handles overwriting an existing category
func (h *CategoryHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, log, err, "Invalid category id")
	}
	log.Info("Updating category", zap.Uint("category_id", id))
	defer prometheus.TrackDBOperation("update_category")(time.Now())

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	category, err := h.categories.FindByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve category")
	}

	category.Name = req.Name
	category.SKUInitials = req.SKUInitials
	category.Description = req.Description
	if err := h.categories.Update(c.Request().Context(), category); err != nil {
		return respondError(c, log, err, "Failed to update category")
	}

	prometheus.RecordCategoryOperation("update")
	log.Info("Category updated successfully",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name))
	return c.JSON(http.StatusOK, category)
}

// Delete handles removing a category that no product references
func (h *CategoryHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, log, err, "Invalid category id")
	}
	log.Info("Deleting category", zap.Uint("category_id", id))
	defer prometheus.TrackDBOperation("delete_category")(time.Now())

	if err := h.categories.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, log, err, "Failed to delete category")
	}

	prometheus.RecordCategoryOperation("delete")
	log.Info("Category deleted successfully", zap.Uint("category_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Category deleted successfully"})
}
