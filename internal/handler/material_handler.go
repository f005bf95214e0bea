package handler

import (
	"net/http"
	"time"

	"catalog-service/internal/repository"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MaterialRequest defines the structure for material creation requests
type MaterialRequest struct {
	Name string `json:"name" validate:"required"`
}

// MaterialHandler exposes the print material list over the repository.
type MaterialHandler struct {
	materials *repository.MaterialRepository
}

func NewMaterialHandler(materials *repository.MaterialRepository) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// List handles retrieving all materials
func (h *MaterialHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Listing materials")
	defer prometheus.TrackDBOperation("list_materials")(time.Now())

	materials, err := h.materials.FindAll(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve materials")
	}

	log.Info("Materials retrieved successfully", zap.Int("count", len(materials)))
	return c.JSON(http.StatusOK, materials)
}

// Create handles creating a material, reusing an existing one by name
func (h *MaterialHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Creating new material")
	defer prometheus.TrackDBOperation("create_material")(time.Now())

	var req MaterialRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	material, err := h.materials.FindOrCreateByName(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, log, err, "Failed to create material")
	}

	prometheus.RecordMaterialOperation("create")
	log.Info("Material created successfully",
		zap.Uint("material_id", material.ID),
		zap.String("name", material.Name))
	return c.JSON(http.StatusCreated, material)
}

// Delete handles removing a material that no product uses
func (h *MaterialHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, log, err, "Invalid material id")
	}
	log.Info("Deleting material", zap.Uint("material_id", id))
	defer prometheus.TrackDBOperation("delete_material")(time.Now())

	if err := h.materials.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, log, err, "Failed to delete material")
	}

	prometheus.RecordMaterialOperation("delete")
	log.Info("Material deleted successfully", zap.Uint("material_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Material deleted successfully"})
}
