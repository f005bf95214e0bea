package handler

import (
	"net/http"
	"strconv"
	"time"

	"catalog-service/internal/service"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TagRequest defines the structure for tag creation requests
type TagRequest struct {
	Name string `json:"name" validate:"required"`
}

// TagHandler exposes tag listing, creation, deletion and the two
// lookup helpers the editing clients use while typing.
type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List handles retrieving all tags with their usage counts
func (h *TagHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Listing tags")
	defer prometheus.TrackDBOperation("list_tags")(time.Now())

	tags, err := h.tags.List(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve tags")
	}

	log.Info("Tags retrieved successfully", zap.Int("count", len(tags)))
	return c.JSON(http.StatusOK, tags)
}

// Create handles normalizing a raw name into a tag, reusing an existing one
func (h *TagHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Creating new tag")
	defer prometheus.TrackDBOperation("create_tag")(time.Now())

	var req TagRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	tag, err := h.tags.Create(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, log, err, "Failed to create tag")
	}

	prometheus.RecordTagOperation("create")
	log.Info("Tag created successfully",
		zap.Uint("tag_id", tag.ID),
		zap.String("name", tag.Name))
	return c.JSON(http.StatusCreated, tag)
}

// Delete handles removing an unused tag by name
func (h *TagHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	name := c.Param("name")
	log.Info("Deleting tag", zap.String("name", name))
	defer prometheus.TrackDBOperation("delete_tag")(time.Now())

	if err := h.tags.Delete(c.Request().Context(), name); err != nil {
		return respondError(c, log, err, "Failed to delete tag")
	}

	prometheus.RecordTagOperation("delete")
	log.Info("Tag deleted successfully", zap.String("name", name))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tag deleted successfully"})
}

// Suggest handles substring completion ordered by usage
func (h *TagHandler) Suggest(c echo.Context) error {
	log := logger.FromEcho(c)
	query := c.QueryParam("q")
	limit := intParam(c, log, "limit")
	defer prometheus.TrackDBOperation("suggest_tags")(time.Now())

	suggestions, err := h.tags.Suggest(c.Request().Context(), query, limit)
	if err != nil {
		return respondError(c, log, err, "Failed to suggest tags")
	}

	log.Info("Tag suggestions computed",
		zap.String("query", query),
		zap.Int("count", len(suggestions)))
	return c.JSON(http.StatusOK, suggestions)
}

// Similar handles fuzzy lookups used to warn about near-duplicate tags
func (h *TagHandler) Similar(c echo.Context) error {
	log := logger.FromEcho(c)
	name := c.QueryParam("name")
	limit := intParam(c, log, "limit")

	threshold := 0.0
	if raw := c.QueryParam("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Warn("Invalid threshold parameter", zap.String("value", raw))
		} else {
			threshold = v
		}
	}

	defer prometheus.TrackDBOperation("similar_tags")(time.Now())

	matches, err := h.tags.FindSimilar(c.Request().Context(), name, threshold, limit)
	if err != nil {
		return respondError(c, log, err, "Failed to find similar tags")
	}

	log.Info("Similar tags computed",
		zap.String("name", name),
		zap.Int("count", len(matches)))
	return c.JSON(http.StatusOK, matches)
}

// Stats handles the tag name to usage count map
func (h *TagHandler) Stats(c echo.Context) error {
	log := logger.FromEcho(c)
	defer prometheus.TrackDBOperation("tag_stats")(time.Now())

	stats, err := h.tags.UsageStats(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to compute tag stats")
	}

	log.Info("Tag stats computed", zap.Int("count", len(stats)))
	return c.JSON(http.StatusOK, stats)
}

// intParam reads an optional numeric query parameter, zero when absent or
// malformed so the service falls back to its default.
func intParam(c echo.Context, log *zap.Logger, name string) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("Invalid numeric parameter",
			zap.String("name", name),
			zap.String("value", raw))
		return 0
	}
	return v
}
