package handler

import (
	"net/http"

	"catalog-service/internal/service"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandler exposes the reconciliation report and the mirror restore.
type AdminHandler struct {
	reconcile *service.ReconcileService
}

func NewAdminHandler(reconcile *service.ReconcileService) *AdminHandler {
	return &AdminHandler{reconcile: reconcile}
}

// Reconcile handles comparing the database against the filesystem mirror
func (h *AdminHandler) Reconcile(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Running reconciliation")

	report, err := h.reconcile.Report(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to reconcile stores")
	}

	// Zero counts are included so gauges for resolved issues reset.
	counts := map[string]int{
		service.IssueFolderMissing:   0,
		service.IssueMetadataMissing: 0,
		service.IssueMetadataStale:   0,
		service.IssueOrphanFolder:    0,
	}
	for _, issue := range report.Issues {
		counts[issue.Issue]++
	}
	prometheus.RecordReconcileIssues(counts)

	log.Info("Reconciliation finished",
		zap.Int("products_checked", report.ProductsChecked),
		zap.Int("folders_checked", report.FoldersChecked),
		zap.Int("issues", len(report.Issues)))
	return c.JSON(http.StatusOK, report)
}

// Restore handles rebuilding database rows from orphaned metadata files
func (h *AdminHandler) Restore(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Restoring products from mirror")

	result, err := h.reconcile.RestoreFromMirror(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "Failed to restore from mirror")
	}

	log.Info("Restore finished",
		zap.Int("restored", result.Restored),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return c.JSON(http.StatusOK, result)
}
