package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/floorworks/commerce/internal/domain"
)

// triggerScrape implements POST /admin/vendor-sources/:id/scrape,
// spec.md §8 scenario 6's manual-trigger path.
func (s *Server) triggerScrape(c echo.Context) error {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("httpapi.triggerScrape", "invalid vendor source id")
	}

	ctx := c.Request().Context()
	source, err := s.store.GetVendorSource(ctx, sourceID)
	if err != nil {
		return err
	}

	result, err := s.orchestrator.Trigger(ctx, source)
	if err != nil {
		return err
	}
	if result.Skipped {
		return c.JSON(http.StatusConflict, map[string]any{
			"skipped":         true,
			"reason":          result.Reason,
			"existing_job_id": result.ExistingJobID,
		})
	}
	return c.JSON(http.StatusAccepted, result.Job)
}

// stopScrape implements POST /admin/scrape-jobs/:id/stop, the
// abort-signal cancellation path spec.md §4.9 names.
func (s *Server) stopScrape(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("httpapi.stopScrape", "invalid scrape job id")
	}

	p := staffPrincipal(c)
	if err := s.orchestrator.Stop(c.Request().Context(), jobID, p.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
