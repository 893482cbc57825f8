package charts

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/storepulse/storepulse/internal/core/errors"
	"github.com/storepulse/storepulse/internal/core/storage"
)

// RegisterRoutes registers the chart API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/stores/:store_id/analytics/charts", s.ChartHandler)
}

// ChartHandler handles GET /v1/stores/:store_id/analytics/charts
// Query parameters: start_date, end_date (RFC 3339).
func (s *Service) ChartHandler(c *gin.Context) {
	var uri struct {
		StoreID int64 `uri:"store_id" binding:"required"`
	}
	var query struct {
		StartDate time.Time `form:"start_date" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		EndDate   time.Time `form:"end_date" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidParams,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}

	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidParams,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	if query.EndDate.Before(query.StartDate) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidParams,
			Message:   "end_date must not precede start_date",
		})
		return
	}

	buckets, err := s.BuildChart(c.Request.Context(), uri.StoreID, query.StartDate, query.EndDate)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpStoreNotFound,
				Message:   "Store not found",
			})
			return
		}

		slog.Error("[Charts] Failed to build chart", "store_id", uri.StoreID, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to build chart",
			Details:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": buckets})
}
