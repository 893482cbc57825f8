package tables

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/storepulse/storepulse/internal/core/errors"
	"github.com/storepulse/storepulse/internal/core/storage"
)

// RegisterRoutes registers the ranked-table API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/stores/:store_id/analytics/table/products", s.ProductsHandler)
	r.GET("/v1/stores/:store_id/analytics/table/orders", s.OrdersHandler)
	r.GET("/v1/stores/:store_id/analytics/table/terms", s.TermsHandler)
}

// ProductsHandler handles GET /v1/stores/:store_id/analytics/table/products
func (s *Service) ProductsHandler(c *gin.Context) {
	s.serveTable(c, func(ctx context.Context, req PageRequest) (interface{}, error) {
		return s.Products(ctx, req)
	})
}

// OrdersHandler handles GET /v1/stores/:store_id/analytics/table/orders
func (s *Service) OrdersHandler(c *gin.Context) {
	s.serveTable(c, func(ctx context.Context, req PageRequest) (interface{}, error) {
		return s.Orders(ctx, req)
	})
}

// TermsHandler handles GET /v1/stores/:store_id/analytics/table/terms
func (s *Service) TermsHandler(c *gin.Context) {
	s.serveTable(c, func(ctx context.Context, req PageRequest) (interface{}, error) {
		return s.Terms(ctx, req)
	})
}

// serveTable binds the shared ranked-table parameters, runs the query and
// maps service errors onto the HTTP error payload.
func (s *Service) serveTable(c *gin.Context, query func(context.Context, PageRequest) (interface{}, error)) {
	var uri struct {
		StoreID int64 `uri:"store_id" binding:"required"`
	}
	var params struct {
		StartDate time.Time `form:"start_date" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		EndDate   time.Time `form:"end_date" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		SortKey   string    `form:"sort_key" binding:"required"`
		SortDir   string    `form:"sort_dir"`
		Page      int       `form:"page"`
		Limit     int       `form:"limit"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidParams,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}

	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidParams,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	if params.SortDir == "" {
		params.SortDir = "desc"
	}
	if params.Page == 0 {
		params.Page = 1
	}
	if params.Limit == 0 {
		params.Limit = defaultLimit
	}

	req := PageRequest{
		StoreID: uri.StoreID,
		Start:   params.StartDate,
		End:     params.EndDate,
		SortKey: params.SortKey,
		SortDir: params.SortDir,
		Page:    params.Page,
		Limit:   params.Limit,
	}

	page, err := query(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuery):
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidParams,
				Message:   "Invalid table query",
				Details:   err.Error(),
			})
		case errors.Is(err, storage.ErrStoreNotFound):
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpStoreNotFound,
				Message:   "Store not found",
			})
		default:
			slog.Error("[Tables] Failed to query ranked table", "store_id", uri.StoreID, "error", err)
			c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Failed to query table",
				Details:   err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, page)
}
