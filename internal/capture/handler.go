package capture

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	httperr "github.com/storepulse/storepulse/internal/core/errors"
	"github.com/storepulse/storepulse/internal/staging"
)

// RegisterRoutes registers the event capture routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/analytics/:store_id/action", s.ActionHandler)
	r.POST("/v1/analytics/:store_id/purchase", s.PurchaseHandler)
	r.POST("/v1/analytics/:store_id/term", s.TermHandler)
}

type storeURI struct {
	StoreID int64 `uri:"store_id" binding:"required"`
}

// ActionHandler handles POST /v1/analytics/:store_id/action
func (s *Service) ActionHandler(c *gin.Context) {
	var uri storeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeBadRequest(c, "Invalid path parameters", err.Error())
		return
	}

	var body struct {
		ActionID   int   `json:"actionId" binding:"required"`
		ProductID  int64 `json:"productId" binding:"required"`
		PlatformID int   `json:"platformId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid JSON body", err.Error())
		return
	}

	if !s.catalog.ValidAction(body.ActionID) {
		writeBadRequest(c, "Unknown actionId", body.ActionID)
		return
	}
	if !s.catalog.ValidPlatform(body.PlatformID) {
		writeBadRequest(c, "Unknown platformId", body.PlatformID)
		return
	}

	err := s.CaptureAction(c.Request.Context(), staging.ActionRecord{
		StoreID:    uri.StoreID,
		ActionID:   body.ActionID,
		ProductID:  body.ProductID,
		PlatformID: body.PlatformID,
	})
	if err != nil {
		writeStagingError(c, "action", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// PurchaseHandler handles POST /v1/analytics/:store_id/purchase
func (s *Service) PurchaseHandler(c *gin.Context) {
	var uri storeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeBadRequest(c, "Invalid path parameters", err.Error())
		return
	}

	var body struct {
		Products []struct {
			ID        int64 `json:"id" binding:"required"`
			VariantID int64 `json:"variantId" binding:"required"`
			Count     int64 `json:"count" binding:"required"`
		} `json:"products" binding:"required,min=1,dive"`
		Total      decimal.Decimal `json:"total"`
		PlatformID int             `json:"platformId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid JSON body", err.Error())
		return
	}

	if !s.catalog.ValidPlatform(body.PlatformID) {
		writeBadRequest(c, "Unknown platformId", body.PlatformID)
		return
	}
	if !body.Total.IsPositive() {
		writeBadRequest(c, "total must be positive", body.Total.String())
		return
	}

	lines := make([]staging.PurchaseLine, 0, len(body.Products))
	for _, p := range body.Products {
		if p.Count < 1 {
			writeBadRequest(c, "product count must be >= 1", p.ID)
			return
		}
		lines = append(lines, staging.PurchaseLine{ID: p.ID, VariantID: p.VariantID, Count: p.Count})
	}

	err := s.CapturePurchase(c.Request.Context(), staging.PurchaseRecord{
		StoreID:    uri.StoreID,
		Products:   lines,
		PlatformID: body.PlatformID,
		Total:      body.Total,
	})
	if err != nil {
		writeStagingError(c, "purchase", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// TermHandler handles POST /v1/analytics/:store_id/term
func (s *Service) TermHandler(c *gin.Context) {
	var uri storeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeBadRequest(c, "Invalid path parameters", err.Error())
		return
	}

	var body struct {
		Query      string `json:"query"`
		PlatformID int    `json:"platformId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid JSON body", err.Error())
		return
	}

	if !s.catalog.ValidPlatform(body.PlatformID) {
		writeBadRequest(c, "Unknown platformId", body.PlatformID)
		return
	}

	err := s.CaptureTerm(c.Request.Context(), staging.TermRecord{
		StoreID:    uri.StoreID,
		Query:      body.Query,
		PlatformID: body.PlatformID,
	})
	if err != nil {
		writeStagingError(c, "term", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func writeBadRequest(c *gin.Context, message string, details interface{}) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidParams,
		Message:   message,
		Details:   details,
	})
}

func writeStagingError(c *gin.Context, category string, err error) {
	slog.Error("[Capture] Failed to stage event", "category", category, "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpStagingError,
		Message:   "Failed to buffer event",
	})
}
