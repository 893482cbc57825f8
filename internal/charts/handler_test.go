package charts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/storepulse/storepulse/internal/core/catalog"
	httperr "github.com/storepulse/storepulse/internal/core/errors"
)

func newChartRouter(reader Reader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewService(reader, catalog.Default()).RegisterRoutes(r)
	return r
}

func TestChartHandler_Success(t *testing.T) {
	r := newChartRouter(&readerFake{exists: true})

	req := httptest.NewRequest(http.MethodGet,
		"/v1/stores/7/analytics/charts?start_date=2024-03-01T00:00:00Z&end_date=2024-03-01T12:00:00Z", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data []ChartBucket `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data, 7)
}

func TestChartHandler_MissingDates(t *testing.T) {
	r := newChartRouter(&readerFake{exists: true})

	req := httptest.NewRequest(http.MethodGet, "/v1/stores/7/analytics/charts", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, httperr.HttpInvalidParams, body.ErrorType)
}

func TestChartHandler_InvertedRange(t *testing.T) {
	r := newChartRouter(&readerFake{exists: true})

	req := httptest.NewRequest(http.MethodGet,
		"/v1/stores/7/analytics/charts?start_date=2024-03-02T00:00:00Z&end_date=2024-03-01T00:00:00Z", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestChartHandler_UnknownStore(t *testing.T) {
	r := newChartRouter(&readerFake{exists: false})

	req := httptest.NewRequest(http.MethodGet,
		"/v1/stores/404/analytics/charts?start_date=2024-03-01T00:00:00Z&end_date=2024-03-01T12:00:00Z", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)

	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, httperr.HttpStoreNotFound, body.ErrorType)
}
