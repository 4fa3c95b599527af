package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earnwise/earnwise-go/internal/config"
	"github.com/earnwise/earnwise-go/internal/datasource"
	"github.com/earnwise/earnwise-go/internal/models"
	"github.com/earnwise/earnwise-go/internal/services"
	"github.com/earnwise/earnwise-go/internal/utils"
)

type erroringSource struct {
	err error
}

func (s *erroringSource) Fetch(ctx context.Context) (*models.OptimizationDataset, error) {
	return nil, s.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func optimizationRouter(t *testing.T, source datasource.DataSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.OptimizationConfig{MaxRecommendations: 20}
	svc := services.NewOptimizationService(source, nil, cfg, testLogger())
	h := NewOptimizationHandler(svc, testLogger())

	router := gin.New()
	router.GET("/optimization/recommendations", h.GetRecommendations)
	router.GET("/optimization/surge-zones", h.GetSurgeZones)
	router.GET("/optimization/current", h.GetSurgeData)
	return router
}

func fixtureRouter(t *testing.T) *gin.Engine {
	return optimizationRouter(t, datasource.NewFixtureSource(0, testLogger()))
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetRecommendations(t *testing.T) {
	w := doGet(fixtureRouter(t), "/optimization/recommendations")
	require.Equal(t, http.StatusOK, w.Code)

	var resp recommendationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Recommendations)
	assert.Equal(t, len(resp.Recommendations), resp.Count)

	// Ranked by confidence descending.
	for i := 1; i < len(resp.Recommendations); i++ {
		prev := resp.Recommendations[i-1].Confidence
		cur := resp.Recommendations[i].Confidence
		assert.True(t, prev.GreaterThanOrEqual(cur), "index %d out of order", i)
	}
}

func TestGetRecommendationsFiltered(t *testing.T) {
	router := fixtureRouter(t)

	w := doGet(router, "/optimization/recommendations?type=surge&platform=uber&limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp recommendationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.LessOrEqual(t, resp.Count, 1)
	for _, rec := range resp.Recommendations {
		assert.Equal(t, models.RecommendationTypeSurge, rec.Type)
		assert.Equal(t, "uber", rec.Platform)
	}
}

func TestGetRecommendationsHighConfidence(t *testing.T) {
	router := fixtureRouter(t)

	w := doGet(router, "/optimization/recommendations?high_confidence=true")
	require.Equal(t, http.StatusOK, w.Code)

	var resp recommendationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Recommendations)

	threshold := decimal.NewFromFloat(0.8)
	for _, item := range resp.Recommendations {
		assert.True(t, item.Confidence.GreaterThan(threshold),
			"%s confidence %s not above threshold", item.ID, item.Confidence)
	}
}

func TestResponsesCarryPlatformDisplay(t *testing.T) {
	router := fixtureRouter(t)

	w := doGet(router, "/optimization/recommendations")
	require.Equal(t, http.StatusOK, w.Code)

	var recResp recommendationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recResp))
	require.NotEmpty(t, recResp.Recommendations)
	for _, item := range recResp.Recommendations {
		assert.Equal(t, models.PlatformDisplayName(item.Platform), item.PlatformDisplay)
		assert.NotEmpty(t, item.PlatformDisplay)
	}
	assert.Contains(t, w.Body.String(), `"platformDisplay"`)

	w = doGet(router, "/optimization/surge-zones")
	require.Equal(t, http.StatusOK, w.Code)

	var zoneResp surgeZonesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zoneResp))
	require.NotEmpty(t, zoneResp.SurgeZones)
	for _, item := range zoneResp.SurgeZones {
		assert.Equal(t, models.PlatformDisplayName(item.Platform), item.PlatformDisplay)
	}
}

func TestGetRecommendationsBadParams(t *testing.T) {
	router := fixtureRouter(t)

	cases := []string{
		"/optimization/recommendations?type=bogus",
		"/optimization/recommendations?min_confidence=1.5",
		"/optimization/recommendations?min_confidence=abc",
		"/optimization/recommendations?high_confidence=maybe",
		"/optimization/recommendations?limit=-1",
		"/optimization/recommendations?limit=abc",
	}
	for _, path := range cases {
		w := doGet(router, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestGetRecommendationsErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"integrity failure", utils.NewDataIntegrityError("surgeZones[0].multiplier", "expected number"), http.StatusBadGateway},
		{"fetch failure", utils.NewFetchError("upstream unreachable", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{"unexpected failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := optimizationRouter(t, &erroringSource{err: tc.err})
			w := doGet(router, "/optimization/recommendations")
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestGetSurgeZones(t *testing.T) {
	w := doGet(fixtureRouter(t), "/optimization/surge-zones?platform=uber")
	require.Equal(t, http.StatusOK, w.Code)

	var resp surgeZonesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SurgeZones)
	for _, zone := range resp.SurgeZones {
		assert.Equal(t, "uber", zone.Platform)
	}
}

func TestGetSurgeData(t *testing.T) {
	w := doGet(fixtureRouter(t), "/optimization/current")
	require.Equal(t, http.StatusOK, w.Code)

	var dataset models.OptimizationDataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dataset))
	assert.NotEmpty(t, dataset.SurgeZones)
	assert.NotEmpty(t, dataset.Recommendations)
	assert.NotEmpty(t, dataset.LastUpdated)
}
