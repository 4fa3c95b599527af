package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/config"
	"github.com/earnwise/earnwise-go/internal/models"
	"github.com/earnwise/earnwise-go/internal/utils"
)

// HTTPSource fetches the optimization dataset from the live optimization
// endpoint. It is interchangeable with FixtureSource behind DataSource.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
	logger     *logrus.Logger
}

// NewHTTPSource creates a live data source from configuration.
func NewHTTPSource(cfg *config.OptimizationConfig, logger *logrus.Logger) *HTTPSource {
	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.ServiceURL, "/"),
		logger:     logger,
	}
}

// Fetch retrieves and validates the current dataset. Transport failures and
// non-2xx responses surface as FetchError; structurally invalid payloads as
// DataIntegrityError.
func (s *HTTPSource) Fetch(ctx context.Context) (*models.OptimizationDataset, error) {
	url := s.baseURL + "/v1/optimization/current"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.NewFetchError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "earnwise-go/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewFetchError("optimization request failed", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.WithError(err).Warn("Error closing optimization response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewFetchError("failed to read optimization response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, utils.NewFetchError(
			fmt.Sprintf("optimization service error (%d)", resp.StatusCode), nil)
	}

	dataset, err := DecodeDataset(body)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"surge_zones":     len(dataset.SurgeZones),
		"recommendations": len(dataset.Recommendations),
	}).Debug("Fetched optimization dataset")

	return dataset, nil
}
