// Package datasource provides the optimization data sources consumed by the
// recommendation pipeline. Sources are swappable behind the DataSource
// interface: the pipeline does not care whether a dataset came from the
// bundled fixture or a live endpoint.
package datasource

import (
	"context"
	"encoding/json"

	"github.com/earnwise/earnwise-go/internal/models"
	"github.com/earnwise/earnwise-go/internal/utils"
	"github.com/earnwise/earnwise-go/internal/validation"
)

// DataSource yields the current optimization dataset. Implementations fail
// with *utils.FetchError on transport problems and *utils.DataIntegrityError
// when the payload does not validate; never a partially-populated dataset.
type DataSource interface {
	Fetch(ctx context.Context) (*models.OptimizationDataset, error)
}

// DecodeDataset validates raw payload bytes against the dataset schema and
// decodes them into typed models. Validation happens on the decoded JSON
// value before the typed unmarshal so diagnostics carry exact field paths.
func DecodeDataset(raw []byte) (*models.OptimizationDataset, error) {
	var candidate interface{}
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, utils.NewDataIntegrityError("", "payload is not valid JSON: %v", err)
	}
	if err := validation.Dataset(candidate); err != nil {
		return nil, err
	}

	var dataset models.OptimizationDataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		return nil, utils.NewDataIntegrityError("", "payload does not decode: %v", err)
	}
	return &dataset, nil
}
