// Package validation checks the structural shape of optimization payloads
// before they are decoded into typed models. Validation is purely structural
// (JSON type plus required-field presence), never mutates its input and never
// panics on malformed candidates.
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/earnwise/earnwise-go/internal/models"
	"github.com/earnwise/earnwise-go/internal/utils"
)

// Dataset validates a decoded optimization dataset candidate. A nil return
// means the candidate is structurally valid; otherwise the returned error is
// a *utils.DataIntegrityError naming the first offending field. One invalid
// element invalidates the whole dataset; there is no partial acceptance.
func Dataset(candidate interface{}) error {
	obj, ok := candidate.(map[string]interface{})
	if !ok {
		return utils.NewDataIntegrityError("", "dataset is not an object, got %s", jsonTypeName(candidate))
	}

	zones, ok := obj["surgeZones"].([]interface{})
	if !ok {
		return utils.NewDataIntegrityError("surgeZones", "expected array, got %s", jsonTypeName(obj["surgeZones"]))
	}
	recs, ok := obj["recommendations"].([]interface{})
	if !ok {
		return utils.NewDataIntegrityError("recommendations", "expected array, got %s", jsonTypeName(obj["recommendations"]))
	}
	if _, ok := obj["lastUpdated"].(string); !ok {
		return utils.NewDataIntegrityError("lastUpdated", "expected string, got %s", jsonTypeName(obj["lastUpdated"]))
	}

	for i, zone := range zones {
		if err := SurgeZone(zone, fmt.Sprintf("surgeZones[%d]", i)); err != nil {
			return err
		}
	}
	for i, rec := range recs {
		if err := Recommendation(rec, fmt.Sprintf("recommendations[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// IsValidDataset is the boolean convenience form of Dataset.
func IsValidDataset(candidate interface{}) bool {
	return Dataset(candidate) == nil
}

// SurgeZone validates a single surge zone candidate at the given field path.
func SurgeZone(candidate interface{}, path string) error {
	obj, ok := candidate.(map[string]interface{})
	if !ok {
		return utils.NewDataIntegrityError(path, "expected object, got %s", jsonTypeName(candidate))
	}

	if err := requireString(obj, path, "id"); err != nil {
		return err
	}

	loc, ok := obj["location"].(map[string]interface{})
	if !ok {
		return utils.NewDataIntegrityError(path+".location", "expected object, got %s", jsonTypeName(obj["location"]))
	}
	if err := requireNumber(loc, path+".location", "lat"); err != nil {
		return err
	}
	if err := requireNumber(loc, path+".location", "lng"); err != nil {
		return err
	}
	if err := requireString(loc, path+".location", "name"); err != nil {
		return err
	}

	if err := requireNumber(obj, path, "multiplier"); err != nil {
		return err
	}
	if err := requireString(obj, path, "platform"); err != nil {
		return err
	}
	if err := requireString(obj, path, "timestamp"); err != nil {
		return err
	}
	return requireNumber(obj, path, "duration")
}

// Recommendation validates a single recommendation candidate at the given
// field path. The type must be one of the closed enumeration values and the
// confidence score must lie within [0,1].
func Recommendation(candidate interface{}, path string) error {
	obj, ok := candidate.(map[string]interface{})
	if !ok {
		return utils.NewDataIntegrityError(path, "expected object, got %s", jsonTypeName(candidate))
	}

	if err := requireString(obj, path, "id"); err != nil {
		return err
	}

	recType, ok := obj["type"].(string)
	if !ok {
		return utils.NewDataIntegrityError(path+".type", "expected string, got %s", jsonTypeName(obj["type"]))
	}
	if !models.RecommendationType(recType).IsValid() {
		return utils.NewDataIntegrityError(path+".type", "unknown recommendation type %q", recType)
	}

	for _, field := range []string{"platform", "title", "description"} {
		if err := requireString(obj, path, field); err != nil {
			return err
		}
	}
	if err := requireNumber(obj, path, "estimatedEarnings"); err != nil {
		return err
	}

	confidence, err := numberValue(obj, path, "confidence")
	if err != nil {
		return err
	}
	if confidence < 0 || confidence > 1 {
		return utils.NewDataIntegrityError(path+".confidence", "value %v outside [0,1]", confidence)
	}

	window, ok := obj["timeWindow"].(map[string]interface{})
	if !ok {
		return utils.NewDataIntegrityError(path+".timeWindow", "expected object, got %s", jsonTypeName(obj["timeWindow"]))
	}
	if err := requireString(window, path+".timeWindow", "start"); err != nil {
		return err
	}
	if err := requireString(window, path+".timeWindow", "end"); err != nil {
		return err
	}

	// location is optional but must be a string when present.
	if raw, present := obj["location"]; present {
		if _, ok := raw.(string); !ok {
			return utils.NewDataIntegrityError(path+".location", "expected string, got %s", jsonTypeName(raw))
		}
	}
	return nil
}

func requireString(obj map[string]interface{}, path, field string) error {
	if _, ok := obj[field].(string); !ok {
		return utils.NewDataIntegrityError(path+"."+field, "expected string, got %s", jsonTypeName(obj[field]))
	}
	return nil
}

func requireNumber(obj map[string]interface{}, path, field string) error {
	_, err := numberValue(obj, path, field)
	return err
}

func numberValue(obj map[string]interface{}, path, field string) (float64, error) {
	switch v := obj[field].(type) {
	case float64:
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, utils.NewDataIntegrityError(path+"."+field, "unparseable number %q", v.String())
		}
		return f, nil
	default:
		return 0, utils.NewDataIntegrityError(path+"."+field, "expected number, got %s", jsonTypeName(obj[field]))
	}
}

// jsonTypeName names a decoded JSON value's type the way clients see it.
func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null or missing"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
