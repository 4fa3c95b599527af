package models

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationType_IsValid(t *testing.T) {
	assert.True(t, RecommendationTypeSurge.IsValid())
	assert.True(t, RecommendationTypeDemand.IsValid())
	assert.True(t, RecommendationTypeBonus.IsValid())
	assert.False(t, RecommendationType("mystery").IsValid())
	assert.False(t, RecommendationType("").IsValid())
	assert.False(t, RecommendationType("Surge").IsValid())
}

func TestRecommendation_JSONShape(t *testing.T) {
	// Field names must stay camelCase to match the fixture payload consumed
	// by the mobile clients.
	rec := Recommendation{
		ID:                "rec-1",
		Type:              RecommendationTypeSurge,
		Platform:          "uber",
		Title:             "Downtown surge",
		Description:       "2.1x multiplier active",
		EstimatedEarnings: decimal.NewFromFloat(45.50),
		Confidence:        decimal.NewFromFloat(0.87),
		TimeWindow: TimeWindow{
			Start: "2025-03-01T17:00:00Z",
			End:   "2025-03-01T19:00:00Z",
		},
		Location: "Downtown",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"id", "type", "platform", "title", "description", "estimatedEarnings", "confidence", "timeWindow", "location"} {
		assert.Contains(t, raw, key)
	}
	window, ok := raw["timeWindow"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, window, "start")
	assert.Contains(t, window, "end")
}

func TestDataset_JSONShape(t *testing.T) {
	payload := `{
		"surgeZones": [{
			"id": "zone-1",
			"location": {"lat": 40.7128, "lng": -74.006, "name": "Manhattan"},
			"multiplier": 2.1,
			"platform": "uber",
			"timestamp": "2025-03-01T17:00:00Z",
			"duration": 3600
		}],
		"recommendations": [],
		"lastUpdated": "2025-03-01T17:05:00Z"
	}`

	var ds OptimizationDataset
	require.NoError(t, json.Unmarshal([]byte(payload), &ds))

	require.Len(t, ds.SurgeZones, 1)
	zone := ds.SurgeZones[0]
	assert.Equal(t, "zone-1", zone.ID)
	assert.Equal(t, "Manhattan", zone.Location.Name)
	assert.True(t, zone.Multiplier.Equal(decimal.NewFromFloat(2.1)))
	assert.Equal(t, int64(3600), zone.Duration)
	assert.Equal(t, "2025-03-01T17:05:00Z", ds.LastUpdated)
	assert.NotNil(t, ds.Recommendations)
	assert.Empty(t, ds.Recommendations)
}

func TestRecommendation_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	rec := Recommendation{TimeWindow: TimeWindow{End: "2025-03-01T19:00:00Z"}}
	assert.True(t, rec.IsExpired(now))

	rec.TimeWindow.End = "2025-03-01T21:00:00Z"
	assert.False(t, rec.IsExpired(now))

	// Boundary: expiry is strictly after the window end.
	rec.TimeWindow.End = "2025-03-01T20:00:00Z"
	assert.False(t, rec.IsExpired(now))

	// Unparseable window ends never expire.
	rec.TimeWindow.End = "soon"
	assert.False(t, rec.IsExpired(now))
}

func TestPlatformDisplayName(t *testing.T) {
	assert.Equal(t, "Uber", PlatformDisplayName("uber"))
	assert.Equal(t, "Uber", PlatformDisplayName("UBER"))
	assert.Equal(t, "Uber Eats", PlatformDisplayName("uber eats"))
	assert.Equal(t, "Doordash", PlatformDisplayName("doordash"))
}

func TestPlatformDisplayName_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "Uber Eats", PlatformDisplayName("uber eats"))
			}
		}()
	}
	wg.Wait()
}

func TestAuthEvent_JSONRoundTrip(t *testing.T) {
	evt := AuthEvent{
		ID:   "evt-1",
		Type: AuthEventSignedIn,
		User: &AuthUser{ID: "user-1", Email: "driver@example.com"},
		Session: &AuthSession{
			Tokens: &AuthTokens{
				AccessToken:  "access",
				RefreshToken: "refresh",
				ExpiresAt:    time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
			},
		},
		OccurredAt: time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded AuthEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, AuthEventSignedIn, decoded.Type)
	require.NotNil(t, decoded.User)
	assert.Equal(t, "driver@example.com", decoded.User.Email)
	require.NotNil(t, decoded.Session)
	require.NotNil(t, decoded.Session.Tokens)
	assert.Equal(t, "refresh", decoded.Session.Tokens.RefreshToken)
}
