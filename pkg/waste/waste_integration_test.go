package waste

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecocycle-backend/domain"
	"ecocycle-backend/internal/utils"
	"ecocycle-backend/pkg/classifier"
	"ecocycle-backend/pkg/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSubmitEndToEnd drives the whole ingestion flow against a real
// repository and a faked Gemini endpoint: classification, gate, jitter and
// persistence in one pass.
func TestSubmitEndToEnd(t *testing.T) {
	utils.SetConfig("GEMINI_API_KEY", "test-key")
	utils.SetConfig("GEMINI_MODEL", "gemini-2.5-flash")

	reply := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": "```json\n{\"is_organic_waste\": true, \"main_composition\": \"Sisa Makanan\", \"estimated_weight_kg\": 2.3, \"suitability_tags\": [\"Maggot BSF\", \"Pupuk Kompos\"], \"safety_warning\": \"Aman\", \"handling_tip\": \"Olah segera\"}\n```"},
					},
				},
			},
		},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(reply)
	}))
	defer server.Close()

	repo := NewWasteRepository(newTestDB(t))
	svc := &wasteService{
		wasteRepository: repo,
		classifier:      classifier.NewClassifierService(server.URL),
		jitterer:        location.NewJitterer(200, rand.New(rand.NewSource(11))),
	}

	rawLat, rawLon := -6.2000, 106.8160
	req := domain.SubmitWastePostRequest{
		ProviderType: domain.ProviderRestaurant,
		ContactInfo:  "6285388156854",
		Lat:          rawLat,
		Lon:          rawLon,
	}

	res, err := svc.submit(context.Background(), req, []byte{0xFF, 0xD8, 0xFF}, "image/jpeg")
	require.NoError(t, err)
	require.NotZero(t, res.ID)

	posts, err := repo.GetWastePosts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	stored := posts[0]
	assert.Equal(t, 2.3, stored.WeightEst)
	assert.Equal(t, "Maggot BSF, Pupuk Kompos", stored.SuitableFor)
	assert.False(t, stored.Lat == rawLat && stored.Lon == rawLon)
	assert.Less(t, location.HaversineMeters(rawLat, rawLon, stored.Lat, stored.Lon), 300.0)

	// The filtered view finds it by either of its tags but not by others.
	matched, err := repo.GetWastePosts(context.Background(), []string{domain.TagMaggotBSF})
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	unmatched, err := repo.GetWastePosts(context.Background(), []string{domain.TagBiogas})
	require.NoError(t, err)
	assert.Empty(t, unmatched)
}

// TestSubmitRejectedEndToEnd proves a non-organic verdict terminates the
// flow with no row written.
func TestSubmitRejectedEndToEnd(t *testing.T) {
	utils.SetConfig("GEMINI_API_KEY", "test-key")

	reply := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": "{\"is_organic_waste\": false, \"rejection_reason\": \"Bukan limbah organik.\"}"},
					},
				},
			},
		},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(reply)
	}))
	defer server.Close()

	repo := NewWasteRepository(newTestDB(t))
	svc := &wasteService{
		wasteRepository: repo,
		classifier:      classifier.NewClassifierService(server.URL),
		jitterer:        location.NewJitterer(200, rand.New(rand.NewSource(11))),
	}

	req := domain.SubmitWastePostRequest{
		ProviderType: domain.ProviderHousehold,
		Lat:          -6.2,
		Lon:          106.816,
	}

	_, err := svc.submit(context.Background(), req, []byte{0x00}, "image/jpeg")
	require.ErrorIs(t, err, domain.ErrNotOrganicWaste)

	posts, err := repo.GetWastePosts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, posts, "rejected submissions must never be persisted")
}
