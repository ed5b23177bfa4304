package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecocycle-backend/domain"
	"ecocycle-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiReply(text string) string {
	body := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": text}},
				},
			},
		},
	}
	raw, _ := json.Marshal(body)
	return string(raw)
}

func newFakeGemini(t *testing.T, status int, replyText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req map[string]interface{}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			assert.Contains(t, req, "contents")
		}

		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(geminiReply(replyText)))
		} else {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
		}
	}))
}

func TestClassifyOrganicWaste(t *testing.T) {
	utils.SetConfig("GEMINI_API_KEY", "test-key")
	utils.SetConfig("GEMINI_MODEL", "gemini-2.5-flash")

	reply := "```json\n" + `{
		"is_organic_waste": true,
		"rejection_reason": null,
		"main_composition": "Nasi, Sayuran, Tulang Ayam",
		"estimated_weight_kg": 2.3,
		"suitability_tags": ["Maggot BSF", "Pupuk Kompos"],
		"safety_warning": "Aman",
		"handling_tip": "Pisahkan tulang besar"
	}` + "\n```"

	server := newFakeGemini(t, http.StatusOK, reply)
	defer server.Close()

	svc := NewClassifierService(server.URL)
	result, err := svc.Classify(context.Background(), []byte("fake-image"), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, result.IsOrganicWaste)
	assert.Equal(t, "Nasi, Sayuran, Tulang Ayam", result.MainComposition)
	assert.Equal(t, 2.3, result.EstimatedWeightKg)
	assert.Equal(t, []string{"Maggot BSF", "Pupuk Kompos"}, result.SuitabilityTags)
	assert.Equal(t, "Aman", result.SafetyWarning)
}

func TestClassifyRejection(t *testing.T) {
	utils.SetConfig("GEMINI_API_KEY", "test-key")

	reply := `{
		"is_organic_waste": false,
		"rejection_reason": "Gambar ini terlihat seperti laptop, bukan limbah organik.",
		"main_composition": "N/A",
		"estimated_weight_kg": 0,
		"suitability_tags": [],
		"safety_warning": "N/A",
		"handling_tip": "N/A"
	}`

	server := newFakeGemini(t, http.StatusOK, reply)
	defer server.Close()

	svc := NewClassifierService(server.URL)
	result, err := svc.Classify(context.Background(), []byte("fake-image"), "image/jpeg")
	require.NoError(t, err)

	assert.False(t, result.IsOrganicWaste)
	assert.Equal(t, "Gambar ini terlihat seperti laptop, bukan limbah organik.", result.RejectionReason)
	assert.Empty(t, result.SuitabilityTags)
}

func TestClassifyMalformedReply(t *testing.T) {
	utils.SetConfig("GEMINI_API_KEY", "test-key")

	server := newFakeGemini(t, http.StatusOK, "Sorry, I cannot analyze this image.")
	defer server.Close()

	svc := NewClassifierService(server.URL)
	_, err := svc.Classify(context.Background(), []byte("fake-image"), "image/jpeg")
	require.Error(t, err)

	var cErr *domain.ClassificationError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, domain.ParseFailure, cErr.Kind)
	assert.Equal(t, "Sorry, I cannot analyze this image.", cErr.RawText)
}

func TestClassifyServiceFailure(t *testing.T) {
	utils.SetConfig("GEMINI_API_KEY", "test-key")

	server := newFakeGemini(t, http.StatusTooManyRequests, "")
	defer server.Close()

	svc := NewClassifierService(server.URL)
	_, err := svc.Classify(context.Background(), []byte("fake-image"), "image/jpeg")
	require.Error(t, err)

	var cErr *domain.ClassificationError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, domain.ServiceFailure, cErr.Kind)
}

func TestClassifyMissingAPIKey(t *testing.T) {
	utils.SetConfig("GEMINI_API_KEY", "")

	svc := NewClassifierService("http://127.0.0.1:0")
	_, err := svc.Classify(context.Background(), []byte("fake-image"), "image/jpeg")

	var cErr *domain.ClassificationError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, domain.ServiceFailure, cErr.Kind)
}

func TestParseReplyDefaultsAndValidation(t *testing.T) {
	t.Run("missing gate field", func(t *testing.T) {
		_, err := parseReply(`{"main_composition": "Sayur"}`)
		var cErr *domain.ClassificationError
		require.True(t, errors.As(err, &cErr))
		assert.Equal(t, domain.ParseFailure, cErr.Kind)
	})

	t.Run("gate field wrong type", func(t *testing.T) {
		_, err := parseReply(`{"is_organic_waste": "yes"}`)
		var cErr *domain.ClassificationError
		require.True(t, errors.As(err, &cErr))
		assert.Equal(t, domain.ParseFailure, cErr.Kind)
	})

	t.Run("optional fields default", func(t *testing.T) {
		result, err := parseReply(`{"is_organic_waste": true}`)
		require.NoError(t, err)
		assert.Equal(t, "-", result.MainComposition)
		assert.Equal(t, 0.0, result.EstimatedWeightKg)
		assert.Empty(t, result.SuitabilityTags)
	})

	t.Run("unknown tags dropped", func(t *testing.T) {
		result, err := parseReply(`{"is_organic_waste": true, "suitability_tags": ["Pupuk Kompos", "Rocket Fuel", 42]}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"Pupuk Kompos"}, result.SuitabilityTags)
	})

	t.Run("negative weight clamped", func(t *testing.T) {
		result, err := parseReply(`{"is_organic_waste": true, "estimated_weight_kg": -3}`)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.EstimatedWeightKg)
	})

	t.Run("json surrounded by prose", func(t *testing.T) {
		result, err := parseReply("Here is the analysis:\n{\"is_organic_waste\": true, \"estimated_weight_kg\": 1.5}\nHope this helps!")
		require.NoError(t, err)
		assert.True(t, result.IsOrganicWaste)
		assert.Equal(t, 1.5, result.EstimatedWeightKg)
	})

	t.Run("plain fence", func(t *testing.T) {
		result, err := parseReply("```\n{\"is_organic_waste\": false, \"rejection_reason\": \"bukan sampah\"}\n```")
		require.NoError(t, err)
		assert.False(t, result.IsOrganicWaste)
		assert.Equal(t, "bukan sampah", result.RejectionReason)
	})
}
