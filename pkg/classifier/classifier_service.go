package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ecocycle-backend/domain"
	"ecocycle-backend/internal/utils"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// systemPrompt fixes the taxonomy, the organic/non-organic gate and the
// output shape. The model reply is still treated as untrusted text.
const systemPrompt = `You are an expert in Organic Waste Upcycling, Animal Feed, and Composting. Your task is to analyze an image and determine if it contains organic waste suitable for upcycling.

**Instructions:**
1.  Analyze the provided image.
2.  **First, determine if the image contains organic waste** (food scraps, vegetable peels, leftovers, garden waste, etc.).
3.  If it is **NOT** organic waste (e.g., it's a person, car, electronic, landscape, purely inorganic trash like plastic bottles, or a blank image), set ` + "`is_organic_waste`" + ` to ` + "`false`" + ` and provide a ` + "`rejection_reason`" + `.
4.  If it **IS** organic waste:
    a. Identify the main visible components.
    b. Estimate the weight of the waste in kilograms.
    c. Determine its suitability for various upcycling methods based on the components.
    d. Provide a safety warning if you spot any contaminants or problematic materials (e.g., plastic, excessive oil, spicy foods for animals).
    e. Suggest a practical handling tip for the user.
5.  Return the analysis ONLY in a valid JSON format.

**JSON Output Structure:**
{
  "is_organic_waste": true,
  "rejection_reason": null,
  "main_composition": "<Identified main components, e.g., 'Nasi, Sayuran, Tulang Ayam'>",
  "estimated_weight_kg": <float, e.g., 1.5>,
  "suitability_tags": ["<List of suitable uses. Choose from: 'Maggot BSF', 'Ayam/Unggas', 'Ikan Lele', 'Pupuk Kompos', 'Biogas'>"],
  "safety_warning": "<Any safety concerns, e.g., 'Mengandung plastik, pisahkan sebelum diolah' or 'Aman'>",
  "handling_tip": "<A practical tip>"
}`

type (
	ClassifierService interface {
		Classify(ctx context.Context, image []byte, mimeType string) (domain.ClassificationResult, error)
	}

	classifierService struct {
		baseURL    string
		httpClient *http.Client
	}
)

// NewClassifierService builds the Gemini-backed classifier. baseURL is
// overridable for tests; empty means the public Gemini endpoint.
func NewClassifierService(baseURL string) ClassifierService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &classifierService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

var jsonPattern = regexp.MustCompile(`(?s)\{.*\}`)

func (s *classifierService) Classify(ctx context.Context, image []byte, mimeType string) (domain.ClassificationResult, error) {
	apiKey := utils.GetConfig("GEMINI_API_KEY")
	if apiKey == "" {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ServiceFailure, Detail: "GEMINI_API_KEY not set",
		}
	}

	model := utils.GetConfig("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	geminiURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, model, apiKey)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": systemPrompt},
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      base64.StdEncoding.EncodeToString(image),
						},
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.1,
			"topP":        0.8,
			"topK":        40,
		},
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ServiceFailure, Detail: err.Error(),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ServiceFailure, Detail: err.Error(),
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ServiceFailure, Detail: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind:   domain.ServiceFailure,
			Detail: fmt.Sprintf("gemini API error: %s - %s", resp.Status, string(bodyBytes)),
		}
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ServiceFailure, Detail: err.Error(),
		}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ServiceFailure, Detail: "empty candidates in gemini response",
		}
	}

	return parseReply(geminiResp.Candidates[0].Content.Parts[0].Text)
}

// parseReply turns the raw model text into a validated ClassificationResult.
// The reply may be wrapped in markdown fences or surrounded by prose.
func parseReply(raw string) (domain.ClassificationResult, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	if match := jsonPattern.FindString(text); match != "" {
		text = match
	}
	text = strings.TrimSpace(text)

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ParseFailure, Detail: err.Error(), RawText: raw,
		}
	}

	isOrganic, ok := fields["is_organic_waste"].(bool)
	if !ok {
		return domain.ClassificationResult{}, &domain.ClassificationError{
			Kind: domain.ParseFailure, Detail: "missing is_organic_waste boolean", RawText: raw,
		}
	}

	result := domain.ClassificationResult{
		IsOrganicWaste:    isOrganic,
		RejectionReason:   stringField(fields, "rejection_reason", ""),
		MainComposition:   stringField(fields, "main_composition", "-"),
		EstimatedWeightKg: numberField(fields, "estimated_weight_kg"),
		SuitabilityTags:   tagsField(fields, "suitability_tags"),
		SafetyWarning:     stringField(fields, "safety_warning", "-"),
		HandlingTip:       stringField(fields, "handling_tip", "-"),
	}
	if result.EstimatedWeightKg < 0 {
		result.EstimatedWeightKg = 0
	}
	return result, nil
}

func stringField(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func numberField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%f", &f); err == nil {
			return f
		}
	}
	return 0
}

// tagsField keeps only tags from the known taxonomy; anything else the
// model invented is dropped.
func tagsField(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return []string{}
	}
	known := make(map[string]struct{}, len(domain.SuitabilityTags))
	for _, t := range domain.SuitabilityTags {
		known[t] = struct{}{}
	}
	tags := make([]string, 0, len(raw))
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if _, ok := known[s]; ok {
			tags = append(tags, s)
		}
	}
	return tags
}
