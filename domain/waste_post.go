package domain

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"regexp"
	"time"
)

// Provider types and suitability tags use the exact strings the classifier
// prompt emits and the frontend renders. They are stored verbatim.
const (
	ProviderHousehold  = "Rumah Tangga"
	ProviderRestaurant = "Restoran"
	ProviderMarket     = "Pasar"

	TagMaggotBSF = "Maggot BSF"
	TagPoultry   = "Ayam/Unggas"
	TagCatfish   = "Ikan Lele"
	TagCompost   = "Pupuk Kompos"
	TagBiogas    = "Biogas"
)

// SuitabilityTags is the closed five-value taxonomy. Tags outside this set
// coming back from the model are dropped, never stored.
var SuitabilityTags = []string{TagMaggotBSF, TagPoultry, TagCatfish, TagCompost, TagBiogas}

var (
	MessageSuccessSubmitWastePost = "waste post created successfully"
	MessageSuccessAnalyzeImage    = "image analyzed successfully"
	MessageSuccessGetWastePosts   = "waste posts retrieved successfully"

	MessageFailedSubmitWastePost = "failed to create waste post"
	MessageFailedAnalyzeImage    = "failed to analyze image"
	MessageFailedGetWastePosts   = "failed to retrieve waste posts"
	MessageWasteRejected         = "image rejected: not organic waste"
)

type (
	SubmitWastePostRequest struct {
		ProviderType string                `json:"provider_type" form:"provider_type" validate:"required"`
		ContactInfo  string                `json:"contact_info" form:"contact_info" validate:"omitempty,max=100"`
		Lat          float64               `json:"lat" form:"lat" validate:"latitude"`
		Lon          float64               `json:"lon" form:"lon" validate:"longitude"`
		Image        *multipart.FileHeader `json:"image" form:"image" validate:"required"`
	}

	SubmitWastePostResponse struct {
		ID            uint                 `json:"id"`
		ProviderType  string               `json:"provider_type"`
		WasteCategory string               `json:"waste_category"`
		SuitableFor   string               `json:"suitable_for"`
		WeightEst     float64              `json:"weight_est"`
		Lat           float64              `json:"lat"`
		Lon           float64              `json:"lon"`
		Analysis      ClassificationResult `json:"analysis"`
		CreatedAt     time.Time            `json:"created_at"`
	}

	WastePostResponse struct {
		ID            uint      `json:"id"`
		ProviderType  string    `json:"provider_type"`
		WasteCategory string    `json:"waste_category"`
		SuitableFor   string    `json:"suitable_for"`
		WeightEst     float64   `json:"weight_est"`
		Lat           float64   `json:"lat"`
		Lon           float64   `json:"lon"`
		ContactInfo   string    `json:"contact_info,omitempty"`
		ImageURL      string    `json:"image_url,omitempty"`
		WhatsAppURL   string    `json:"whatsapp_url,omitempty"`
		AIAnalysis    string    `json:"ai_analysis"`
		CreatedAt     time.Time `json:"created_at"`
	}
)

// ValidProviderType reports whether p is one of the three provider types.
// Kept out of validator tags because the values contain spaces, which the
// oneof tag cannot express.
func ValidProviderType(p string) bool {
	switch p {
	case ProviderHousehold, ProviderRestaurant, ProviderMarket:
		return true
	}
	return false
}

var nonDigit = regexp.MustCompile(`\D`)

// WhatsAppLink builds the seeker-to-provider contact deep link with a
// pre-filled message referencing the post. Returns "" when the contact info
// contains no usable phone number.
func WhatsAppLink(contactInfo, wasteCategory string, weightKg float64) string {
	phone := nonDigit.ReplaceAllString(contactInfo, "")
	if len(phone) < 8 {
		return ""
	}
	msg := fmt.Sprintf(
		"Halo, saya lihat postingan limbah *%s* (%.1fkg) di EcoCycle Maps. Apakah masih ada?",
		wasteCategory, weightKg,
	)
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(msg))
}
