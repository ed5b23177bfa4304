package entities

import (
	"time"
)

// WastePost is a single marketplace posting. Rows are append-only: posts are
// created once by the ingestion flow and never updated or deleted.
type WastePost struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderType  string    `gorm:"not null" json:"provider_type"`
	WasteCategory string    `json:"waste_category"`
	SuitableFor   string    `json:"suitable_for"`
	WeightEst     float64   `json:"weight_est"`
	Lat           float64   `gorm:"not null" json:"lat"`
	Lon           float64   `gorm:"not null" json:"lon"`
	ContactInfo   string    `json:"contact_info,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	ImageBlob     []byte    `gorm:"type:bytea" json:"-"`
	AIAnalysis    string    `gorm:"type:text" json:"ai_analysis"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
