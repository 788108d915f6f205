package model

import "time"

// IngestedDocument is one product document returned by the ingestion service
type IngestedDocument struct {
	ID         string    `json:"id"`                    // Service-assigned id (integers carried as decimal strings)
	GTIN       *string   `json:"gtin,omitempty"`        // Barcode, if supplied at upload
	RawText    string    `json:"raw_text"`              // OCR / scrape output
	SourceType string    `json:"source_type,omitempty"` // image, html, pdf
	CreatedAt  time.Time `json:"created_at"`
}

// Source types reported by the ingestion service
const (
	SourceImage = "image"
	SourceHTML  = "html"
	SourcePDF   = "pdf"
)
