package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// File is one upload for the ingestion service
type File struct {
	Name string
	Data []byte
}

type ingestedDocument struct {
	ID         json.RawMessage `json:"id"`
	GTIN       *string         `json:"gtin"`
	RawText    string          `json:"raw_text"`
	SourceType *string         `json:"source_type"`
	CreatedAt  *string         `json:"created_at"`
}

// createdAtLayouts are the timestamp forms the ingestion service emits
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Ingest uploads files, with an optional GTIN, and returns the parsed documents.
// The service answers with at least one document on success.
func (c *Client) Ingest(ctx context.Context, files []File, gtin string) ([]model.IngestedDocument, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("ingest: no files")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write form file %s: %w", f.Name, err)
		}
	}
	if gtin = strings.TrimSpace(gtin); gtin != "" {
		if err := mw.WriteField("gtin", gtin); err != nil {
			return nil, fmt.Errorf("write gtin: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	url := endpoint(c.urls.Ingestion, IngestionPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var wire []ingestedDocument
	if err := c.decode(url, ingestionContract, body, &wire); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	docs := make([]model.IngestedDocument, 0, len(wire))
	for _, w := range wire {
		doc := model.IngestedDocument{
			ID:        documentID(w.ID),
			GTIN:      w.GTIN,
			RawText:   w.RawText,
			CreatedAt: now,
		}
		if w.SourceType != nil {
			doc.SourceType = *w.SourceType
		}
		if w.CreatedAt != nil {
			doc.CreatedAt = parseCreatedAt(*w.CreatedAt, now)
		}
		docs = append(docs, doc)
	}

	c.logger.Info("service.ingest.ok",
		zap.Int("files", len(files)),
		zap.Int("documents", len(docs)),
		zap.String("first_id", docs[0].ID))

	return docs, nil
}

// documentID renders an integer or string id as a string
func documentID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func parseCreatedAt(s string, fallback time.Time) time.Time {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
