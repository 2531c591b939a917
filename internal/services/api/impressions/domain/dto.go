// Package domain holds the impression recording DTOs and ports
package domain

import (
	"context"

	"bunshare/internal/core/impression"
)

// MaxBatch caps the entries accepted in one record call
const MaxBatch = 100

// RecordInput is the record request body
type RecordInput struct {
	Impressions []impression.Event `json:"impressions" validate:"required,max=100"`
}

// Batch is a record call after transport concerns are resolved
type Batch struct {
	Events    []impression.Event
	UserID    string
	UserAgent string
}

// RecorderPort filters and persists impression batches
type RecorderPort interface {
	Record(ctx context.Context, b Batch) (impression.Summary, error)
}
