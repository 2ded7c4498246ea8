package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

// ObjectFetcher reads stored document content.
type ObjectFetcher interface {
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// Extractor parses formats that need an external engine, such as PDFs.
type Extractor interface {
	Extract(ctx context.Context, content []byte, declaredType string) (map[string]interface{}, error)
}

// DocumentStore persists extraction outcomes.
type DocumentStore interface {
	GetDocument(documentID uint) (*models.Document, error)
	SetDocumentProcessed(documentID uint, data models.JSONMap) error
	SetDocumentFailed(documentID uint, message string) error
}

// ExtractionService runs the document-processing sub-job: fetch the
// stored file, extract structured content, and record the status
// transition. Extraction failures stay scoped to the document; no
// notification is sent.
type ExtractionService struct {
	objects ObjectFetcher
	pdf     Extractor
	store   DocumentStore
}

// NewExtractionService creates an extraction service. pdf may be nil
// when no external PDF engine is configured.
func NewExtractionService(objects ObjectFetcher, pdf Extractor, store DocumentStore) *ExtractionService {
	return &ExtractionService{
		objects: objects,
		pdf:     pdf,
		store:   store,
	}
}

// ProcessDocument moves one document from uploaded to processed, or to
// processing_failed with the error recorded on the row.
func (s *ExtractionService) ProcessDocument(ctx context.Context, documentID uint) error {
	document, err := s.store.GetDocument(documentID)
	if err != nil {
		return fmt.Errorf("document %d not found: %w", documentID, err)
	}

	data, err := s.extract(ctx, document)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", models.ErrExtraction, err)
		if markErr := s.store.SetDocumentFailed(documentID, wrapped.Error()); markErr != nil {
			log.Printf("ERROR: failed to mark document %d processing_failed: %v", documentID, markErr)
		}
		return wrapped
	}

	if err := s.store.SetDocumentProcessed(documentID, data); err != nil {
		return fmt.Errorf("failed to store extracted data for document %d: %w", documentID, err)
	}
	return nil
}

func (s *ExtractionService) extract(ctx context.Context, document *models.Document) (models.JSONMap, error) {
	object, err := s.objects.GetObject(ctx, document.ObjectKey)
	if err != nil {
		return nil, err
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", document.ObjectKey, err)
	}

	switch strings.ToLower(document.FileType) {
	case "txt", "text":
		return extractText(content), nil
	case "csv":
		return extractCSV(content)
	default:
		if s.pdf == nil {
			return nil, fmt.Errorf("no extraction engine for file type %q", document.FileType)
		}
		data, err := s.pdf.Extract(ctx, content, document.FileType)
		if err != nil {
			return nil, err
		}
		return models.JSONMap(data), nil
	}
}

// extractText produces the textual payload for document-style files.
func extractText(content []byte) models.JSONMap {
	text := string(content)
	lines := strings.Split(text, "\n")

	return models.JSONMap{
		"text":       text,
		"line_count": len(lines),
		"word_count": len(strings.Fields(text)),
	}
}

// extractCSV produces tabular summary statistics for spreadsheet-style
// files.
func extractCSV(content []byte) (models.JSONMap, error) {
	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := rows[0]
	dataRows := rows[1:]

	// Per-column numeric summaries; non-numeric columns are skipped.
	columnStats := map[string]interface{}{}
	for col, header := range headers {
		var sum, minVal, maxVal float64
		count := 0
		for _, row := range dataRows {
			if col >= len(row) {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				continue
			}
			if count == 0 || value < minVal {
				minVal = value
			}
			if count == 0 || value > maxVal {
				maxVal = value
			}
			sum += value
			count++
		}
		if count > 0 {
			columnStats[header] = map[string]interface{}{
				"sum":   sum,
				"min":   minVal,
				"max":   maxVal,
				"mean":  sum / float64(count),
				"count": count,
			}
		}
	}

	// Flattened rows keep the raw text available for keyword scans.
	records := make([]interface{}, 0, len(dataRows))
	for _, row := range dataRows {
		records = append(records, strings.Join(row, " "))
	}

	return models.JSONMap{
		"columns":      headers,
		"row_count":    len(dataRows),
		"column_stats": columnStats,
		"records":      records,
	}, nil
}
