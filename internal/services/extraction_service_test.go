package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

type fakeObjectFetcher struct {
	objects map[string]string
}

func (f *fakeObjectFetcher) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	content, ok := f.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectKey)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type fakeDocumentStore struct {
	documents map[uint]*models.Document
	processed map[uint]models.JSONMap
	failed    map[uint]string
}

func newFakeDocumentStore(docs ...*models.Document) *fakeDocumentStore {
	store := &fakeDocumentStore{
		documents: map[uint]*models.Document{},
		processed: map[uint]models.JSONMap{},
		failed:    map[uint]string{},
	}
	for _, doc := range docs {
		store.documents[doc.ID] = doc
	}
	return store
}

func (f *fakeDocumentStore) GetDocument(documentID uint) (*models.Document, error) {
	doc, ok := f.documents[documentID]
	if !ok {
		return nil, fmt.Errorf("document %d not found", documentID)
	}
	return doc, nil
}

func (f *fakeDocumentStore) SetDocumentProcessed(documentID uint, data models.JSONMap) error {
	f.processed[documentID] = data
	return nil
}

func (f *fakeDocumentStore) SetDocumentFailed(documentID uint, message string) error {
	f.failed[documentID] = message
	return nil
}

func TestProcessDocument_Text(t *testing.T) {
	objects := &fakeObjectFetcher{objects: map[string]string{
		"cases/1/notes.txt": "line one has four words\nline two\n",
	}}
	store := newFakeDocumentStore(&models.Document{ID: 1, ObjectKey: "cases/1/notes.txt", FileType: "txt"})
	service := NewExtractionService(objects, nil, store)

	if err := service.ProcessDocument(context.Background(), 1); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	data, ok := store.processed[1]
	if !ok {
		t.Fatal("document not marked processed")
	}
	if data["line_count"] != 3 {
		t.Errorf("line_count = %v, want 3", data["line_count"])
	}
	if data["word_count"] != 7 {
		t.Errorf("word_count = %v, want 7", data["word_count"])
	}
}

func TestProcessDocument_CSV(t *testing.T) {
	csv := "date,description,amount\n01/15,COINBASE INC,5000\n01/20,RENT,2400\n01/21,GROCERY,100\n"
	objects := &fakeObjectFetcher{objects: map[string]string{
		"cases/1/statement.csv": csv,
	}}
	store := newFakeDocumentStore(&models.Document{ID: 2, ObjectKey: "cases/1/statement.csv", FileType: "csv"})
	service := NewExtractionService(objects, nil, store)

	if err := service.ProcessDocument(context.Background(), 2); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	data := store.processed[2]
	if data == nil {
		t.Fatal("document not marked processed")
	}
	if data["row_count"] != 3 {
		t.Errorf("row_count = %v, want 3", data["row_count"])
	}

	stats, ok := data["column_stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("column_stats = %T", data["column_stats"])
	}
	amount, ok := stats["amount"].(map[string]interface{})
	if !ok {
		t.Fatalf("amount stats missing: %v", stats)
	}
	if amount["sum"] != 7500.0 {
		t.Errorf("amount sum = %v, want 7500", amount["sum"])
	}
	if amount["mean"] != 2500.0 {
		t.Errorf("amount mean = %v, want 2500", amount["mean"])
	}
	if amount["max"] != 5000.0 {
		t.Errorf("amount max = %v, want 5000", amount["max"])
	}

	// Flattened rows feed downstream keyword scans.
	records, ok := data["records"].([]interface{})
	if !ok || len(records) != 3 {
		t.Fatalf("records = %v", data["records"])
	}
	if !strings.Contains(records[0].(string), "COINBASE") {
		t.Errorf("first record = %v", records[0])
	}
}

func TestProcessDocument_FetchFailure(t *testing.T) {
	objects := &fakeObjectFetcher{objects: map[string]string{}}
	store := newFakeDocumentStore(&models.Document{ID: 3, ObjectKey: "cases/1/missing.txt", FileType: "txt"})
	service := NewExtractionService(objects, nil, store)

	err := service.ProcessDocument(context.Background(), 3)
	if !errors.Is(err, models.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}

	if _, ok := store.processed[3]; ok {
		t.Error("failed document marked processed")
	}
	if store.failed[3] == "" {
		t.Error("failure not recorded on the document")
	}
}

func TestProcessDocument_UnsupportedTypeWithoutEngine(t *testing.T) {
	objects := &fakeObjectFetcher{objects: map[string]string{
		"cases/1/scan.pdf": "%PDF-1.7",
	}}
	store := newFakeDocumentStore(&models.Document{ID: 4, ObjectKey: "cases/1/scan.pdf", FileType: "pdf"})
	service := NewExtractionService(objects, nil, store)

	err := service.ProcessDocument(context.Background(), 4)
	if !errors.Is(err, models.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	if !strings.Contains(store.failed[4], "pdf") {
		t.Errorf("failure message = %q, want mention of the file type", store.failed[4])
	}
}

func TestProcessDocument_UnknownDocument(t *testing.T) {
	service := NewExtractionService(&fakeObjectFetcher{}, nil, newFakeDocumentStore())
	if err := service.ProcessDocument(context.Background(), 99); err == nil {
		t.Error("expected error for unknown document")
	}
}
