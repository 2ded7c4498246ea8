package database

import (
	"testing"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

func cacheRequest() models.AnalysisRequest {
	return models.AnalysisRequest{
		CaseID:       7,
		Jurisdiction: "CA",
		Documents: []models.DocumentSnapshot{
			{ID: "2", Type: "tax_return", Status: models.DocumentStatusProcessed, ExtractedData: map[string]interface{}{"year": 2023.0}},
			{ID: "1", Type: "bank_statement", Status: models.DocumentStatusProcessed, ExtractedData: map[string]interface{}{"balance": 100.0}},
		},
	}
}

func TestAnalysisCacheKey_OrderIndependent(t *testing.T) {
	request := cacheRequest()

	reordered := cacheRequest()
	reordered.Documents[0], reordered.Documents[1] = reordered.Documents[1], reordered.Documents[0]

	if AnalysisCacheKey(request) != AnalysisCacheKey(reordered) {
		t.Error("cache key depends on document order")
	}
}

func TestAnalysisCacheKey_SensitiveToContent(t *testing.T) {
	base := AnalysisCacheKey(cacheRequest())

	changedData := cacheRequest()
	changedData.Documents[1].ExtractedData["balance"] = 200.0
	if AnalysisCacheKey(changedData) == base {
		t.Error("cache key ignores extracted data changes")
	}

	changedCase := cacheRequest()
	changedCase.CaseID = 8
	if AnalysisCacheKey(changedCase) == base {
		t.Error("cache key ignores case id")
	}

	changedJurisdiction := cacheRequest()
	changedJurisdiction.Jurisdiction = "NY"
	if AnalysisCacheKey(changedJurisdiction) == base {
		t.Error("cache key ignores jurisdiction")
	}

	changedStatus := cacheRequest()
	changedStatus.Documents[1].Status = models.DocumentStatusUploaded
	if AnalysisCacheKey(changedStatus) == base {
		t.Error("cache key ignores document status")
	}
}

func TestAnalysisCacheKey_Stable(t *testing.T) {
	if AnalysisCacheKey(cacheRequest()) != AnalysisCacheKey(cacheRequest()) {
		t.Error("cache key is not deterministic")
	}
}
