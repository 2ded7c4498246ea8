package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/autosolutionsai-didac/Falcon/internal/database"
	"github.com/autosolutionsai-didac/Falcon/internal/middleware"
	"github.com/autosolutionsai-didac/Falcon/internal/models"
	"github.com/autosolutionsai-didac/Falcon/internal/services"
	"github.com/autosolutionsai-didac/Falcon/internal/storage"
	"github.com/autosolutionsai-didac/Falcon/internal/utils"
)

// Handlers contains all HTTP handlers with their dependencies
type Handlers struct {
	repo       *database.Repository
	worker     *services.AnalysisWorker
	tasks      *services.TaskService
	extraction *services.ExtractionService
	objects    *storage.MinIOClient
	cache      *database.MongoDBClient
}

// NewHandlers creates a new handlers instance. cache may be nil when no
// analysis cache is configured.
func NewHandlers(
	repo *database.Repository,
	worker *services.AnalysisWorker,
	tasks *services.TaskService,
	extraction *services.ExtractionService,
	objects *storage.MinIOClient,
	cache *database.MongoDBClient,
) *Handlers {
	return &Handlers{
		repo:       repo,
		worker:     worker,
		tasks:      tasks,
		extraction: extraction,
		objects:    objects,
		cache:      cache,
	}
}

// CreateCaseHandler handles POST /api/cases
func (h *Handlers) CreateCaseHandler(c *gin.Context) {
	var req models.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user := middleware.GetUser(c)
	newCase := &models.Case{
		UserID:        user.ID,
		CaseNumber:    utils.GenerateCaseNumber(time.Now()),
		CaseName:      req.CaseName,
		ClientName:    req.ClientName,
		OpposingParty: req.OpposingParty,
		Jurisdiction:  req.Jurisdiction,
		Status:        models.CaseStatusOpen,
	}

	if err := h.repo.CreateCase(newCase); err != nil {
		log.Printf("ERROR: failed to create case: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create case"})
		return
	}

	c.JSON(http.StatusCreated, newCase)
}

// ListCasesHandler handles GET /api/cases
func (h *Handlers) ListCasesHandler(c *gin.Context) {
	user := middleware.GetUser(c)

	cases, err := h.repo.GetCasesByUser(user.ID)
	if err != nil {
		log.Printf("ERROR: failed to list cases for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cases"})
		return
	}

	c.JSON(http.StatusOK, cases)
}

// GetCaseHandler handles GET /api/cases/:id
func (h *Handlers) GetCaseHandler(c *gin.Context) {
	caseRecord, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, caseRecord)
}

// UpdateCaseHandler handles PUT /api/cases/:id
func (h *Handlers) UpdateCaseHandler(c *gin.Context) {
	caseRecord, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}

	var req models.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.repo.UpdateCase(caseRecord, req); err != nil {
		log.Printf("ERROR: failed to update case %d: %v", caseRecord.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update case"})
		return
	}

	c.JSON(http.StatusOK, caseRecord)
}

// DeleteCaseHandler handles DELETE /api/cases/:id. Deletion is refused
// while an analysis run is in flight.
func (h *Handlers) DeleteCaseHandler(c *gin.Context) {
	caseRecord, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}

	if caseRecord.Status == models.CaseStatusRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete a case while analysis is running"})
		return
	}

	if err := h.repo.DeleteCase(caseRecord.ID); err != nil {
		log.Printf("ERROR: failed to delete case %d: %v", caseRecord.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete case"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Case deleted successfully"})
}

// AnalyzeCaseHandler handles POST /api/cases/:id/analyze. The document
// snapshot is captured here; the running job never re-reads live rows.
func (h *Handlers) AnalyzeCaseHandler(c *gin.Context) {
	caseRecord, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}

	if len(caseRecord.Documents) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No documents uploaded for this case"})
		return
	}

	jurisdiction := caseRecord.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = "California"
	}

	snapshot := make([]models.DocumentSnapshot, 0, len(caseRecord.Documents))
	for _, doc := range caseRecord.Documents {
		snapshot = append(snapshot, models.DocumentSnapshot{
			ID:            strconv.FormatUint(uint64(doc.ID), 10),
			Type:          doc.FileType,
			Filename:      doc.OriginalFilename,
			Status:        doc.Status,
			ExtractedData: doc.ExtractedData,
		})
	}

	request := models.AnalysisRequest{
		CaseID:       caseRecord.ID,
		Documents:    snapshot,
		User:         middleware.GetUser(c),
		Jurisdiction: jurisdiction,
	}

	// Serve unchanged re-triggers from the cache without a new run.
	if h.cache != nil {
		cached, err := h.cache.GetCachedResult(request)
		if err != nil {
			log.Printf("WARNING: analysis cache lookup failed for case %d: %v", caseRecord.ID, err)
		} else if cached != nil {
			c.JSON(http.StatusOK, gin.H{
				"message": "Analysis served from cache",
				"caseId":  caseRecord.ID,
				"status":  string(models.TaskStatusCompleted),
				"result":  cached,
			})
			return
		}
	}

	task, err := h.worker.Submit(request)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, models.TaskResponse{
		TaskID: task.ID,
		Status: string(task.Status),
		CaseID: caseRecord.ID,
	})
}

// GetTaskStatusHandler handles GET /api/analysis/status/:taskId
func (h *Handlers) GetTaskStatusHandler(c *gin.Context) {
	taskID := c.Param("taskId")

	task, err := h.tasks.GetTask(taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		TaskID: task.ID,
		Status: string(task.Status),
		Result: task.Result,
		Error:  task.Error,
	})
}

// GetReportsHandler handles GET /api/cases/:id/reports
func (h *Handlers) GetReportsHandler(c *gin.Context) {
	caseRecord, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}

	reports, err := h.repo.GetReportsByCase(caseRecord.ID)
	if err != nil {
		log.Printf("ERROR: failed to list reports for case %d: %v", caseRecord.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, reports)
}

// UploadDocumentHandler handles POST /api/cases/:id/documents
func (h *Handlers) UploadDocumentHandler(c *gin.Context) {
	caseRecord, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	fileType := c.PostForm("file_type")
	if fileType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_type is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	// Stored filenames get a UUID prefix so repeated uploads of the
	// same client file never collide.
	storedName := utils.GenerateUUID() + "_" + fileHeader.Filename
	objectKey := storage.DocumentKey(caseRecord.ID, storedName)

	contentType := fileHeader.Header.Get("Content-Type")
	if _, err := h.objects.Upload(c.Request.Context(), objectKey, file, fileHeader.Size, contentType); err != nil {
		log.Printf("ERROR: failed to store document for case %d: %v", caseRecord.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	document := &models.Document{
		CaseID:           caseRecord.ID,
		Filename:         storedName,
		OriginalFilename: fileHeader.Filename,
		FileType:         fileType,
		ObjectKey:        objectKey,
		FileSize:         fileHeader.Size,
		Status:           models.DocumentStatusUploaded,
	}
	if err := h.repo.CreateDocument(document); err != nil {
		log.Printf("ERROR: failed to record document for case %d: %v", caseRecord.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record document"})
		return
	}

	// The document set changed, so cached analysis results are stale.
	if h.cache != nil {
		if err := h.cache.InvalidateCase(caseRecord.ID); err != nil {
			log.Printf("WARNING: failed to invalidate analysis cache for case %d: %v", caseRecord.ID, err)
		}
	}

	c.JSON(http.StatusCreated, document)
}

// ProcessDocumentHandler handles POST /api/documents/:id/process. The
// extraction sub-job runs in the background; failures land on the
// document row, not in this response.
func (h *Handlers) ProcessDocumentHandler(c *gin.Context) {
	documentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}

	document, err := h.repo.GetDocument(uint(documentID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	// Ownership runs through the parent case.
	user := middleware.GetUser(c)
	if _, err := h.repo.GetCaseByID(document.CaseID, user.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := h.extraction.ProcessDocument(ctx, document.ID); err != nil {
			log.Printf("ERROR: document %d processing failed: %v", document.ID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"documentId": document.ID,
		"status":     "processing",
	})
}

// loadOwnedCase resolves the :id parameter to a case owned by the
// authenticated user, writing the error response itself on failure.
func (h *Handlers) loadOwnedCase(c *gin.Context) (*models.Case, bool) {
	caseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid case id"})
		return nil, false
	}

	user := middleware.GetUser(c)
	caseRecord, err := h.repo.GetCaseByID(uint(caseID), user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		} else {
			log.Printf("ERROR: failed to load case %d: %v", caseID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load case"})
		}
		return nil, false
	}
	return caseRecord, true
}
