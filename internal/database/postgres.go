package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/autosolutionsai-didac/Falcon/internal/config"
	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

// Repository wraps the relational store holding cases, documents and
// reports.
type Repository struct {
	db *gorm.DB
}

// NewRepository connects to postgres and migrates the schema.
func NewRepository(cfg config.PostgresConfig) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(&models.Case{}, &models.Document{}, &models.Report{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Connected to postgres database %s", cfg.Database)
	return &Repository{db: db}, nil
}

// DB exposes the underlying handle for callers that need raw access.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// CreateCase inserts a new case row.
func (r *Repository) CreateCase(c *models.Case) error {
	if err := r.db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// GetCasesByUser lists all cases owned by a user, newest first.
func (r *Repository) GetCasesByUser(userID uint) ([]models.Case, error) {
	var cases []models.Case
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// GetCaseByID loads one case, enforcing ownership. Documents and reports
// are preloaded for the detail view.
func (r *Repository) GetCaseByID(caseID, userID uint) (*models.Case, error) {
	var c models.Case
	err := r.db.Preload("Documents").Preload("Reports").
		Where("id = ? AND user_id = ?", caseID, userID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCase applies the non-nil fields of the update request.
func (r *Repository) UpdateCase(c *models.Case, update models.UpdateCaseRequest) error {
	changes := map[string]interface{}{}
	if update.CaseName != nil {
		changes["case_name"] = *update.CaseName
	}
	if update.ClientName != nil {
		changes["client_name"] = *update.ClientName
	}
	if update.OpposingParty != nil {
		changes["opposing_party"] = *update.OpposingParty
	}
	if update.Jurisdiction != nil {
		changes["jurisdiction"] = *update.Jurisdiction
	}
	if len(changes) == 0 {
		return nil
	}
	if err := r.db.Model(c).Updates(changes).Error; err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}

// DeleteCase soft-deletes a case and its documents and reports.
func (r *Repository) DeleteCase(caseID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", caseID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", caseID).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Case{}, caseID).Error
	})
}

// UpdateCaseStatus sets the case lifecycle status.
func (r *Repository) UpdateCaseStatus(caseID uint, status string) error {
	result := r.db.Model(&models.Case{}).Where("id = ?", caseID).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update case status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("case %d not found", caseID)
	}
	return nil
}

// GetCaseNumber returns the human-facing case number for a case.
func (r *Repository) GetCaseNumber(caseID uint) (string, error) {
	var c models.Case
	if err := r.db.Select("case_number").First(&c, caseID).Error; err != nil {
		return "", fmt.Errorf("failed to load case %d: %w", caseID, err)
	}
	return c.CaseNumber, nil
}

// SaveAnalysisResults persists a completed analysis run in one
// transaction: all report rows, the case financial summary, and the
// status transition to analysis_complete. A failure partway leaves no
// report rows behind.
func (r *Repository) SaveAnalysisResults(caseID uint, totalAssets, totalLiabilities float64, reports []models.Report) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range reports {
			reports[i].CaseID = caseID
			if err := tx.Create(&reports[i]).Error; err != nil {
				return fmt.Errorf("failed to create %s report: %w", reports[i].ReportType, err)
			}
		}
		updates := map[string]interface{}{
			"status":            models.CaseStatusComplete,
			"total_assets":      totalAssets,
			"total_liabilities": totalLiabilities,
		}
		if err := tx.Model(&models.Case{}).Where("id = ?", caseID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to finalize case: %w", err)
		}
		return nil
	})
}

// GetReportsByCase lists the reports for a case, newest run first.
func (r *Repository) GetReportsByCase(caseID uint) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.Where("case_id = ?", caseID).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// CreateDocument inserts a new document row.
func (r *Repository) CreateDocument(d *models.Document) error {
	if err := r.db.Create(d).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetDocument loads one document row.
func (r *Repository) GetDocument(documentID uint) (*models.Document, error) {
	var d models.Document
	if err := r.db.First(&d, documentID).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocumentsByCase lists all documents attached to a case.
func (r *Repository) GetDocumentsByCase(caseID uint) ([]models.Document, error) {
	var documents []models.Document
	if err := r.db.Where("case_id = ?", caseID).Order("created_at ASC").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

// SetDocumentProcessed records successful extraction.
func (r *Repository) SetDocumentProcessed(documentID uint, data models.JSONMap) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":         models.DocumentStatusProcessed,
		"extracted_data": data,
		"error_message":  "",
		"processed_at":   &now,
	}
	if err := r.db.Model(&models.Document{}).Where("id = ?", documentID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark document processed: %w", err)
	}
	return nil
}

// SetDocumentFailed records a failed extraction on the document row.
func (r *Repository) SetDocumentFailed(documentID uint, message string) error {
	updates := map[string]interface{}{
		"status":        models.DocumentStatusProcessingFailed,
		"error_message": message,
	}
	if err := r.db.Model(&models.Document{}).Where("id = ?", documentID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark document failed: %w", err)
	}
	return nil
}
