package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Case statuses. Only the API layer and the analysis worker mutate them.
const (
	CaseStatusOpen     = "open"
	CaseStatusRunning  = "analysis_running"
	CaseStatusComplete = "analysis_complete"
	CaseStatusFailed   = "analysis_failed"
)

// Document processing statuses.
const (
	DocumentStatusUploaded         = "uploaded"
	DocumentStatusProcessed        = "processed"
	DocumentStatusProcessingFailed = "processing_failed"
)

// Report types.
const (
	ReportTypeExecutive  = "executive_summary"
	ReportTypeConfidence = "confidence_analysis"
	ReportTypeDetailed   = "detailed_forensic"
)

// JSONMap stores an opaque JSON object in a single column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	return json.Unmarshal(data, m)
}

// Case is one divorce-forensic engagement owned by a single user.
type Case struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	CaseNumber    string         `gorm:"uniqueIndex;not null" json:"case_number"`
	CaseName      string         `gorm:"not null" json:"case_name"`
	ClientName    string         `gorm:"not null" json:"client_name"`
	OpposingParty string         `json:"opposing_party,omitempty"`
	Jurisdiction  string         `json:"jurisdiction,omitempty"`
	Status        string         `gorm:"default:'open'" json:"status"`

	// Financial summary, written only by the analysis worker on
	// successful completion.
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Documents []Document `gorm:"foreignKey:CaseID" json:"documents,omitempty"`
	Reports   []Report   `gorm:"foreignKey:CaseID" json:"reports,omitempty"`
}

// NetWorth is derived, never stored independently.
func (c *Case) NetWorth() float64 {
	return c.TotalAssets - c.TotalLiabilities
}

// Document is one uploaded financial document belonging to a case.
type Document struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	CaseID           uint           `gorm:"not null;index" json:"case_id"`
	Filename         string         `gorm:"not null" json:"filename"`
	OriginalFilename string         `json:"original_filename"`
	FileType         string         `gorm:"not null" json:"file_type"`
	ObjectKey        string         `gorm:"not null" json:"object_key"`
	FileSize         int64          `json:"file_size"`
	Status           string         `gorm:"default:'uploaded'" json:"status"`
	ExtractedData    JSONMap        `gorm:"type:jsonb" json:"extracted_data,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	ProcessedAt      *time.Time     `json:"processed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Report is one rendered analysis view. Rows are immutable; a new
// analysis run creates new rows instead of overwriting old ones.
type Report struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CaseID     uint      `gorm:"not null;index" json:"case_id"`
	RunID      string    `gorm:"not null;index" json:"run_id"`
	ReportType string    `gorm:"not null" json:"report_type"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Metadata   JSONMap   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
