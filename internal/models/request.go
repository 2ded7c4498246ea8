package models

// DocumentSnapshot is the immutable view of one document captured at
// enqueue time. The analysis only ever reads this snapshot, never the
// live Document row.
type DocumentSnapshot struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Filename      string                 `json:"filename"`
	Status        string                 `json:"status"`
	ExtractedData map[string]interface{} `json:"extracted_data"`
}

// UserContext identifies the requesting user for ownership checks and
// notification delivery.
type UserContext struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// AnalysisRequest is the full payload handed to the task executor.
type AnalysisRequest struct {
	CaseID       uint               `json:"case_id"`
	Documents    []DocumentSnapshot `json:"documents"`
	User         UserContext        `json:"user"`
	Jurisdiction string             `json:"jurisdiction"`
}

// AnalysisResult is the terminal record exposed through status polling.
type AnalysisResult struct {
	Status                  string              `json:"status"`
	CaseID                  uint                `json:"case_id"`
	ReportsGenerated        []string            `json:"reports_generated"`
	ConfidenceDashboard     ConfidenceDashboard `json:"confidence_dashboard"`
	TotalAssets             float64             `json:"total_assets"`
	NetWorth                float64             `json:"net_worth"`
	ImmediateActions        int                 `json:"immediate_actions"`
	StrategicLeveragePoints int                 `json:"strategic_leverage_points"`
}

// CreateCaseRequest is the body for POST /api/cases
type CreateCaseRequest struct {
	CaseName      string `json:"case_name" binding:"required"`
	ClientName    string `json:"client_name" binding:"required"`
	OpposingParty string `json:"opposing_party"`
	Jurisdiction  string `json:"jurisdiction"`
}

// UpdateCaseRequest is the body for PUT /api/cases/:id
type UpdateCaseRequest struct {
	CaseName      *string `json:"case_name"`
	ClientName    *string `json:"client_name"`
	OpposingParty *string `json:"opposing_party"`
	Jurisdiction  *string `json:"jurisdiction"`
}

// TaskResponse is returned when an analysis is accepted
type TaskResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
	CaseID uint   `json:"caseId"`
}

// StatusResponse is returned by the status polling endpoint
type StatusResponse struct {
	TaskID string          `json:"taskId"`
	Status string          `json:"status"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ProcessDocumentRequest is the body for POST /api/documents/:id/process
type ProcessDocumentRequest struct {
	FileType string `json:"file_type"`
}
