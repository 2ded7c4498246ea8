package services

import (
	"context"
	"fmt"
	"log"

	"github.com/autosolutionsai-didac/Falcon/internal/config"
	"github.com/autosolutionsai-didac/Falcon/internal/models"
	"github.com/autosolutionsai-didac/Falcon/internal/utils"
)

// Analyzer runs the four-phase analysis for one case.
type Analyzer interface {
	AnalyzeCase(ctx context.Context, request models.AnalysisRequest) (*models.ForensicOutput, error)
}

// AnalysisStore is the persistence surface the worker needs. Report
// persistence for one run is all-or-nothing.
type AnalysisStore interface {
	UpdateCaseStatus(caseID uint, status string) error
	SaveAnalysisResults(caseID uint, totalAssets, totalLiabilities float64, reports []models.Report) error
	GetCaseNumber(caseID uint) (string, error)
}

// Notifier delivers the outcome email. Implementations never return an
// error; delivery failure is reported as false and logged.
type Notifier interface {
	NotifyCompletion(toEmail, userName string, caseID uint, summary, confidenceLabel string, isError bool, pdfData []byte) bool
}

// ResultCacher stores finished analysis results outside the in-memory
// registry so repeated triggers on unchanged inputs can be served
// without a new run.
type ResultCacher interface {
	StoreResult(task *models.AnalysisTask) error
}

// AnalysisWorker executes analysis jobs on a bounded worker pool. Each
// job runs end-to-end in isolation; the single recover boundary here is
// the only place that marks a Case failed.
type AnalysisWorker struct {
	analyzer Analyzer
	reports  *ReportService
	pdf      *PDFService
	store    AnalysisStore
	notifier Notifier
	cache    ResultCacher
	tasks    *TaskService
	cfg      config.TaskConfig
	slots    chan struct{}
}

// NewAnalysisWorker creates a worker pool with cfg.Workers concurrent
// job slots. cache may be nil when no result cache is configured.
func NewAnalysisWorker(
	analyzer Analyzer,
	reports *ReportService,
	pdf *PDFService,
	store AnalysisStore,
	notifier Notifier,
	cache ResultCacher,
	tasks *TaskService,
	cfg config.TaskConfig,
) *AnalysisWorker {
	return &AnalysisWorker{
		analyzer: analyzer,
		reports:  reports,
		pdf:      pdf,
		store:    store,
		notifier: notifier,
		cache:    cache,
		tasks:    tasks,
		cfg:      cfg,
		slots:    make(chan struct{}, cfg.Workers),
	}
}

// Submit enqueues one analysis job. The caller guarantees the case
// exists, is owned by the requester, and has at least one document;
// violations are rejected here before any task is created.
func (w *AnalysisWorker) Submit(request models.AnalysisRequest) (*models.AnalysisTask, error) {
	if len(request.Documents) == 0 {
		return nil, fmt.Errorf("%w: case has no documents to analyze", models.ErrValidation)
	}
	if w.tasks.HasActiveTaskForCase(request.CaseID) {
		return nil, fmt.Errorf("an analysis is already running for case %d", request.CaseID)
	}

	task, err := w.tasks.CreateTask(request)
	if err != nil {
		return nil, err
	}

	go w.run(task.ID, request)
	return task, nil
}

// run is the job body. Any error anywhere inside funnels into the
// single failure path: Case marked failed, failure notification with
// the N/A confidence sentinel, error recorded on the task.
func (w *AnalysisWorker) run(taskID string, request models.AnalysisRequest) {
	w.slots <- struct{}{}
	defer func() { <-w.slots }()

	if err := w.tasks.UpdateTaskStatus(taskID, models.TaskStatusProcessing); err != nil {
		log.Printf("ERROR: failed to mark task %s processing: %v", taskID, err)
		return
	}

	hardCtx, cancelHard := context.WithTimeout(context.Background(), w.cfg.HardTimeLimit)
	defer cancelHard()

	// The orchestrator gets the soft deadline so the job still has
	// wall-clock room to report failure before the hard limit fires.
	softCtx, cancelSoft := context.WithTimeout(hardCtx, w.cfg.SoftTimeLimit)
	defer cancelSoft()

	if err := w.execute(hardCtx, softCtx, taskID, request); err != nil {
		w.fail(taskID, request, err)
	}
}

func (w *AnalysisWorker) execute(hardCtx, softCtx context.Context, taskID string, request models.AnalysisRequest) error {
	if err := w.store.UpdateCaseStatus(request.CaseID, models.CaseStatusRunning); err != nil {
		return fmt.Errorf("failed to mark case running: %w", err)
	}

	output, err := w.analyzer.AnalyzeCase(softCtx, request)
	if err != nil {
		if softCtx.Err() != nil && hardCtx.Err() == nil {
			return fmt.Errorf("%w: soft time limit reached: %v", models.ErrJobTimeout, err)
		}
		return err
	}

	runID := utils.GenerateUUID()
	reportTypes := []string{models.ReportTypeExecutive, models.ReportTypeConfidence, models.ReportTypeDetailed}
	reportRows := make([]models.Report, 0, len(reportTypes))
	for _, reportType := range reportTypes {
		content, err := w.reports.Render(output, reportType)
		if err != nil {
			return fmt.Errorf("failed to render %s report: %w", reportType, err)
		}
		reportRows = append(reportRows, models.Report{
			CaseID:     request.CaseID,
			RunID:      runID,
			ReportType: reportType,
			Content:    content,
			Metadata:   reportMetadata(reportType, output),
		})
	}

	if err := hardCtx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrJobTimeout, err)
	}

	// One transaction: three reports, case status, financial summary.
	if err := w.store.SaveAnalysisResults(request.CaseID, output.TotalAssetsValue, output.TotalLiabilitiesAmount, reportRows); err != nil {
		return fmt.Errorf("failed to persist analysis results: %w", err)
	}

	var pdfData []byte
	caseNumber, err := w.store.GetCaseNumber(request.CaseID)
	if err != nil {
		log.Printf("WARNING: could not load case number for case %d, skipping PDF attachment: %v", request.CaseID, err)
	} else if w.pdf != nil {
		pdfData, err = w.pdf.GenerateExecutivePDF(caseNumber, output)
		if err != nil {
			log.Printf("WARNING: PDF generation failed for case %d: %v", request.CaseID, err)
			pdfData = nil
		}
	}

	if !w.notifier.NotifyCompletion(request.User.Email, request.User.FullName, request.CaseID,
		output.ExecutiveSummary, output.ConfidenceDashboard.OverallConfidence, false, pdfData) {
		log.Printf("WARNING: completion notification not delivered for case %d", request.CaseID)
	}

	result := &models.AnalysisResult{
		Status:                  string(models.TaskStatusCompleted),
		CaseID:                  request.CaseID,
		ReportsGenerated:        reportTypes,
		ConfidenceDashboard:     output.ConfidenceDashboard,
		TotalAssets:             output.TotalAssetsValue,
		NetWorth:                output.NetWorth,
		ImmediateActions:        len(output.ImmediateActions),
		StrategicLeveragePoints: len(output.StrategicLeveragePoints),
	}
	if err := w.tasks.SetTaskResult(taskID, result); err != nil {
		return err
	}

	if w.cache != nil {
		if task, err := w.tasks.GetTask(taskID); err == nil {
			if err := w.cache.StoreResult(task); err != nil {
				log.Printf("WARNING: failed to cache analysis result for case %d: %v", request.CaseID, err)
			}
		}
	}

	return nil
}

// fail is the single boundary that mutates Case status to failed.
func (w *AnalysisWorker) fail(taskID string, request models.AnalysisRequest, jobErr error) {
	log.Printf("ERROR: analysis job %s for case %d failed: %v", taskID, request.CaseID, jobErr)

	if err := w.store.UpdateCaseStatus(request.CaseID, models.CaseStatusFailed); err != nil {
		log.Printf("ERROR: failed to mark case %d failed: %v", request.CaseID, err)
	}

	if !w.notifier.NotifyCompletion(request.User.Email, request.User.FullName, request.CaseID,
		jobErr.Error(), models.ConfidenceNotApplicable, true, nil) {
		log.Printf("WARNING: failure notification not delivered for case %d", request.CaseID)
	}

	if err := w.tasks.SetTaskError(taskID, jobErr); err != nil {
		log.Printf("ERROR: failed to record error on task %s: %v", taskID, err)
	}
}

// reportMetadata extracts the type-specific metadata stored alongside
// each report row.
func reportMetadata(reportType string, output *models.ForensicOutput) models.JSONMap {
	switch reportType {
	case models.ReportTypeExecutive:
		return models.JSONMap{
			"overall_confidence":   output.ConfidenceDashboard.OverallConfidence,
			"total_assets":         output.TotalAssetsValue,
			"net_worth":            output.NetWorth,
			"settlement_scenarios": len(output.SettlementScenarios),
		}
	case models.ReportTypeConfidence:
		return models.JSONMap{
			"overall_confidence":    output.ConfidenceDashboard.OverallConfidence,
			"document_completeness": output.ConfidenceDashboard.DocumentCompleteness,
			"valuation_reliability": output.ConfidenceDashboard.ValuationReliability,
			"documents_verified":    len(output.DocumentVerification),
			"alternative_scenarios": len(output.AlternativeScenarios),
		}
	case models.ReportTypeDetailed:
		return models.JSONMap{
			"assets":              len(output.Assets),
			"liabilities":         len(output.Liabilities),
			"concealment_schemes": len(output.ConcealmentSchemes),
			"has_digital_assets":  output.DigitalAssets != nil,
		}
	default:
		return models.JSONMap{}
	}
}
