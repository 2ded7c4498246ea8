package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/autosolutionsai-didac/Falcon/internal/config"
	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

type fakeAnalyzer struct {
	output *models.ForensicOutput
	err    error
	block  chan struct{}
}

func (f *fakeAnalyzer) AnalyzeCase(ctx context.Context, request models.AnalysisRequest) (*models.ForensicOutput, error) {
	if f.block != nil {
		<-f.block
	}
	return f.output, f.err
}

type fakeStore struct {
	mu         sync.Mutex
	statuses   []string
	saves      [][]models.Report
	caseNumber string
}

func (f *fakeStore) UpdateCaseStatus(caseID uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) SaveAnalysisResults(caseID uint, totalAssets, totalLiabilities float64, reports []models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, reports)
	return nil
}

func (f *fakeStore) GetCaseNumber(caseID uint) (string, error) {
	return f.caseNumber, nil
}

func (f *fakeStore) snapshot() ([]string, [][]models.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statuses...), append([][]models.Report(nil), f.saves...)
}

type notifyCall struct {
	summary         string
	confidenceLabel string
	isError         bool
	hasPDF          bool
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) NotifyCompletion(toEmail, userName string, caseID uint, summary, confidenceLabel string, isError bool, pdfData []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{summary: summary, confidenceLabel: confidenceLabel, isError: isError, hasPDF: len(pdfData) > 0})
	return true
}

func (f *fakeNotifier) snapshot() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifyCall(nil), f.calls...)
}

type fakeCacher struct {
	mu     sync.Mutex
	stored []*models.AnalysisTask
}

func (f *fakeCacher) StoreResult(task *models.AnalysisTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, task)
	return nil
}

func testTaskConfig() config.TaskConfig {
	return config.TaskConfig{
		HardTimeLimit: time.Minute,
		SoftTimeLimit: 30 * time.Second,
		Workers:       2,
		Retention:     time.Hour,
	}
}

func newTestWorker(analyzer Analyzer, store *fakeStore, notifier *fakeNotifier, cache ResultCacher) (*AnalysisWorker, *TaskService) {
	tasks := NewTaskService()
	worker := NewAnalysisWorker(analyzer, NewReportService(), nil, store, notifier, cache, tasks, testTaskConfig())
	return worker, tasks
}

func waitForTerminal(t *testing.T, tasks *TaskService, taskID string) *models.AnalysisTask {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := tasks.GetTask(taskID)
		if err != nil {
			t.Fatalf("GetTask failed: %v", err)
		}
		if task.Status == models.TaskStatusCompleted || task.Status == models.TaskStatusFailed {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state")
	return nil
}

func TestSubmit_RejectsZeroDocuments(t *testing.T) {
	store := &fakeStore{}
	worker, _ := newTestWorker(&fakeAnalyzer{}, store, &fakeNotifier{}, nil)

	request := testAnalysisRequest()
	request.Documents = nil

	_, err := worker.Submit(request)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	statuses, _ := store.snapshot()
	if len(statuses) != 0 {
		t.Errorf("case status mutated on rejected submit: %v", statuses)
	}
}

func TestWorker_SuccessPath(t *testing.T) {
	store := &fakeStore{caseNumber: "FCN-2026-AB12CD34"}
	notifier := &fakeNotifier{}
	cache := &fakeCacher{}
	analyzer := &fakeAnalyzer{output: sampleOutput()}
	worker, tasks := newTestWorker(analyzer, store, notifier, cache)

	task, err := worker.Submit(testAnalysisRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	done := waitForTerminal(t, tasks, task.ID)
	if done.Status != models.TaskStatusCompleted {
		t.Fatalf("task status = %s (error %q), want completed", done.Status, done.Error)
	}

	statuses, saves := store.snapshot()
	if len(statuses) != 1 || statuses[0] != models.CaseStatusRunning {
		t.Errorf("statuses = %v, want [analysis_running] (completion is part of the save transaction)", statuses)
	}
	if len(saves) != 1 {
		t.Fatalf("SaveAnalysisResults calls = %d, want 1", len(saves))
	}
	reports := saves[0]
	if len(reports) != 3 {
		t.Fatalf("report rows = %d, want 3", len(reports))
	}
	runID := reports[0].RunID
	types := map[string]bool{}
	for _, report := range reports {
		if report.RunID != runID {
			t.Errorf("report %s has run id %s, want %s", report.ReportType, report.RunID, runID)
		}
		if report.Content == "" {
			t.Errorf("report %s has empty content", report.ReportType)
		}
		types[report.ReportType] = true
	}
	for _, want := range []string{models.ReportTypeExecutive, models.ReportTypeConfidence, models.ReportTypeDetailed} {
		if !types[want] {
			t.Errorf("missing report type %s", want)
		}
	}

	calls := notifier.snapshot()
	if len(calls) != 1 {
		t.Fatalf("notification calls = %d, want 1", len(calls))
	}
	if calls[0].isError {
		t.Error("success run sent a failure notification")
	}
	if calls[0].confidenceLabel != "Medium (70%)" {
		t.Errorf("confidence label = %q", calls[0].confidenceLabel)
	}

	if done.Result == nil {
		t.Fatal("task result not recorded")
	}
	if len(done.Result.ReportsGenerated) != 3 {
		t.Errorf("ReportsGenerated = %v", done.Result.ReportsGenerated)
	}
	if done.Result.NetWorth != 500000 {
		t.Errorf("NetWorth = %v, want 500000", done.Result.NetWorth)
	}

	cache.mu.Lock()
	stored := len(cache.stored)
	cache.mu.Unlock()
	if stored != 1 {
		t.Errorf("cached results = %d, want 1", stored)
	}
}

func TestWorker_FailurePath(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	analyzer := &fakeAnalyzer{err: errors.New("reasoning backend unavailable")}
	worker, tasks := newTestWorker(analyzer, store, notifier, nil)

	task, err := worker.Submit(testAnalysisRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	done := waitForTerminal(t, tasks, task.ID)
	if done.Status != models.TaskStatusFailed {
		t.Fatalf("task status = %s, want failed", done.Status)
	}
	if done.Error == "" {
		t.Error("task error not recorded")
	}

	statuses, saves := store.snapshot()
	if len(saves) != 0 {
		t.Errorf("reports persisted on a failed run: %d saves", len(saves))
	}
	if len(statuses) != 2 || statuses[1] != models.CaseStatusFailed {
		t.Errorf("statuses = %v, want [analysis_running analysis_failed]", statuses)
	}

	calls := notifier.snapshot()
	if len(calls) != 1 {
		t.Fatalf("notification calls = %d, want 1", len(calls))
	}
	if !calls[0].isError {
		t.Error("failure run sent a success notification")
	}
	if calls[0].confidenceLabel != models.ConfidenceNotApplicable {
		t.Errorf("confidence label = %q, want N/A", calls[0].confidenceLabel)
	}
	if calls[0].hasPDF {
		t.Error("failure notification carried a PDF attachment")
	}
}

func TestWorker_RejectsDuplicateActiveCase(t *testing.T) {
	store := &fakeStore{}
	analyzer := &fakeAnalyzer{output: sampleOutput(), block: make(chan struct{})}
	worker, tasks := newTestWorker(analyzer, store, &fakeNotifier{}, nil)

	first, err := worker.Submit(testAnalysisRequest())
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	if _, err := worker.Submit(testAnalysisRequest()); err == nil {
		t.Error("duplicate trigger accepted while first run is active")
	}

	close(analyzer.block)
	waitForTerminal(t, tasks, first.ID)

	// Once the first run is terminal, a new trigger is accepted again.
	if _, err := worker.Submit(testAnalysisRequest()); err != nil {
		t.Errorf("re-trigger after completion rejected: %v", err)
	}
}

func TestTaskService_Lifecycle(t *testing.T) {
	tasks := NewTaskService()

	task, err := tasks.CreateTask(testAnalysisRequest())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("new task status = %s, want pending", task.Status)
	}
	if !tasks.HasActiveTaskForCase(7) {
		t.Error("pending task not reported as active")
	}

	if err := tasks.UpdateTaskStatus(task.ID, models.TaskStatusProcessing); err != nil {
		t.Fatalf("UpdateTaskStatus failed: %v", err)
	}
	if !tasks.HasActiveTaskForCase(7) {
		t.Error("processing task not reported as active")
	}

	if err := tasks.SetTaskResult(task.ID, &models.AnalysisResult{CaseID: 7}); err != nil {
		t.Fatalf("SetTaskResult failed: %v", err)
	}
	if tasks.HasActiveTaskForCase(7) {
		t.Error("completed task still reported as active")
	}

	if _, err := tasks.GetTask("missing"); err == nil {
		t.Error("expected error for unknown task id")
	}
}

func TestTaskService_CleanupExpired(t *testing.T) {
	tasks := NewTaskService()

	done, _ := tasks.CreateTask(testAnalysisRequest())
	if err := tasks.SetTaskError(done.ID, errors.New("boom")); err != nil {
		t.Fatalf("SetTaskError failed: %v", err)
	}
	// Age the terminal task past the retention window.
	done.UpdatedAt = time.Now().Add(-2 * time.Hour)

	active, _ := tasks.CreateTask(testAnalysisRequest())
	active.UpdatedAt = time.Now().Add(-2 * time.Hour)

	removed := tasks.CleanupExpired(time.Hour)
	if removed != 1 {
		t.Errorf("removed = %d, want 1 (non-terminal tasks are retained)", removed)
	}
	if _, err := tasks.GetTask(done.ID); err == nil {
		t.Error("expired terminal task still present")
	}
	if _, err := tasks.GetTask(active.ID); err != nil {
		t.Error("pending task removed by retention sweep")
	}
}
