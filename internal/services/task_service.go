package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
	"github.com/autosolutionsai-didac/Falcon/internal/utils"
)

// TaskService manages the in-memory analysis task registry
type TaskService struct {
	tasks map[string]*models.AnalysisTask
	mutex sync.RWMutex
}

// NewTaskService creates a new task service
func NewTaskService() *TaskService {
	return &TaskService{
		tasks: make(map[string]*models.AnalysisTask),
	}
}

// CreateTask creates a new task and returns it
func (s *TaskService) CreateTask(request models.AnalysisRequest) (*models.AnalysisTask, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	taskID := utils.GenerateUUID()
	now := time.Now()

	task := &models.AnalysisTask{
		ID:        taskID,
		Status:    models.TaskStatusPending,
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.tasks[taskID] = task
	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(taskID string) (*models.AnalysisTask, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}

	return task, nil
}

// UpdateTaskStatus updates the status of a task
func (s *TaskService) UpdateTaskStatus(taskID string, status models.TaskStatus) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("task not found: %s", taskID)
	}

	task.Status = status
	task.UpdatedAt = time.Now()
	return nil
}

// SetTaskError marks a task as failed with an error message
func (s *TaskService) SetTaskError(taskID string, err error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("task not found: %s", taskID)
	}

	task.Status = models.TaskStatusFailed
	task.Error = err.Error()
	task.UpdatedAt = time.Now()
	return nil
}

// SetTaskResult stores the completed result in a task
func (s *TaskService) SetTaskResult(taskID string, result *models.AnalysisResult) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("task not found: %s", taskID)
	}

	task.Status = models.TaskStatusCompleted
	task.Result = result
	task.UpdatedAt = time.Now()
	return nil
}

// DeleteTask removes a task from memory
func (s *TaskService) DeleteTask(taskID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.tasks, taskID)
}

// HasActiveTaskForCase reports whether a pending or processing task
// already exists for the case. The API uses this to reject duplicate
// triggers; only one analysis per case may be active at a time.
func (s *TaskService) HasActiveTaskForCase(caseID uint) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, task := range s.tasks {
		if task.Request.CaseID == caseID &&
			(task.Status == models.TaskStatusPending || task.Status == models.TaskStatusProcessing) {
			return true
		}
	}
	return false
}

// CleanupExpired drops terminal tasks older than the retention window
// and returns how many were removed.
func (s *TaskService) CleanupExpired(retention time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().Add(-retention)
	removed := 0
	for id, task := range s.tasks {
		terminal := task.Status == models.TaskStatusCompleted || task.Status == models.TaskStatusFailed
		if terminal && task.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// StartRetentionSweep schedules an hourly cleanup of expired terminal
// tasks. The returned cron is already started.
func (s *TaskService) StartRetentionSweep(retention time.Duration) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		if removed := s.CleanupExpired(retention); removed > 0 {
			log.Printf("Task retention sweep removed %d expired tasks", removed)
		}
	})
	if err != nil {
		log.Printf("ERROR: failed to schedule task retention sweep: %v", err)
		return c
	}
	c.Start()
	return c
}
