package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of an async task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// PriceCheckTask represents an async price check
type PriceCheckTask struct {
	mu sync.RWMutex

	ID          string            `json:"id"`
	Request     CheckPriceRequest `json:"request"`
	Status      TaskStatus        `json:"status"`
	Message     string            `json:"message"`
	Result      *ValidatedOutcome `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NewPriceCheckTask creates a queued task
func NewPriceCheckTask(req CheckPriceRequest) *PriceCheckTask {
	return &PriceCheckTask{
		ID:        "task_" + uuid.NewString(),
		Request:   req,
		Status:    TaskStatusQueued,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing
func (t *PriceCheckTask) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusProcessing
	t.Message = "Checking price..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with result
func (t *PriceCheckTask) Complete(result *ValidatedOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusCompleted
	t.Message = "Price check completed"
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed
func (t *PriceCheckTask) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusFailed
	t.Message = "Price check failed"
	t.Error = reason
	now := time.Now()
	t.CompletedAt = &now
}

// CurrentStatus returns the status under lock
func (t *PriceCheckTask) CurrentStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// IsCompleted returns true if the task is in a final state
func (t *PriceCheckTask) IsCompleted() bool {
	s := t.CurrentStatus()
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// IsActive returns true if the task is still running
func (t *PriceCheckTask) IsActive() bool {
	s := t.CurrentStatus()
	return s == TaskStatusQueued || s == TaskStatusProcessing
}

// Snapshot returns a copy safe to serialize while workers update the task
func (t *PriceCheckTask) Snapshot() PriceCheckTaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return PriceCheckTaskView{
		ID:          t.ID,
		Request:     t.Request,
		Status:      t.Status,
		Message:     t.Message,
		Result:      t.Result,
		Error:       t.Error,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}

// PriceCheckTaskView is the serializable form of a task
type PriceCheckTaskView struct {
	ID          string            `json:"id"`
	Request     CheckPriceRequest `json:"request"`
	Status      TaskStatus        `json:"status"`
	Message     string            `json:"message"`
	Result      *ValidatedOutcome `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Duration returns how long the task has been running
func (t *PriceCheckTask) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.StartedAt == nil {
		return 0
	}
	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}
	return endTime.Sub(*t.StartedAt)
}
