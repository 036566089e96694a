package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"pricewatch/models"
)

// PriceCheckFunc runs one price check
type PriceCheckFunc func(ctx context.Context, rawURL string, userPrice *float64) *models.ValidatedOutcome

// TaskManager runs async price checks on a fixed pool of workers
type TaskManager struct {
	tasks          map[string]*models.PriceCheckTask
	taskQueue      chan *models.PriceCheckTask
	maxWorkers     int
	activeWorkers  int
	priceCheckFunc PriceCheckFunc
	checkTimeout   time.Duration
	retention      time.Duration
	mutex          sync.RWMutex
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
}

// NewTaskManager creates a task manager and starts its workers
func NewTaskManager(priceCheckFunc PriceCheckFunc, maxWorkers int, checkTimeout, retention time.Duration) *TaskManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	tm := &TaskManager{
		tasks:          make(map[string]*models.PriceCheckTask),
		taskQueue:      make(chan *models.PriceCheckTask, 100), // Buffer for 100 tasks
		maxWorkers:     maxWorkers,
		priceCheckFunc: priceCheckFunc,
		checkTimeout:   checkTimeout,
		retention:      retention,
		stopChan:       make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		tm.wg.Add(1)
		go tm.worker()
	}
	go tm.cleanupLoop()

	log.Printf("🚀 Task manager started with %d workers", maxWorkers)
	return tm
}

// SubmitTask queues a price check and returns its task
func (tm *TaskManager) SubmitTask(req models.CheckPriceRequest) *models.PriceCheckTask {
	task := models.NewPriceCheckTask(req)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("📝 Task %s submitted for %s", task.ID, req.URL)
	default:
		task.Fail("Task queue is full")
		log.Printf("❌ Failed to submit task %s - queue full", task.ID)
	}

	return task
}

// GetTask returns a task by ID
func (tm *TaskManager) GetTask(taskID string) (*models.PriceCheckTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	task, exists := tm.tasks[taskID]
	return task, exists
}

// CleanupOldTasks removes finished tasks older than maxAge
func (tm *TaskManager) CleanupOldTasks(maxAge time.Duration) int {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for taskID, task := range tm.tasks {
		view := task.Snapshot()
		if task.IsCompleted() && view.CompletedAt != nil && view.CompletedAt.Before(cutoff) {
			delete(tm.tasks, taskID)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 Cleaned up %d old tasks", removed)
	}
	return removed
}

func (tm *TaskManager) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tm.CleanupOldTasks(tm.retention)
		case <-tm.stopChan:
			return
		}
	}
}

func (tm *TaskManager) worker() {
	defer tm.wg.Done()

	for {
		select {
		case task := <-tm.taskQueue:
			tm.run(task)
		case <-tm.stopChan:
			return
		}
	}
}

// run processes a single task
func (tm *TaskManager) run(task *models.PriceCheckTask) {
	tm.setActive(1)
	defer tm.setActive(-1)

	req := task.Snapshot().Request
	log.Printf("👷 Worker started processing task %s for %s", task.ID, req.URL)
	task.Start()

	ctx := context.Background()
	if tm.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tm.checkTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 Task %s panicked: %v", task.ID, r)
			task.Fail("Price check failed unexpectedly")
		}
	}()

	result := tm.priceCheckFunc(ctx, req.URL, req.UserPrice)
	if result == nil {
		task.Fail("No result from price check")
		return
	}

	task.Complete(result)
	log.Printf("✅ Task %s completed (%s) in %v", task.ID, result.Source, task.Duration())
}

func (tm *TaskManager) setActive(delta int) {
	tm.mutex.Lock()
	tm.activeWorkers += delta
	tm.mutex.Unlock()
}

// Stop stops the workers and waits for running checks to finish
func (tm *TaskManager) Stop() {
	tm.stopOnce.Do(func() {
		log.Println("🛑 Task manager stopping...")
		close(tm.stopChan)
		tm.wg.Wait()
		log.Println("🛑 Task manager stopped")
	})
}

// GetStats returns task manager statistics
func (tm *TaskManager) GetStats() map[string]interface{} {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	stats := map[string]interface{}{
		"total_tasks":    len(tm.tasks),
		"active_workers": tm.activeWorkers,
		"max_workers":    tm.maxWorkers,
		"queue_size":     len(tm.taskQueue),
	}

	// Count tasks by status
	statusCounts := make(map[string]int)
	for _, task := range tm.tasks {
		statusCounts[string(task.CurrentStatus())]++
	}
	stats["tasks_by_status"] = statusCounts

	return stats
}
