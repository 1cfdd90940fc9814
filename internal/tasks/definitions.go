package tasks

import (
	"bnpl_backend_echo/internal/services"
)

// DefineTasks registers all available tasks
func DefineTasks(batch *services.BatchService, lifecycle *services.LifecycleService) {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register settlement tasks
	accrualTask := NewBatchAccrualTask(batch)
	RegisterHandler(accrualTask.TaskID(), accrualTask.HandleExecution)

	defaultSweep := NewDefaultSweepTask(lifecycle)
	RegisterHandler(defaultSweep.TaskID(), defaultSweep.HandleExecution)
}
