package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
	"bnpl_backend_echo/internal/services"
)

// Plans whose next due date is older than this are considered abandoned
const defaultOverdueDays = 90

// DefaultSweepTaskDef marks abandoned plans as defaulted. A plan
// qualifies once its next due date is more than overdue_days behind the
// run date and nothing has been paid since.
type DefaultSweepTaskDef struct {
	lifecycle *services.LifecycleService
}

func NewDefaultSweepTask(lifecycle *services.LifecycleService) *DefaultSweepTaskDef {
	return &DefaultSweepTaskDef{lifecycle: lifecycle}
}

// TaskID returns the unique identifier for this task
func (t *DefaultSweepTaskDef) TaskID() string {
	return "mark_defaulted_plans"
}

// HandleExecution sweeps active plans past the overdue cutoff
func (t *DefaultSweepTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	overdueDays := defaultOverdueDays
	if raw, ok := task.Arguments["overdue_days"].(float64); ok && raw > 0 {
		overdueDays = int(raw)
	}

	cutoff := services.DateIn(time.Now(), services.BusinessLocation()).AddDate(0, 0, -overdueDays)

	var plans []models.Plan
	err := db.WithContext(ctx).
		Where("status = ? AND next_due_date IS NOT NULL AND next_due_date < ?", models.PlanStatusActive, cutoff).
		Order("id asc").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}

	defaulted := make([]uint, 0, len(plans))
	for _, plan := range plans {
		if _, err := t.lifecycle.MarkDefaulted(ctx, plan.ID); err != nil {
			log.Printf("[Task: mark_defaulted_plans] Plan %d not defaulted: %v", plan.ID, err)
			continue
		}
		defaulted = append(defaulted, plan.ID)
	}

	return map[string]interface{}{
		"status":       "success",
		"overdue_days": overdueDays,
		"defaulted":    defaulted,
	}, nil
}
