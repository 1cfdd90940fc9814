package tasks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
	"bnpl_backend_echo/internal/services"
)

// BatchAccrualTaskDef runs the late-interest accrual pipeline over all
// active plans. Scheduled as a recurring task (FREQ=DAILY) so every
// business day gets exactly one accrual pass; re-running the same day
// is a no-op thanks to the engine's idempotency gate.
type BatchAccrualTaskDef struct {
	batch *services.BatchService
}

func NewBatchAccrualTask(batch *services.BatchService) *BatchAccrualTaskDef {
	return &BatchAccrualTaskDef{batch: batch}
}

// TaskID returns the unique identifier for this task
func (t *BatchAccrualTaskDef) TaskID() string {
	return "run_batch_accrual"
}

// HandleExecution runs one batch accrual invocation
func (t *BatchAccrualTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	asOf := time.Now()
	if raw, ok := task.Arguments["as_of_date"].(string); ok && raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, services.BusinessLocation())
		if err != nil {
			return nil, fmt.Errorf("invalid as_of_date %q: %w", raw, err)
		}
		asOf = parsed
	}

	summaries, err := t.batch.RunBatchAccrual(ctx, asOf)
	if err != nil {
		return nil, err
	}

	interestCount := 0
	overpaymentCount := 0
	for _, s := range summaries {
		if s.InterestApplied {
			interestCount++
		}
		if s.OverpaymentApplied {
			overpaymentCount++
		}
	}

	return map[string]interface{}{
		"status":              "success",
		"plans_processed":     len(summaries),
		"interest_applied":    interestCount,
		"overpayment_applied": overpaymentCount,
	}, nil
}
