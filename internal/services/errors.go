package services

import (
	"errors"
	"fmt"

	"bnpl_backend_echo/internal/models"
)

// Business error taxonomy. Handlers and the error-handler middleware
// match on these with errors.Is / errors.As; none of them are swallowed
// inside the services layer.
var (
	// ErrInvalidAmount rejects a non-positive payment amount before
	// any mutation happens.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")

	// ErrPlanNotFound / ErrInstallmentNotFound / ErrPlanTypeNotFound
	// signal a missing aggregate root or collaborator record.
	ErrPlanNotFound        = errors.New("plan not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrPlanTypeNotFound    = errors.New("plan type not found")
	ErrSnapshotNotFound    = errors.New("settlement snapshot not found")

	// ErrInvalidPlanType rejects misconfigured financing terms, such
	// as an installment count below one.
	ErrInvalidPlanType = errors.New("plan type is misconfigured")

	// ErrEmptyLedger means a settlement was requested for a plan with
	// no unsettled installments, so there is nothing to quote.
	ErrEmptyLedger = errors.New("no unsettled installments to settle")

	// ErrVersionConflict is returned when an optimistic-version check
	// fails. The caller must re-read fresh state and retry; it must
	// never be treated as data corruption.
	ErrVersionConflict = errors.New("stale version, record was modified concurrently")
)

// TransitionError is the typed rejection for an illegal plan status
// transition. Kept distinct from validation errors so callers can tell
// "bad input" from "the plan is not in a state that allows this".
type TransitionError struct {
	From   models.PlanStatus
	To     models.PlanStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal plan transition %s -> %s: %s", e.From, e.To, e.Reason)
}

// BatchError wraps a single-plan failure that aborted a whole accrual
// batch. The batch transaction has already been rolled back when this
// surfaces.
type BatchError struct {
	PlanID uint
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch accrual aborted at plan %d: %v", e.PlanID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
