package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bnpl_backend_echo/internal/services"
)

// errorResponse is the JSON body every failed request gets
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CustomErrorHandler translates the business error taxonomy into HTTP
// responses. Concurrency conflicts get their own code so clients can
// tell "re-read and retry" apart from "your request is wrong".
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	resp := errorResponse{Code: "internal_error", Message: "something went wrong"}

	var httpErr *echo.HTTPError
	var transitionErr *services.TransitionError
	var batchErr *services.BatchError

	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		resp.Code = "bad_request"
		if status >= http.StatusInternalServerError {
			resp.Code = "internal_error"
		}
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			resp.Message = msg
		} else {
			resp.Message = http.StatusText(status)
		}

	case errors.Is(err, services.ErrInvalidAmount):
		status = http.StatusBadRequest
		resp = errorResponse{Code: "invalid_amount", Message: err.Error()}

	case errors.Is(err, services.ErrInvalidPlanType):
		status = http.StatusBadRequest
		resp = errorResponse{Code: "invalid_plan_type", Message: err.Error()}

	case errors.Is(err, services.ErrPlanNotFound),
		errors.Is(err, services.ErrInstallmentNotFound),
		errors.Is(err, services.ErrPlanTypeNotFound),
		errors.Is(err, services.ErrSnapshotNotFound):
		status = http.StatusNotFound
		resp = errorResponse{Code: "not_found", Message: err.Error()}

	case errors.Is(err, services.ErrEmptyLedger):
		status = http.StatusUnprocessableEntity
		resp = errorResponse{Code: "empty_ledger", Message: err.Error()}

	case errors.As(err, &transitionErr):
		status = http.StatusConflict
		resp = errorResponse{Code: "state_conflict", Message: transitionErr.Error()}

	case errors.Is(err, services.ErrVersionConflict):
		status = http.StatusConflict
		resp = errorResponse{Code: "version_conflict", Message: err.Error()}

	case errors.Is(err, services.ErrBatchInProgress):
		status = http.StatusConflict
		resp = errorResponse{Code: "batch_in_progress", Message: err.Error()}

	case errors.As(err, &batchErr):
		status = http.StatusInternalServerError
		resp = errorResponse{Code: "batch_failed", Message: batchErr.Error()}
	}

	c.Logger().Error(err)

	if jsonErr := c.JSON(status, map[string]errorResponse{"error": resp}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
