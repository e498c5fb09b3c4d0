package workflows

import (
	"errors"
	"net/http"
	"time"

	"print-order-system/activities"
	"print-order-system/apperr"
	"print-order-system/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QuerySubmissionState = "submission-state"

	MessageNotAuthorized     = "Not authorized to submit orders for this account"
	MessageOrderReceived     = "Your order has been received"
	MessageStaffUnreachable  = "Unable to notify library staff"
	MessageVendorUnavailable = "Unable to retrieve delivery information"
)

// activityOptions allow exactly one attempt per external call. The HTTP
// client gives up first; StartToClose only guards against a stuck worker.
func activityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: activities.ConnectTimeout + activities.ReadTimeout + 10*time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}

// SubmitOrderWorkflow records a print-on-demand order, notifies the patron,
// and either hands a rush order to staff or places a regular order with the
// vendor. It always completes with a SubmissionResult; the only outcome
// surfaced as a failure is one where staff could not be told about the order.
func SubmitOrderWorkflow(ctx workflow.Context, caller models.Caller, idKey string, form models.OrderForm) (models.SubmissionResult, error) {
	logger := workflow.GetLogger(ctx)
	submissionID := workflow.GetInfo(ctx).WorkflowExecution.ID
	logger.Info("SubmitOrderWorkflow started", "submission_id", submissionID, "id_key", idKey)

	state := models.SubmissionState{
		SubmissionID: submissionID,
		IDKey:        idKey,
		Stage:        models.StageValidating,
	}
	err := workflow.SetQueryHandler(ctx, QuerySubmissionState, func() (models.SubmissionState, error) {
		return state, nil
	})
	if err != nil {
		return models.SubmissionResult{}, err
	}

	finish := func(result models.SubmissionResult) (models.SubmissionResult, error) {
		state.Stage = models.StageDone
		state.Result = &result
		logger.Info("SubmitOrderWorkflow completed", "submission_id", submissionID, "code", result.Code)
		return result, nil
	}

	// Validating
	if err := caller.Authorize(idKey); err != nil {
		logger.Warn("Order submission rejected", "submission_id", submissionID, "error", err)
		state.LastError = err.Error()
		return finish(models.SubmissionResult{Code: apperr.Code(err), Message: MessageNotAuthorized})
	}
	order, err := form.Validate()
	if err != nil {
		logger.Warn("Order validation failed", "submission_id", submissionID, "error", err)
		state.LastError = err.Error()
		return finish(models.SubmissionResult{Code: apperr.Code(err), Message: err.Error()})
	}

	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	var (
		vendor   *activities.VendorActivities
		notifier *activities.NotifyActivities
		recorder *activities.RecordActivities
	)
	notify := func(purpose models.NotificationPurpose) error {
		err := workflow.ExecuteActivity(ctx, notifier.SendNotification, purpose, order).Get(ctx, nil)
		if err != nil {
			logger.Error("Notification failed", "submission_id", submissionID, "purpose", purpose,
				"type", failureType(err), "error", err)
			state.LastError = err.Error()
		}
		return err
	}

	// Recording. A lost record is logged only; the order input survives in
	// workflow history.
	state.Stage = models.StageRecording
	err = workflow.ExecuteActivity(ctx, recorder.RecordOrder, submissionID, idKey, order).Get(ctx, nil)
	if err != nil {
		logger.Error("Failed to record order", "submission_id", submissionID, "type", failureType(err), "error", err)
		state.LastError = err.Error()
	} else {
		state.Recorded = true
	}

	// NotifyingPatron
	state.Stage = models.StageNotifyingPatron
	state.PatronNotified = notify(models.PurposePatronConfirmation) == nil

	if order.DeliveryType == models.DeliveryRush {
		// Rush orders are fulfilled by hand; the staff email is the only
		// thing that gets them done.
		state.Stage = models.StageRushBranch
		if err := notify(models.PurposeStaffRushOrder); err != nil {
			return finish(models.SubmissionResult{Code: http.StatusInternalServerError, Message: MessageStaffUnreachable})
		}
		state.StaffNotified = true
		return finish(models.SubmissionResult{Code: 0, Message: MessageOrderReceived})
	}

	state.Stage = models.StageRegularBranch
	var placed models.VendorResult
	if err := workflow.ExecuteActivity(ctx, vendor.PlaceOrder, order.ISBN).Get(ctx, &placed); err != nil {
		logger.Error("Vendor order activity failed", "submission_id", submissionID, "error", err)
		placed = models.VendorResult{StatusCode: http.StatusInternalServerError}
	}

	if placed.OrderPlaced() {
		state.VendorOrdered = true
		state.VendorOrderNumber = placed.Body.OrderNumber
		result := models.SubmissionResult{Code: 0, Message: placed.Body.Message}
		state.StaffNotified = notify(models.PurposeStaffRegularOrder) == nil
		return finish(result)
	}

	// The vendor failure is not reported to the patron, who would otherwise
	// resubmit and risk a double order. Staff follow up by hand.
	logger.Warn("Vendor rejected order", "submission_id", submissionID, "isbn", order.ISBN,
		"status", placed.StatusCode, "code", placed.Body.Code, "message", placed.Body.Message)
	if err := notify(models.PurposeStaffErrorOrder); err != nil {
		return finish(models.SubmissionResult{Code: http.StatusInternalServerError, Message: MessageStaffUnreachable})
	}
	state.StaffNotified = true
	return finish(models.SubmissionResult{Code: 0, Message: MessageOrderReceived})
}

func failureType(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type()
	}
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "Timeout"
	}
	return ""
}
