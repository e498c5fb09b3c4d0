// Package dispatch starts the order workflows on the task queue and waits
// for their results. It is the only place that knows workflow ids and
// start options.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"print-order-system/apperr"
	"print-order-system/models"
	"print-order-system/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
)

const (
	SubmitWorkflowPrefix   = "submit-order-"
	DeliveryWorkflowPrefix = "delivery-info-"

	// Upper bound for one submission: four sequential calls, each bounded
	// by the activity StartToClose timeout.
	submitExecutionTimeout   = 5 * time.Minute
	deliveryExecutionTimeout = 2 * time.Minute
)

// WorkflowClient is the part of client.Client the dispatcher needs
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Dispatcher runs order workflows on behalf of authenticated callers
type Dispatcher struct {
	client    WorkflowClient
	taskQueue string
	logger    *slog.Logger
}

func New(c WorkflowClient, taskQueue string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger.With("component", "dispatcher"),
	}
}

// Submission is the outcome of a submitted order together with its id
type Submission struct {
	SubmissionID string                  `json:"submission_id"`
	Result       models.SubmissionResult `json:"result"`
}

// SubmitOrder runs SubmitOrderWorkflow and waits for it. submissionID may be
// empty, in which case a new one is generated; reusing an id is rejected
// with apperr.ErrDuplicateSubmission so a retried request cannot order twice.
func (d *Dispatcher) SubmitOrder(ctx context.Context, caller models.Caller, idKey, submissionID string, form models.OrderForm) (Submission, error) {
	if submissionID == "" {
		submissionID = uuid.New().String()
	} else if _, err := uuid.Parse(submissionID); err != nil {
		return Submission{}, apperr.NewValueIsInvalidError("submission_id", err)
	}

	options := client.StartWorkflowOptions{
		ID:                                       SubmitWorkflowPrefix + submissionID,
		TaskQueue:                                d.taskQueue,
		WorkflowExecutionTimeout:                 submitExecutionTimeout,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}

	d.logger.InfoContext(ctx, "Starting order submission", "workflow_id", options.ID, "id_key", idKey)
	run, err := d.client.ExecuteWorkflow(ctx, options, workflows.SubmitOrderWorkflow, caller, idKey, form)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return Submission{}, fmt.Errorf("submission %s: %w", submissionID, apperr.ErrDuplicateSubmission)
		}
		return Submission{}, fmt.Errorf("failed to start order submission: %w", err)
	}

	var result models.SubmissionResult
	if err := run.Get(ctx, &result); err != nil {
		return Submission{}, fmt.Errorf("order submission %s did not complete: %w", submissionID, err)
	}

	d.logger.InfoContext(ctx, "Order submission finished", "workflow_id", options.ID, "code", result.Code)
	return Submission{SubmissionID: submissionID, Result: result}, nil
}

// DeliveryInfo runs DeliveryInfoWorkflow and waits for it
func (d *Dispatcher) DeliveryInfo(ctx context.Context, caller models.Caller, idKey, isbn string) (models.DeliveryInfoResult, error) {
	options := client.StartWorkflowOptions{
		ID:                       DeliveryWorkflowPrefix + uuid.New().String(),
		TaskQueue:                d.taskQueue,
		WorkflowExecutionTimeout: deliveryExecutionTimeout,
	}

	run, err := d.client.ExecuteWorkflow(ctx, options, workflows.DeliveryInfoWorkflow, caller, idKey, isbn)
	if err != nil {
		return models.DeliveryInfoResult{}, fmt.Errorf("failed to start delivery info lookup: %w", err)
	}

	var result models.DeliveryInfoResult
	if err := run.Get(ctx, &result); err != nil {
		return models.DeliveryInfoResult{}, fmt.Errorf("delivery info lookup did not complete: %w", err)
	}
	return result, nil
}

// SubmissionState queries a submission's progress. Only the caller that
// owns the submission may see it.
func (d *Dispatcher) SubmissionState(ctx context.Context, caller models.Caller, submissionID string) (models.SubmissionState, error) {
	resp, err := d.client.QueryWorkflow(ctx, SubmitWorkflowPrefix+submissionID, "", workflows.QuerySubmissionState)
	if err != nil {
		return models.SubmissionState{}, fmt.Errorf("failed to query submission %s: %w", submissionID, err)
	}

	var state models.SubmissionState
	if err := resp.Get(&state); err != nil {
		return models.SubmissionState{}, fmt.Errorf("failed to decode submission state: %w", err)
	}

	if err := caller.Authorize(state.IDKey); err != nil {
		return models.SubmissionState{}, err
	}
	return state, nil
}
