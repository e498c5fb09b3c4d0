package activities

import (
	"context"
	"net/http"
	"time"

	"print-order-system/apperr"
	"print-order-system/models"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// RecordActivities persists submitted orders to the order datastore
type RecordActivities struct {
	httpClient *http.Client
	endpoint   string
	token      string
	now        func() time.Time
}

// NewRecordActivities creates a new RecordActivities instance
func NewRecordActivities(endpoint, token string, opts ...Option) *RecordActivities {
	o := newOptions(opts)
	return &RecordActivities{
		httpClient: o.httpClient,
		endpoint:   endpoint,
		token:      token,
		now:        o.now,
	}
}

// RecordOrder stores order with a creation timestamp. submissionID is sent
// as the idempotency key so the datastore can drop a replayed record.
func (r *RecordActivities) RecordOrder(ctx context.Context, submissionID, idKey string, order models.OrderRequest) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Recording order", "submission_id", submissionID, "isbn", order.ISBN)

	record := models.OrderRecord{
		SubmissionID: submissionID,
		IDKey:        idKey,
		OrderRequest: order,
		Created:      r.now().UTC().Format(time.RFC3339),
	}
	header := http.Header{}
	header.Set("Idempotency-Key", submissionID)

	activity.RecordHeartbeat(ctx, "calling datastore")

	if err := postJSON(ctx, r.httpClient, r.endpoint, r.token, record, header); err != nil {
		recordErr := apperr.NewTransportError("record order", err)
		logger.Error("Failed to record order", "submission_id", submissionID, "error", recordErr)
		return temporal.NewNonRetryableApplicationError(recordErr.Error(), apperr.TypePersistenceFailed, recordErr)
	}

	logger.Info("Order recorded", "submission_id", submissionID)
	return nil
}
