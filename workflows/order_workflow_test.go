package workflows_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"print-order-system/activities"
	"print-order-system/apperr"
	"print-order-system/models"
	"print-order-system/workflows"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

var (
	vendor   *activities.VendorActivities
	notifier *activities.NotifyActivities
	recorder *activities.RecordActivities
)

var (
	errEmailDown  = errors.New("email service unavailable")
	errRecordDown = errors.New("datastore unavailable")
)

func intPtr(v int) *int { return &v }

func validForm(deliveryType string) models.OrderForm {
	return models.OrderForm{
		FirstName:            "Ada",
		LastName:             "Lovelace",
		Email:                "ada@example.edu",
		Department:           "Mathematics",
		Affiliation:          "Faculty",
		Title:                "Sketch of the Analytical Engine",
		Author:               "L. F. Menabrea",
		ISBN:                 "9780000000001",
		DeliveryDays:         intPtr(14),
		DeliveryDaysAdjusted: intPtr(32),
		DeliveryType:         deliveryType,
	}
}

func newTestEnv() *testsuite.TestWorkflowEnvironment {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.SubmitOrderWorkflow)
	env.RegisterWorkflow(workflows.DeliveryInfoWorkflow)
	env.RegisterActivity(&activities.VendorActivities{})
	env.RegisterActivity(&activities.NotifyActivities{})
	env.RegisterActivity(&activities.RecordActivities{})
	return env
}

// outcomes sets what each collaborator answers. A nil map entry means the
// notification succeeds.
type outcomes struct {
	recordErr error
	notifyErr map[models.NotificationPurpose]error
	vendor    models.VendorResult
}

func (o outcomes) mock(env *testsuite.TestWorkflowEnvironment) {
	env.OnActivity(recorder.RecordOrder, mock.Anything, mock.Anything, "ada", mock.Anything).Return(o.recordErr)
	for _, purpose := range []models.NotificationPurpose{
		models.PurposePatronConfirmation,
		models.PurposeStaffRegularOrder,
		models.PurposeStaffRushOrder,
		models.PurposeStaffErrorOrder,
	} {
		env.OnActivity(notifier.SendNotification, mock.Anything, purpose, mock.Anything).Return(o.notifyErr[purpose])
	}
	env.OnActivity(vendor.PlaceOrder, mock.Anything, "9780000000001").Return(o.vendor, nil)
}

func runSubmit(t *testing.T, env *testsuite.TestWorkflowEnvironment, identity, idKey string, form models.OrderForm) models.SubmissionResult {
	t.Helper()
	env.ExecuteWorkflow(workflows.SubmitOrderWorkflow, models.Caller{Identity: identity}, idKey, form)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result models.SubmissionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	return result
}

func vendorPlaced() models.VendorResult {
	return models.VendorResult{
		StatusCode: http.StatusOK,
		Body:       models.VendorResponse{Code: models.VendorOrderPlaced, Message: "Order accepted", OrderNumber: "PO-1"},
	}
}

func assertNoExternalCalls(t *testing.T, env *testsuite.TestWorkflowEnvironment) {
	t.Helper()
	env.AssertNumberOfCalls(t, "RecordOrder", 0)
	env.AssertNumberOfCalls(t, "SendNotification", 0)
	env.AssertNumberOfCalls(t, "PlaceOrder", 0)
}

func TestSubmitOrderWorkflow_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *models.OrderForm)
	}{
		{"Missing First Name", func(f *models.OrderForm) { f.FirstName = "" }},
		{"Missing Email", func(f *models.OrderForm) { f.Email = "" }},
		{"Missing ISBN", func(f *models.OrderForm) { f.ISBN = " " }},
		{"Missing Delivery Days", func(f *models.OrderForm) { f.DeliveryDays = nil }},
		{"Missing Delivery Type", func(f *models.OrderForm) { f.DeliveryType = "" }},
		{"Unknown Delivery Type", func(f *models.OrderForm) { f.DeliveryType = "express" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			outcomes{vendor: vendorPlaced()}.mock(env)

			form := validForm("regular")
			tt.mutate(&form)
			result := runSubmit(t, env, "ada", "ada", form)

			assert.Equal(t, http.StatusBadRequest, result.Code)
			assert.NotEmpty(t, result.Message)
			assertNoExternalCalls(t, env)
		})
	}
}

func TestSubmitOrderWorkflow_Authorization(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		idKey    string
	}{
		{"Different Identity", "grace", "ada"},
		{"Anonymous Caller", "", "ada"},
		{"Empty Identity Key", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			outcomes{vendor: vendorPlaced()}.mock(env)

			result := runSubmit(t, env, tt.identity, tt.idKey, validForm("regular"))

			assert.Equal(t, http.StatusForbidden, result.Code)
			assert.Equal(t, workflows.MessageNotAuthorized, result.Message)
			assertNoExternalCalls(t, env)
		})
	}
}

func TestSubmitOrderWorkflow_Rush(t *testing.T) {
	tests := []struct {
		name     string
		outcomes outcomes
		wantCode int
		wantMsg  string
	}{
		{
			name:     "Staff Notified",
			outcomes: outcomes{vendor: vendorPlaced()},
			wantCode: 0,
			wantMsg:  workflows.MessageOrderReceived,
		},
		{
			name: "Record And Confirmation Failures Are Absorbed",
			outcomes: outcomes{
				recordErr: errRecordDown,
				notifyErr: map[models.NotificationPurpose]error{models.PurposePatronConfirmation: errEmailDown},
				vendor:    vendorPlaced(),
			},
			wantCode: 0,
			wantMsg:  workflows.MessageOrderReceived,
		},
		{
			name: "Staff Unreachable Is Fatal",
			outcomes: outcomes{
				notifyErr: map[models.NotificationPurpose]error{models.PurposeStaffRushOrder: errEmailDown},
				vendor:    vendorPlaced(),
			},
			wantCode: http.StatusInternalServerError,
			wantMsg:  workflows.MessageStaffUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			tt.outcomes.mock(env)

			result := runSubmit(t, env, "ada", "ada", validForm("rush"))

			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.wantMsg, result.Message)
			env.AssertNumberOfCalls(t, "PlaceOrder", 0)
			env.AssertNumberOfCalls(t, "RecordOrder", 1)
			env.AssertNumberOfCalls(t, "SendNotification", 2)
			env.AssertCalled(t, "SendNotification", mock.Anything, models.PurposePatronConfirmation, mock.Anything)
			env.AssertCalled(t, "SendNotification", mock.Anything, models.PurposeStaffRushOrder, mock.Anything)
		})
	}
}

func TestSubmitOrderWorkflow_Regular(t *testing.T) {
	tests := []struct {
		name         string
		outcomes     outcomes
		wantCode     int
		wantMsg      string
		wantStaffMsg models.NotificationPurpose
	}{
		{
			name:         "Vendor Success",
			outcomes:     outcomes{vendor: vendorPlaced()},
			wantCode:     0,
			wantMsg:      "Order accepted",
			wantStaffMsg: models.PurposeStaffRegularOrder,
		},
		{
			name: "Vendor Success Staff Notice Failure Is Absorbed",
			outcomes: outcomes{
				notifyErr: map[models.NotificationPurpose]error{models.PurposeStaffRegularOrder: errEmailDown},
				vendor:    vendorPlaced(),
			},
			wantCode:     0,
			wantMsg:      "Order accepted",
			wantStaffMsg: models.PurposeStaffRegularOrder,
		},
		{
			name: "Vendor Business Failure Is Hidden",
			outcomes: outcomes{vendor: models.VendorResult{
				StatusCode: http.StatusOK,
				Body:       models.VendorResponse{Code: 3, Message: "Duplicate order"},
			}},
			wantCode:     0,
			wantMsg:      workflows.MessageOrderReceived,
			wantStaffMsg: models.PurposeStaffErrorOrder,
		},
		{
			name:         "Vendor HTTP Failure Is Hidden",
			outcomes:     outcomes{vendor: models.VendorResult{StatusCode: http.StatusServiceUnavailable}},
			wantCode:     0,
			wantMsg:      workflows.MessageOrderReceived,
			wantStaffMsg: models.PurposeStaffErrorOrder,
		},
		{
			name: "Vendor Failure And Error Notice Failure Is Fatal",
			outcomes: outcomes{
				notifyErr: map[models.NotificationPurpose]error{models.PurposeStaffErrorOrder: errEmailDown},
				vendor:    models.VendorResult{StatusCode: http.StatusBadRequest},
			},
			wantCode:     http.StatusInternalServerError,
			wantMsg:      workflows.MessageStaffUnreachable,
			wantStaffMsg: models.PurposeStaffErrorOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			tt.outcomes.mock(env)

			result := runSubmit(t, env, "ada", "ada", validForm("regular"))

			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.wantMsg, result.Message)
			env.AssertNumberOfCalls(t, "RecordOrder", 1)
			env.AssertNumberOfCalls(t, "PlaceOrder", 1)
			env.AssertNumberOfCalls(t, "SendNotification", 2)
			env.AssertCalled(t, "SendNotification", mock.Anything, models.PurposePatronConfirmation, mock.Anything)
			env.AssertCalled(t, "SendNotification", mock.Anything, tt.wantStaffMsg, mock.Anything)
		})
	}
}

func TestSubmitOrderWorkflow_EverythingTimesOut(t *testing.T) {
	env := newTestEnv()
	timeout := apperr.NewTransportError("call", context.DeadlineExceeded)
	outcomes{
		recordErr: timeout,
		notifyErr: map[models.NotificationPurpose]error{
			models.PurposePatronConfirmation: timeout,
			models.PurposeStaffRegularOrder:  timeout,
			models.PurposeStaffRushOrder:     timeout,
			models.PurposeStaffErrorOrder:    timeout,
		},
		vendor: models.VendorResult{StatusCode: http.StatusRequestTimeout},
	}.mock(env)

	result := runSubmit(t, env, "ada", "ada", validForm("regular"))

	assert.Equal(t, http.StatusInternalServerError, result.Code)
	env.AssertCalled(t, "SendNotification", mock.Anything, models.PurposeStaffErrorOrder, mock.Anything)
}

func TestSubmitOrderWorkflow_State(t *testing.T) {
	env := newTestEnv()
	outcomes{
		recordErr: errRecordDown,
		vendor:    vendorPlaced(),
	}.mock(env)

	result := runSubmit(t, env, "ada", "ada", validForm("regular"))
	require.Equal(t, 0, result.Code)

	val, err := env.QueryWorkflow(workflows.QuerySubmissionState)
	require.NoError(t, err)

	var state models.SubmissionState
	require.NoError(t, val.Get(&state))
	assert.Equal(t, models.StageDone, state.Stage)
	assert.False(t, state.Recorded)
	assert.True(t, state.PatronNotified)
	assert.True(t, state.VendorOrdered)
	assert.Equal(t, "PO-1", state.VendorOrderNumber)
	assert.True(t, state.StaffNotified)
	require.NotNil(t, state.Result)
	assert.Equal(t, result, *state.Result)
	assert.NotEmpty(t, state.LastError)
}
