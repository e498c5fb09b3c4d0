package workflows

import (
	"net/http"
	"strconv"
	"strings"

	"print-order-system/activities"
	"print-order-system/apperr"
	"print-order-system/models"

	"go.temporal.io/sdk/workflow"
)

// DeliveryInfoWorkflow asks the vendor for a delivery estimate and returns
// it together with the estimate quoted to patrons.
func DeliveryInfoWorkflow(ctx workflow.Context, caller models.Caller, idKey string, isbn string) (models.DeliveryInfoResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("DeliveryInfoWorkflow started", "id_key", idKey, "isbn", isbn)

	if err := caller.Authorize(idKey); err != nil {
		logger.Warn("Delivery info request rejected", "error", err)
		return models.NewDeliveryInfoResult(apperr.Code(err), MessageNotAuthorized), nil
	}

	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		err := apperr.NewValueIsRequiredError("isbn")
		return models.NewDeliveryInfoResult(apperr.Code(err), err.Error()), nil
	}

	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	var vendor *activities.VendorActivities

	var stock models.VendorResult
	if err := workflow.ExecuteActivity(ctx, vendor.CheckStock, isbn).Get(ctx, &stock); err != nil {
		logger.Error("Vendor stock check activity failed", "isbn", isbn, "error", err)
		return models.NewDeliveryInfoResult(http.StatusInternalServerError, MessageVendorUnavailable), nil
	}

	if !stock.StockAvailable() {
		logger.Warn("Vendor stock check unsuccessful", "isbn", isbn,
			"status", stock.StatusCode, "code", stock.Body.Code, "message", stock.Body.Message)
		message := stock.Body.Message
		if message == "" {
			message = MessageVendorUnavailable
		}
		return models.NewDeliveryInfoResult(stock.FailureCode(), message), nil
	}

	days, err := strconv.Atoi(strings.TrimSpace(stock.Body.DeliveryDays))
	if err != nil {
		logger.Error("Vendor returned unreadable delivery days", "isbn", isbn,
			"delivery_days", stock.Body.DeliveryDays, "error", err)
		return models.NewDeliveryInfoResult(http.StatusBadGateway, MessageVendorUnavailable), nil
	}

	result := models.DeliveryInfoResult{
		Code:                 0,
		Message:              stock.Body.Message,
		DeliveryDays:         days,
		DeliveryDaysAdjusted: models.AdjustDeliveryDays(days),
	}
	logger.Info("DeliveryInfoWorkflow completed", "isbn", isbn,
		"delivery_days", result.DeliveryDays, "delivery_days_adjusted", result.DeliveryDaysAdjusted)
	return result, nil
}
