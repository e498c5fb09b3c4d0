package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"print-order-system/apperr"
	"print-order-system/models"

	"go.temporal.io/sdk/activity"
)

// VendorActivities talks to the vendor fulfillment API.
// Every call is a single attempt; failures come back as a VendorResult
// status code, never as an activity error.
type VendorActivities struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewVendorActivities creates a new VendorActivities instance
func NewVendorActivities(baseURL, apiKey string, opts ...Option) *VendorActivities {
	o := newOptions(opts)
	return &VendorActivities{
		httpClient: o.httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// CheckStock asks the vendor for a delivery estimate without ordering
func (v *VendorActivities) CheckStock(ctx context.Context, isbn string) (models.VendorResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Checking vendor stock", "isbn", isbn)

	params := url.Values{}
	params.Set("apiKey", v.apiKey)
	params.Set("ISBN", isbn)

	result := v.call(ctx, "stockcheck", params)
	logger.Info("Vendor stock check finished", "isbn", isbn, "status", result.StatusCode, "code", result.Body.Code)
	return result, nil
}

// PlaceOrder orders a single copy of isbn from the vendor
func (v *VendorActivities) PlaceOrder(ctx context.Context, isbn string) (models.VendorResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Placing vendor order", "isbn", isbn)

	params := url.Values{}
	params.Set("apiKey", v.apiKey)
	params.Set("ISBN", isbn)
	params.Set("Quantity", "1")
	params.Set("Dupeover", "false")

	result := v.call(ctx, "order", params)
	logger.Info("Vendor order finished", "isbn", isbn, "status", result.StatusCode,
		"code", result.Body.Code, "order_number", result.Body.OrderNumber)
	return result, nil
}

func (v *VendorActivities) call(ctx context.Context, path string, params url.Values) models.VendorResult {
	logger := activity.GetLogger(ctx)

	endpoint := fmt.Sprintf("%s/%s?%s", v.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Error("Failed to create vendor request", "path", path, "error", err)
		return models.VendorResult{StatusCode: http.StatusBadRequest}
	}
	req.Header.Set("Accept", "application/json")

	activity.RecordHeartbeat(ctx, "calling vendor "+path)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		transportErr := apperr.NewTransportError("vendor "+path, err)
		logger.Error("Vendor call failed", "path", path, "timeout", transportErr.Timeout(), "error", transportErr)
		return models.VendorResult{StatusCode: apperr.Code(transportErr)}
	}
	defer resp.Body.Close()

	result := models.VendorResult{StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		return result
	}

	if err := json.NewDecoder(resp.Body).Decode(&result.Body); err != nil {
		logger.Error("Failed to decode vendor response", "path", path, "error", err)
		return models.VendorResult{StatusCode: http.StatusBadGateway}
	}
	return result
}
