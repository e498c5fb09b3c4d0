package models

import (
	"net/http"
)

// Vendor-level success codes
const (
	VendorStockCheckOK = 0
	VendorOrderPlaced  = 100
)

// Delivery estimate adjustment. Estimates shorter than ShortLeadThreshold
// days are raised to MinimumAdjustedDays; longer ones are padded by
// DeliveryPaddingDays.
const (
	ShortLeadThreshold  = 5
	MinimumAdjustedDays = 18
	DeliveryPaddingDays = 18
)

// UnknownDeliveryDays marks a delivery estimate that could not be determined
const UnknownDeliveryDays = -1

// VendorResponse is the JSON body returned by the vendor API
type VendorResponse struct {
	Code    int    `json:"Code"`
	Message string `json:"Message"`
	// DeliveryDays is sent as a string and may be empty or non-numeric
	DeliveryDays string `json:"DeliveryDays,omitempty"`
	OrderNumber  string `json:"OrderNumber,omitempty"`
}

// VendorResult is the normalized outcome of one vendor API call.
// Body is only populated when StatusCode is 200.
type VendorResult struct {
	StatusCode int            `json:"status_code"`
	Body       VendorResponse `json:"body"`
}

// StockAvailable reports whether a stock-check call succeeded
func (r VendorResult) StockAvailable() bool {
	return r.StatusCode == http.StatusOK && r.Body.Code == VendorStockCheckOK
}

// OrderPlaced reports whether an order-placement call succeeded
func (r VendorResult) OrderPlaced() bool {
	return r.StatusCode == http.StatusOK && r.Body.Code == VendorOrderPlaced
}

// FailureCode is the code reported for an unsuccessful call: the HTTP status
// when the vendor did not answer 200, otherwise the vendor's own code.
func (r VendorResult) FailureCode() int {
	if r.StatusCode != http.StatusOK {
		return r.StatusCode
	}
	return r.Body.Code
}

// DeliveryInfoResult is returned to the caller of a delivery estimate lookup
type DeliveryInfoResult struct {
	Code                 int    `json:"code"`
	Message              string `json:"message"`
	DeliveryDays         int    `json:"deliveryDays"`
	DeliveryDaysAdjusted int    `json:"deliveryDaysAdjusted"`
}

// NewDeliveryInfoResult returns a result with both estimates unknown
func NewDeliveryInfoResult(code int, message string) DeliveryInfoResult {
	return DeliveryInfoResult{
		Code:                 code,
		Message:              message,
		DeliveryDays:         UnknownDeliveryDays,
		DeliveryDaysAdjusted: UnknownDeliveryDays,
	}
}

// AdjustDeliveryDays turns a vendor estimate into the estimate given to patrons
func AdjustDeliveryDays(days int) int {
	if days < ShortLeadThreshold {
		return MinimumAdjustedDays
	}
	return days + DeliveryPaddingDays
}
