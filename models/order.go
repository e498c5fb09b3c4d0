package models

import (
	"errors"
	"strings"

	"print-order-system/apperr"
)

// DeliveryType selects how an order is fulfilled
type DeliveryType string

const (
	DeliveryRegular DeliveryType = "regular"
	DeliveryRush    DeliveryType = "rush"
)

// Valid reports whether d is one of the known delivery types
func (d DeliveryType) Valid() bool {
	return d == DeliveryRegular || d == DeliveryRush
}

// OrderForm is the order as submitted by the requester, before validation.
// The delivery day counts are pointers so a missing value can be told apart
// from zero.
type OrderForm struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Department           string `json:"department"`
	Affiliation          string `json:"affiliation"`
	Title                string `json:"title"`
	Author               string `json:"author"`
	ISBN                 string `json:"isbn"`
	DeliveryDays         *int   `json:"delivery_days"`
	DeliveryDaysAdjusted *int   `json:"delivery_days_adjusted"`
	DeliveryType         string `json:"delivery_type"`
}

// OrderRequest is a validated order
type OrderRequest struct {
	FirstName            string       `json:"first_name"`
	LastName             string       `json:"last_name"`
	Email                string       `json:"email"`
	Department           string       `json:"department"`
	Affiliation          string       `json:"affiliation"`
	Title                string       `json:"title"`
	Author               string       `json:"author"`
	ISBN                 string       `json:"isbn"`
	DeliveryDays         int          `json:"delivery_days"`
	DeliveryDaysAdjusted int          `json:"delivery_days_adjusted"`
	DeliveryType         DeliveryType `json:"delivery_type"`
}

// FullName joins the patron's first and last name
func (o OrderRequest) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// Validate checks every field of the form and returns the validated order.
// The first violation found is returned as an *apperr.ValidationError.
func (f OrderForm) Validate() (OrderRequest, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"email", f.Email},
		{"department", f.Department},
		{"affiliation", f.Affiliation},
		{"title", f.Title},
		{"author", f.Author},
		{"isbn", f.ISBN},
		{"delivery_type", f.DeliveryType},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return OrderRequest{}, apperr.NewValueIsRequiredError(field.name)
		}
	}

	if f.DeliveryDays == nil {
		return OrderRequest{}, apperr.NewValueIsRequiredError("delivery_days")
	}
	if f.DeliveryDaysAdjusted == nil {
		return OrderRequest{}, apperr.NewValueIsRequiredError("delivery_days_adjusted")
	}
	if *f.DeliveryDays < 0 {
		return OrderRequest{}, apperr.NewValueIsInvalidError("delivery_days", errors.New("must not be negative"))
	}
	if *f.DeliveryDaysAdjusted < 0 {
		return OrderRequest{}, apperr.NewValueIsInvalidError("delivery_days_adjusted", errors.New("must not be negative"))
	}

	deliveryType := DeliveryType(strings.ToLower(strings.TrimSpace(f.DeliveryType)))
	if !deliveryType.Valid() {
		return OrderRequest{}, apperr.NewValueIsInvalidError("delivery_type", errors.New("must be regular or rush"))
	}

	return OrderRequest{
		FirstName:            strings.TrimSpace(f.FirstName),
		LastName:             strings.TrimSpace(f.LastName),
		Email:                strings.TrimSpace(f.Email),
		Department:           strings.TrimSpace(f.Department),
		Affiliation:          strings.TrimSpace(f.Affiliation),
		Title:                strings.TrimSpace(f.Title),
		Author:               strings.TrimSpace(f.Author),
		ISBN:                 strings.TrimSpace(f.ISBN),
		DeliveryDays:         *f.DeliveryDays,
		DeliveryDaysAdjusted: *f.DeliveryDaysAdjusted,
		DeliveryType:         deliveryType,
	}, nil
}

// SubmissionResult is returned to the caller of an order submission.
// Code 0 means success.
type SubmissionResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Caller is the identity the upstream authentication layer vouched for
type Caller struct {
	Identity string `json:"identity"`
}

// Authorize checks that the caller may act for idKey
func (c Caller) Authorize(idKey string) error {
	if c.Identity == "" || c.Identity != idKey {
		return apperr.NewAuthorizationError(c.Identity, idKey)
	}
	return nil
}

// SubmissionStage names the step an order submission is in
type SubmissionStage string

const (
	StageValidating      SubmissionStage = "VALIDATING"
	StageRecording       SubmissionStage = "RECORDING"
	StageNotifyingPatron SubmissionStage = "NOTIFYING_PATRON"
	StageRushBranch      SubmissionStage = "RUSH_BRANCH"
	StageRegularBranch   SubmissionStage = "REGULAR_BRANCH"
	StageDone            SubmissionStage = "DONE"
)

// SubmissionState represents the current state of a submission workflow
type SubmissionState struct {
	SubmissionID      string            `json:"submission_id"`
	IDKey             string            `json:"id_key"`
	Stage             SubmissionStage   `json:"stage"`
	Recorded          bool              `json:"recorded"`
	PatronNotified    bool              `json:"patron_notified"`
	VendorOrdered     bool              `json:"vendor_ordered"`
	VendorOrderNumber string            `json:"vendor_order_number,omitempty"`
	StaffNotified     bool              `json:"staff_notified"`
	LastError         string            `json:"last_error,omitempty"`
	Result            *SubmissionResult `json:"result,omitempty"`
}
