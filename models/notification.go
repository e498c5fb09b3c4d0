package models

import "fmt"

// NotificationPurpose selects recipient, subject and template of an email
type NotificationPurpose string

const (
	PurposePatronConfirmation NotificationPurpose = "patron_confirmation"
	PurposeStaffRegularOrder  NotificationPurpose = "staff_regular_order"
	PurposeStaffRushOrder     NotificationPurpose = "staff_rush_order"
	PurposeStaffErrorOrder    NotificationPurpose = "staff_error_order"
)

// ErrorDeliveryType replaces the delivery type in staff error notices
const ErrorDeliveryType = "error"

// NotificationProfile is what a purpose decides about an email
type NotificationProfile struct {
	ToPatron             bool
	Subject              string
	Template             string
	DeliveryTypeOverride string
}

var notificationProfiles = map[NotificationPurpose]NotificationProfile{
	PurposePatronConfirmation: {
		ToPatron: true,
		Subject:  "Your print-on-demand book request",
		Template: "ppod_patron_confirmation",
	},
	PurposeStaffRegularOrder: {
		Subject:  "Print-on-demand order needs approval",
		Template: "ppod_staff_approval",
	},
	PurposeStaffRushOrder: {
		Subject:  "Rush print-on-demand order",
		Template: "ppod_staff_rush",
	},
	PurposeStaffErrorOrder: {
		Subject:              "Print-on-demand order failed at vendor",
		Template:             "ppod_staff_error",
		DeliveryTypeOverride: ErrorDeliveryType,
	},
}

// Profile returns the email profile for p
func (p NotificationPurpose) Profile() (NotificationProfile, error) {
	profile, ok := notificationProfiles[p]
	if !ok {
		return NotificationProfile{}, fmt.Errorf("unknown notification purpose %q", string(p))
	}
	return profile, nil
}

// Recipient picks the address an email for this profile goes to
func (p NotificationProfile) Recipient(patronEmail, staffEmail string) string {
	if p.ToPatron {
		return patronEmail
	}
	return staffEmail
}

// TemplateData builds the template payload for order
func (p NotificationProfile) TemplateData(order OrderRequest) map[string]any {
	deliveryType := string(order.DeliveryType)
	if p.DeliveryTypeOverride != "" {
		deliveryType = p.DeliveryTypeOverride
	}
	return map[string]any{
		"title":                  order.Title,
		"author":                 order.Author,
		"isbn":                   order.ISBN,
		"name":                   order.FullName(),
		"affiliation":            order.Affiliation,
		"department":             order.Department,
		"email":                  order.Email,
		"delivery_type":          deliveryType,
		"delivery_days_adjusted": order.DeliveryDaysAdjusted,
	}
}

// EmailRequest is the body posted to the email service
type EmailRequest struct {
	Queue  string      `json:"queue"`
	Args   []string    `json:"args"`
	Kwargs EmailKwargs `json:"kwargs"`
	Tags   []string    `json:"tags"`
}

// EmailKwargs carries the template selection
type EmailKwargs struct {
	TemplateName string         `json:"template_name"`
	TemplateData map[string]any `json:"template_data"`
}

// OrderRecord is the body posted to the order datastore
type OrderRecord struct {
	SubmissionID string `json:"submission_id"`
	IDKey        string `json:"id_key"`
	OrderRequest
	Created string `json:"created"`
}
