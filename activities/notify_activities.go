package activities

import (
	"context"
	"net/http"

	"print-order-system/apperr"
	"print-order-system/models"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// NotifyConfig describes where notification emails are sent
type NotifyConfig struct {
	Endpoint     string
	Token        string
	Queue        string
	StaffEmail   string
	ReplyToEmail string
	Tags         []string
}

// NotifyActivities sends order emails through the email service
type NotifyActivities struct {
	httpClient *http.Client
	cfg        NotifyConfig
}

// NewNotifyActivities creates a new NotifyActivities instance
func NewNotifyActivities(cfg NotifyConfig, opts ...Option) *NotifyActivities {
	o := newOptions(opts)
	return &NotifyActivities{
		httpClient: o.httpClient,
		cfg:        cfg,
	}
}

// SendNotification emails about order for the given purpose. A failed
// send is returned as a non-retryable NotificationFailed error; the
// workflow decides whether it matters.
func (n *NotifyActivities) SendNotification(ctx context.Context, purpose models.NotificationPurpose, order models.OrderRequest) error {
	logger := activity.GetLogger(ctx)

	profile, err := purpose.Profile()
	if err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), apperr.TypeNotificationFailed, err)
	}

	recipient := profile.Recipient(order.Email, n.cfg.StaffEmail)
	logger.Info("Sending notification", "purpose", purpose, "isbn", order.ISBN, "template", profile.Template)

	req := models.EmailRequest{
		Queue: n.cfg.Queue,
		Args:  []string{recipient, n.cfg.ReplyToEmail, profile.Subject},
		Kwargs: models.EmailKwargs{
			TemplateName: profile.Template,
			TemplateData: profile.TemplateData(order),
		},
		Tags: n.cfg.Tags,
	}

	activity.RecordHeartbeat(ctx, "calling email service")

	if err := postJSON(ctx, n.httpClient, n.cfg.Endpoint, n.cfg.Token, req, nil); err != nil {
		sendErr := apperr.NewTransportError("email "+string(purpose), err)
		logger.Error("Notification failed", "purpose", purpose, "isbn", order.ISBN, "error", sendErr)
		return temporal.NewNonRetryableApplicationError(sendErr.Error(), apperr.TypeNotificationFailed, sendErr)
	}

	logger.Info("Notification sent", "purpose", purpose, "isbn", order.ISBN)
	return nil
}
