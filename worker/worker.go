package main

import (
	"log/slog"
	"os"

	"print-order-system/activities"
	"print-order-system/config"
	"print-order-system/dispatch"
	"print-order-system/workflows"

	"go.temporal.io/sdk/worker"
)

// WorkerVersion is reported at startup; BUILD_ID drives worker versioning
const WorkerVersion = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	c, err := dispatch.Dial(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to Temporal", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	// Worker versioning requires the task queue to be configured server-side
	w := worker.New(c, cfg.TaskQueue, worker.Options{
		BuildID:                                cfg.BuildID,
		MaxConcurrentActivityExecutionSize:     100,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
	})

	w.RegisterWorkflow(workflows.SubmitOrderWorkflow)
	w.RegisterWorkflow(workflows.DeliveryInfoWorkflow)

	vendor := activities.NewVendorActivities(cfg.VendorBaseURL(), cfg.VendorAPIKey)
	w.RegisterActivity(vendor.CheckStock)
	w.RegisterActivity(vendor.PlaceOrder)

	notifier := activities.NewNotifyActivities(activities.NotifyConfig{
		Endpoint:     cfg.EmailEndpoint,
		Token:        cfg.SystemAuthToken,
		Queue:        cfg.EmailQueue,
		StaffEmail:   cfg.StaffEmail,
		ReplyToEmail: cfg.ReplyToEmail,
		Tags:         []string{"ppod"},
	})
	w.RegisterActivity(notifier.SendNotification)

	recorder := activities.NewRecordActivities(cfg.RecorderEndpoint, cfg.SystemAuthToken)
	w.RegisterActivity(recorder.RecordOrder)

	logger.Info("Starting Temporal worker",
		"version", WorkerVersion,
		"build_id", cfg.BuildID,
		"temporal_address", cfg.TemporalAddress,
		"namespace", cfg.Namespace,
		"task_queue", cfg.TaskQueue,
		"vendor", cfg.VendorBaseURL(),
		"workflows", []string{"SubmitOrderWorkflow", "DeliveryInfoWorkflow"})

	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Unable to start worker", "error", err)
		os.Exit(1)
	}
}
