package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"print-order-system/config"
	"print-order-system/dispatch"
	"print-order-system/models"
)

func main() {
	submitFile := flag.String("submit", "", "Path to a JSON order form to submit")
	submissionID := flag.String("submission-id", "", "Submission ID (optional, auto-generated if not provided)")
	isbn := flag.String("isbn", "", "Look up delivery information for an ISBN")
	idKey := flag.String("id-key", "", "Account the request is made for")
	identity := flag.String("as", "", "Caller identity (defaults to -id-key)")
	query := flag.Bool("query", false, "Query submission state")
	workflowID := flag.String("workflow-id", "", "Submission ID for query operations")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "Failed to load configuration", err)
	}

	c, err := dispatch.Dial(cfg, logger)
	if err != nil {
		fatal(logger, "Failed to connect to Temporal", err)
	}
	defer c.Close()

	d := dispatch.New(c, cfg.TaskQueue, logger)
	caller := models.Caller{Identity: *identity}
	if caller.Identity == "" {
		caller.Identity = *idKey
	}
	ctx := context.Background()

	switch {
	case *query:
		if *workflowID == "" {
			fatal(logger, "Workflow ID is required for query operations. Use -workflow-id flag", nil)
		}
		state, err := d.SubmissionState(ctx, caller, *workflowID)
		if err != nil {
			fatal(logger, "Failed to query submission", err)
		}
		printJSON(state)

	case *submitFile != "":
		form, err := readForm(*submitFile)
		if err != nil {
			fatal(logger, "Failed to read order form", err)
		}
		sub, err := d.SubmitOrder(ctx, caller, *idKey, *submissionID, form)
		if err != nil {
			fatal(logger, "Order submission failed", err)
		}
		printJSON(sub)
		logger.Info("To query submission state, run:",
			"command", fmt.Sprintf("go run ./starter -query -id-key %s -workflow-id %s", *idKey, sub.SubmissionID))

	case *isbn != "":
		result, err := d.DeliveryInfo(ctx, caller, *idKey, *isbn)
		if err != nil {
			fatal(logger, "Delivery info lookup failed", err)
		}
		printJSON(result)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func readForm(path string) (models.OrderForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.OrderForm{}, err
	}
	var form models.OrderForm
	if err := json.Unmarshal(data, &form); err != nil {
		return models.OrderForm{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return form, nil
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func fatal(logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err)
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
