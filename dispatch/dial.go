package dispatch

import (
	"fmt"
	"log/slog"

	"print-order-system/codec"
	"print-order-system/config"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
)

// Dial connects to Temporal with payload encryption. Every process on the
// task queue must be configured with the same ENCRYPTION_KEY.
func Dial(cfg config.Config, logger *slog.Logger) (client.Client, error) {
	if err := cfg.ValidateEncryption(); err != nil {
		return nil, err
	}

	dataConverter, err := codec.NewEncryptionDataConverter(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryption data converter: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:      cfg.TemporalAddress,
		Namespace:     cfg.Namespace,
		DataConverter: dataConverter,
		Logger:        temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}
