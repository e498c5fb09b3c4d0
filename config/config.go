// Package config loads the process-wide settings once at startup.
//
// Values come from the environment, optionally seeded from a .env file in the
// working directory. The resulting Config is passed by value into component
// constructors and never mutated afterwards.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"print-order-system/apperr"
)

const (
	DefaultTemporalAddress = "localhost:7233"
	DefaultNamespace       = "default"
	DefaultTaskQueue       = "ppod-order-queue"
	DefaultHTTPPort        = "8080"
	DefaultEmailQueue      = "email"
	DefaultIdentityHeader  = "X-Authenticated-User"
	DefaultBuildID         = "1.0.0"
)

type Config struct {
	TemporalAddress string
	Namespace       string
	TaskQueue       string
	EncryptionKey   []byte
	BuildID         string

	VendorHost   string
	VendorAPIKey string

	SystemAuthToken  string
	StaffEmail       string
	ReplyToEmail     string
	EmailEndpoint    string
	EmailQueue       string
	RecorderEndpoint string

	HTTPPort       string
	IdentityHeader string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := Config{
		TemporalAddress:  get("TEMPORAL_ADDRESS", DefaultTemporalAddress),
		Namespace:        get("TEMPORAL_NAMESPACE", DefaultNamespace),
		TaskQueue:        get("TASK_QUEUE", DefaultTaskQueue),
		BuildID:          get("BUILD_ID", DefaultBuildID),
		VendorHost:       get("VENDOR_HOST", ""),
		VendorAPIKey:     get("VENDOR_API_KEY", ""),
		SystemAuthToken:  get("SYSTEM_AUTH_TOKEN", ""),
		StaffEmail:       get("STAFF_EMAIL", ""),
		ReplyToEmail:     get("REPLY_TO_EMAIL", ""),
		EmailEndpoint:    get("EMAIL_ENDPOINT", ""),
		EmailQueue:       get("EMAIL_QUEUE", DefaultEmailQueue),
		RecorderEndpoint: get("RECORDER_ENDPOINT", ""),
		HTTPPort:         get("HTTP_PORT", DefaultHTTPPort),
		IdentityHeader:   get("IDENTITY_HEADER", DefaultIdentityHeader),
	}

	if key := get("ENCRYPTION_KEY", ""); key != "" {
		keyBytes, err := hex.DecodeString(key)
		if err != nil {
			return Config{}, apperr.NewValueIsInvalidError("ENCRYPTION_KEY", err)
		}
		cfg.EncryptionKey = keyBytes
	}

	return cfg, nil
}

// ValidateEncryption checks the payload key shared by every process that
// talks to the task queue
func (c Config) ValidateEncryption() error {
	switch len(c.EncryptionKey) {
	case 0:
		return apperr.NewValueIsRequiredError("ENCRYPTION_KEY")
	case 16, 24, 32:
		return nil
	default:
		return apperr.NewValueIsInvalidError("ENCRYPTION_KEY",
			fmt.Errorf("decodes to %d bytes, want 16, 24 or 32", len(c.EncryptionKey)))
	}
}

// Validate reports the first setting the worker cannot run without
func (c Config) Validate() error {
	if err := c.ValidateEncryption(); err != nil {
		return err
	}
	required := []struct {
		key   string
		value string
	}{
		{"VENDOR_HOST", c.VendorHost},
		{"VENDOR_API_KEY", c.VendorAPIKey},
		{"SYSTEM_AUTH_TOKEN", c.SystemAuthToken},
		{"STAFF_EMAIL", c.StaffEmail},
		{"REPLY_TO_EMAIL", c.ReplyToEmail},
		{"EMAIL_ENDPOINT", c.EmailEndpoint},
		{"RECORDER_ENDPOINT", c.RecorderEndpoint},
	}
	for _, r := range required {
		if r.value == "" {
			return apperr.NewValueIsRequiredError(r.key)
		}
	}
	return nil
}

// VendorBaseURL returns the vendor API root. A bare host is assumed to be
// served over https.
func (c Config) VendorBaseURL() string {
	if strings.Contains(c.VendorHost, "://") {
		return strings.TrimRight(c.VendorHost, "/")
	}
	return "https://" + strings.TrimRight(c.VendorHost, "/")
}
