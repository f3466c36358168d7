package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const maxIndexNameBytes = 255

// ValidateRequired checks that value is not empty.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateLogLevel checks if a log level is valid.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
}

// ValidateLogFormat checks if a log format is valid.
func ValidateLogFormat(format string) error {
	switch format {
	case "json", "console":
		return nil
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}
}

// ValidateIndexName applies the Elasticsearch index naming rules to name.
func ValidateIndexName(field, name string) error {
	if err := ValidateRequired(field, name); err != nil {
		return err
	}
	if name != strings.ToLower(name) {
		return &ValidationError{Field: field, Message: "must be lowercase"}
	}
	if name == "." || name == ".." {
		return &ValidationError{Field: field, Message: "must not be . or .."}
	}
	if strings.ContainsAny(name[:1], "-_+") {
		return &ValidationError{Field: field, Message: "must not start with -, _ or +"}
	}
	if strings.ContainsAny(name, `\/*?"<>| ,#:`) {
		return &ValidationError{Field: field, Message: `must not contain \ / * ? " < > | space , # :`}
	}
	if len(name) > maxIndexNameBytes {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must not exceed %d bytes", maxIndexNameBytes)}
	}
	return nil
}
