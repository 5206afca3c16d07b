package model

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a caller-visible failure.
type Kind int

const (
	// KindTransport means the gateway or upstream could not be reached.
	KindTransport Kind = iota + 1
	// KindGatewayConfig means the gateway is missing its upstream credential.
	KindGatewayConfig
	// KindUpstreamRejection means the upstream answered with a non-2xx status.
	KindUpstreamRejection
	// KindModelOutputFormat means a structured-output call returned text that is not valid JSON.
	KindModelOutputFormat
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindGatewayConfig:
		return "gateway_config"
	case KindUpstreamRejection:
		return "upstream_rejection"
	case KindModelOutputFormat:
		return "model_output_format"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	MsgTransport         = "Failed to communicate with the API proxy."
	MsgModelOutputFormat = "Could not parse the analysis from the AI model. The response was not valid JSON."
	MsgInvalidAPIKey     = "Your API key is not valid."
	MsgGatewayConfig     = "The API proxy is not configured. Please contact the administrator."
	MsgPermissionBilling = "The API key is likely correct, but there is a permission or billing issue with your Google Cloud project. Please ensure the Generative Language API is enabled and billing is active."
)

// CodeGatewayConfig is the error.code the gateway sends when it has no
// upstream credential. It says nothing about the credential itself.
const CodeGatewayConfig = "gateway_config"

// UpstreamError carries the status and body of a failed upstream (or gateway) call.
type UpstreamError struct {
	StatusCode int
	Message    string
	RawBody    string
	RetryAfter time.Duration // from Retry-After header, zero if absent
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Error is the single error type surfaced to callers. Message is safe to show
// to a user; Err holds the diagnostic cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status attached to err, or 0 when there is none.
func Status(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Detail renders err with its cause for logs and --debug output.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return fmt.Sprintf("%s (%s: %v)", e.Message, e.Kind, e.Err)
	}
	return err.Error()
}
