package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/muurk/isoft/internal/register"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (host unreachable, reset, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request did not complete in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeCanceled indicates the caller canceled the request
	ErrTypeCanceled
	// ErrTypeAuth indicates an authentication failure (invalid credentials)
	ErrTypeAuth
	// ErrTypeHTTP indicates a non-2xx status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response envelope
	ErrTypeParse
	// ErrTypeValidation indicates an invalid argument or client setting
	ErrTypeValidation
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeCanceled:
		return "Canceled"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred during device communication
type DeviceError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Register       register.Address    // Register being accessed (if any)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Host           string              // Device host (for hints)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	msg := e.Message
	if e.Register != "" {
		msg = fmt.Sprintf("register %s: %s", e.Register, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

func withRegister(e *DeviceError, reg register.Address) *DeviceError {
	e.Register = reg
	return e
}

// ClassifyNetworkError analyzes a transport error and returns a typed error.
// It never returns nil for a non-nil err.
func ClassifyNetworkError(err error, host string) *DeviceError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &DeviceError{
			Type:    ErrTypeCanceled,
			Message: "Request canceled",
			Err:     err,
			Host:    host,
		}
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &DeviceError{
			Type:    ErrTypeTimeout,
			Message: "Request timed out",
			Err:     err,
			Host:    host,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			Host:    host,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &DeviceError{
				Type:    ErrTypeConnectionRefused,
				Message: "Device refused connection",
				Err:     err,
				Host:    host,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Host:           host,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &DeviceError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Host:           host,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, host)
	}

	return &DeviceError{
		Type:    ErrTypeNetwork,
		Message: "Network error occurred",
		Err:     err,
		Host:    host,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &DeviceError{
		Type:    ErrTypeNetwork,
		Message: message,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr, true
	}
	return nil, false
}

// IsTransportError reports whether the request never produced an HTTP
// response: network, timeout, refused connection, DNS or cancellation.
func IsTransportError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		switch devErr.Type {
		case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeCanceled:
			return true
		}
	}
	return false
}

// IsApplicationError reports whether the device answered but the answer was
// unusable: non-2xx status, rejected credentials or a malformed envelope.
func IsApplicationError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		switch devErr.Type {
		case ErrTypeHTTP, ErrTypeAuth, ErrTypeParse:
			return true
		}
	}
	return false
}

// IsTimeoutError checks if an error is a timeout
func IsTimeoutError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeTimeout
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeAuth
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeParse
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeValidation
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	if errors.Is(err, register.ErrMalformedPayload) {
		return strings.Join([]string{
			"The device answered with a value this client cannot decode.",
			"This usually means a firmware revision with a different register layout.",
			"Troubleshooting:",
			"  • Run with --log-level debug to see the raw payload",
			"  • Use 'isoft raw <register>' to inspect the register directly",
		}, "\n")
	}

	devErr, ok := asDeviceError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • Check that the softener and its connectivity module are powered",
			"  • Verify the module is connected to your network",
			"  • Try increasing the timeout with --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The device refused the connection.",
			"Troubleshooting:",
			"  • Check that the local REST API is enabled on the connectivity module",
			"  • Verify the port if you are not using the default",
			"  • Try --https if the module only accepts TLS",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the device hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeAuth:
		return strings.Join([]string{
			"Authentication failed.",
			"Troubleshooting:",
			"  • The factory credentials are " + DefaultUsername + ":" + DefaultPassword,
			"  • Check the username and password in your config file",
			"  • ISOFT_PASSWORD overrides the configured password",
		}, "\n")

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}

		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			hint = append(hint, "The device is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the device IP address is correct",
				"  • Try pinging the device: ping "+devErr.Host)

		case NetworkErrorNetworkUnreachable:
			hint = append(hint, "Your computer cannot reach the device's network.",
				"Troubleshooting:",
				"  • Check your network adapter settings",
				"  • Check routing between this host and the device")

		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the device is powered on")
		}

		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		if devErr.StatusCode == http.StatusNotFound {
			return fmt.Sprintf("The device does not know register %s. It may not exist on this model.", devErr.Register)
		}
		if devErr.StatusCode >= 500 {
			return strings.Join([]string{
				fmt.Sprintf("The device returned an error (HTTP %d).", devErr.StatusCode),
				"Troubleshooting:",
				"  • Wait for the next poll; the module is sometimes busy",
				"  • Power-cycle the connectivity module if it persists",
			}, "\n")
		}
		return fmt.Sprintf("The device returned HTTP error %d.", devErr.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the device's response.",
			"The device did not answer with a {\"data\": ...} envelope.",
			"Troubleshooting:",
			"  • Check that the host points at the softener and not another device",
		}, "\n")

	case ErrTypeValidation:
		return "The value is invalid. Check the error message for details."

	case ErrTypeCanceled:
		return "The request was canceled."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, register.ErrMalformedPayload) {
		return "Device returned an undecodable value"
	}

	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection"
	case ErrTypeDNS:
		return "Cannot resolve device hostname"
	case ErrTypeCanceled:
		return "Request canceled"
	case ErrTypeAuth:
		return "Authentication failed - check credentials"
	case ErrTypeNetwork:
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Device unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse device response"
	default:
		return devErr.Message
	}
}
