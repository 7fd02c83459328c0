// Package errors provides custom error types for the pimsync engine.
// These errors let each stage of an import run classify failures
// (transient platform state, permanent rejections, missing source data)
// without string matching scattered through the codebase.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the pimsync engine
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates that no PIM partition yielded data
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotReady indicates the target platform is still processing a resource
	ErrNotReady = errors.New("resource not ready")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates that a remote endpoint is temporarily unavailable
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNoMatch indicates that a matching cascade exhausted every strategy
	ErrNoMatch = errors.New("no match")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure. At the engine boundary it
// is the 400-equivalent: it is returned before any network call is made.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a transport-level or GraphQL-level error from a remote API
type APIError struct {
	Service    string // "pim" or "shopify"
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Service, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrProviderUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    message,
	}
}

// UserError is a single entry of a GraphQL mutation's userErrors list.
type UserError struct {
	Field   []string `json:"field,omitempty" yaml:"field,omitempty"`
	Message string   `json:"message" yaml:"message"`
	Code    string   `json:"code,omitempty" yaml:"code,omitempty"`
}

// UserErrors is the userErrors list returned by a mutation with HTTP 200.
// An empty list is never returned as an error; use AsError.
type UserErrors struct {
	Operation string
	Errors    []UserError
}

// AsError returns nil when the mutation reported no user errors.
func AsError(operation string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrors{Operation: operation, Errors: errs}
}

// Error implements the error interface
func (e *UserErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		if len(ue.Field) > 0 {
			msgs = append(msgs, fmt.Sprintf("%s: %s", strings.Join(ue.Field, "."), ue.Message))
			continue
		}
		msgs = append(msgs, ue.Message)
	}
	return fmt.Sprintf("%s user errors: %s", e.Operation, strings.Join(msgs, "; "))
}

// Contains reports whether any user error message or code contains substr,
// compared case-insensitively.
func (e *UserErrors) Contains(substr string) bool {
	needle := strings.ToLower(substr)
	for _, ue := range e.Errors {
		if strings.Contains(strings.ToLower(ue.Message), needle) ||
			strings.Contains(strings.ToLower(ue.Code), needle) {
			return true
		}
	}
	return false
}

// OnlyContains reports whether every user error mentions substr.
func (e *UserErrors) OnlyContains(substr string) bool {
	if len(e.Errors) == 0 {
		return false
	}
	needle := strings.ToLower(substr)
	for _, ue := range e.Errors {
		if !strings.Contains(strings.ToLower(ue.Message), needle) &&
			!strings.Contains(strings.ToLower(ue.Code), needle) {
			return false
		}
	}
	return true
}

// Is implements errors.Is support
func (e *UserErrors) Is(target error) bool {
	switch target {
	case ErrAlreadyExists:
		return e.OnlyContains("already") || e.OnlyContains("taken")
	case ErrNotReady:
		return e.Contains("processing") || e.Contains("non-ready") ||
			e.Contains("non_ready") || e.Contains("not ready")
	}
	return false
}

// SourceUnavailableError is returned when every PIM partition was probed
// without yielding records.
type SourceUnavailableError struct {
	StyleID    string
	Partitions []string
	Attempts   int
	Err        error
}

// Error implements the error interface
func (e *SourceUnavailableError) Error() string {
	subject := "catalog"
	if e.StyleID != "" {
		subject = "style " + e.StyleID
	}
	msg := fmt.Sprintf("no data in any partition for %s (tried %s, %d attempts)",
		subject, strings.Join(e.Partitions, ", "), e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// MatchError records a partial match failure together with the diagnostic
// context needed to fix the source data: what was looked for and what was seen.
type MatchError struct {
	Subject    string   // e.g. "variant gid://shopify/ProductVariant/1" or "style STTU964"
	Wanted     string   // color label, title or key being matched
	Tried      []string // strategies or patterns attempted
	Candidates []string // candidates that were rejected
}

// Error implements the error interface
func (e *MatchError) Error() string {
	return fmt.Sprintf("no match for %s (%q): tried [%s] against %d candidates [%s]",
		e.Subject, e.Wanted, strings.Join(e.Tried, ", "), len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Is implements errors.Is support
func (e *MatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// SchemaError is returned when metafield or metaobject definitions could not
// be provisioned. It is more severe than a value write failure.
type SchemaError struct {
	Namespace string
	Key       string
	Err       error
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error for %s.%s: %v", e.Namespace, e.Key, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "update", "search", "attach", "assign"
	Resource  string // "product", "variant", "file", "metafield", "metaobject"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNotReady checks if the platform reported the resource as still processing
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsSourceUnavailable checks if no PIM partition yielded data
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsNoMatch checks if a matching cascade found nothing
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsProviderUnavailable checks if an error indicates remote unavailability
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsTransient reports whether err is a connectivity fault worth retrying:
// throttling, a 5xx, a network error or a truncated response body.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsRateLimited(err) || IsProviderUnavailable(err) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// AsUserErrors extracts a *UserErrors from err.
func AsUserErrors(err error) (*UserErrors, bool) {
	var ue *UserErrors
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// Helper wrapping functions for common patterns

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(service string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
