package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents fetch or HTTP transport errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML or persisted JSON parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents record stream errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeNotify represents webhook delivery errors
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeStorage represents log store errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError is an error raised by one stage of the paper pipeline
type PipelineError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a new PipelineError
func New(errType ErrorType, component, message string, err error) *PipelineError {
	return &PipelineError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// TypeOf returns the type of the first PipelineError in err's chain,
// or an empty ErrorType when there is none.
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ""
}

// Is reports whether err carries a PipelineError of the given type
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *PipelineError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *PipelineError {
	return New(ErrorTypeCache, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *PipelineError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewNotify creates a new notification delivery error
func NewNotify(component, message string, err error) *PipelineError {
	return New(ErrorTypeNotify, component, message, err)
}

// NewStorage creates a new log store error
func NewStorage(component, message string, err error) *PipelineError {
	return New(ErrorTypeStorage, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "config", message, err)
}
