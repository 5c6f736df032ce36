package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeRender represents rendering-session errors
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeDiscovery represents listing discovery errors
	ErrorTypeDiscovery ErrorType = "discovery"
	// ErrorTypeExtract represents field extraction errors
	ErrorTypeExtract ErrorType = "extract"
	// ErrorTypePersist represents artifact persistence errors
	ErrorTypePersist ErrorType = "persist"
	// ErrorTypeStore represents relational store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypePublish represents publisher errors
	ErrorTypePublish ErrorType = "publish"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents a pipeline-specific error
type PipelineError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error must abort the whole run. Per-item
// failures inside the crawl loop are never fatal; losing the rendering
// session or failing to discover any candidates is.
func (e *PipelineError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeDiscovery, ErrorTypeConfiguration:
		return true
	case ErrorTypeRender:
		// A failed session acquisition aborts the run; a failed render of
		// one detail page only skips that item.
		return e.Stage == "acquire"
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, stage, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewRender creates a new rendering error
func NewRender(stage, message string, err error) *PipelineError {
	return New(ErrorTypeRender, stage, message, err)
}

// NewDiscovery creates a new discovery error
func NewDiscovery(stage, message string, err error) *PipelineError {
	return New(ErrorTypeDiscovery, stage, message, err)
}

// NewExtract creates a new extraction error
func NewExtract(stage, message string, err error) *PipelineError {
	return New(ErrorTypeExtract, stage, message, err)
}

// NewPersist creates a new persistence error
func NewPersist(stage, message string, err error) *PipelineError {
	return New(ErrorTypePersist, stage, message, err)
}

// NewStore creates a new store error
func NewStore(stage, message string, err error) *PipelineError {
	return New(ErrorTypeStore, stage, message, err)
}

// NewPublish creates a new publisher error
func NewPublish(stage, message string, err error) *PipelineError {
	return New(ErrorTypePublish, stage, message, err)
}

// NewValidation creates a new validation error
func NewValidation(stage, message string) *PipelineError {
	return New(ErrorTypeValidation, stage, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeLabel returns a metrics-friendly label for an arbitrary error.
func TypeLabel(err error) string {
	if pe, ok := err.(*PipelineError); ok {
		return string(pe.Type)
	}
	return "other"
}
