package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeCompile      ErrorType = "compile"
	ErrorTypeLookup       ErrorType = "lookup"
	ErrorTypeRegistration ErrorType = "registration"
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeInternal     ErrorType = "internal"
)

// KitError is a structured error type with context.
type KitError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]any
	Component   string
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *KitError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *KitError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a KitError of the same type and code.
func (e *KitError) Is(target error) bool {
	var t *KitError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *KitError) WithContext(key string, value any) *KitError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *KitError) WithLocation(filePath string, line, column int) *KitError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithComponent adds component context.
func (e *KitError) WithComponent(component string) *KitError {
	e.Component = component

	return e
}

// WithCause attaches an underlying error.
func (e *KitError) WithCause(cause error) *KitError {
	e.Cause = cause

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *KitError {
	return &KitError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewCompileError creates a template compilation error.
func NewCompileError(code, message string, cause error) *KitError {
	return &KitError{
		Type:    ErrorTypeCompile,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewLookupError creates an error for a missing registry entry.
func NewLookupError(code, message string) *KitError {
	return &KitError{
		Type:        ErrorTypeLookup,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewRegistrationError creates a registration error.
func NewRegistrationError(code, message string) *KitError {
	return &KitError{
		Type:    ErrorTypeRegistration,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *KitError {
	return &KitError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *KitError {
	return &KitError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *KitError {
	return &KitError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ke *KitError
	if errors.As(err, &ke) {
		return ke.Recoverable
	}

	return false
}

// IsType reports whether err carries a KitError of the given type.
func IsType(err error, typ ErrorType) bool {
	var ke *KitError
	if errors.As(err, &ke) {
		return ke.Type == typ
	}

	return false
}

// Common error codes.
const (
	ErrCodeDuplicateType     = "ERR_DUPLICATE_TYPE"
	ErrCodeInvalidDefinition = "ERR_INVALID_DEFINITION"
	ErrCodeUnknownType       = "ERR_UNKNOWN_TYPE"
	ErrCodeInvalidProps      = "ERR_INVALID_PROPS"
	ErrCodeInvalidLayout     = "ERR_INVALID_LAYOUT"
	ErrCodeInvalidAddress    = "ERR_INVALID_ADDRESS"
	ErrCodeInvalidFor        = "ERR_INVALID_FOR"
	ErrCodeSlotMissingBlock  = "ERR_SLOT_MISSING_BLOCK"
	ErrCodeSlotMissingProps  = "ERR_SLOT_MISSING_PROPS"
	ErrCodeInvalidExpression = "ERR_INVALID_EXPRESSION"
	ErrCodeTemplateParse     = "ERR_TEMPLATE_PARSE"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
	ErrCodePageInvalid       = "ERR_PAGE_INVALID"
	ErrCodePageNotFound      = "ERR_PAGE_NOT_FOUND"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// Sentinels for errors.Is. Matching compares Type and Code only.
var (
	ErrDuplicateType     = NewRegistrationError(ErrCodeDuplicateType, "duplicate block type")
	ErrInvalidDefinition = NewRegistrationError(ErrCodeInvalidDefinition, "invalid block definition")
	ErrUnknownType       = NewLookupError(ErrCodeUnknownType, "unknown block type")
	ErrInvalidProps      = NewValidationError(ErrCodeInvalidProps, "invalid props")
	ErrInvalidAddress    = NewValidationError(ErrCodeInvalidAddress, "invalid schema address")
	ErrInvalidFor        = NewCompileError(ErrCodeInvalidFor, "invalid v-for expression", nil)
	ErrSlotMissingBlock  = NewCompileError(ErrCodeSlotMissingBlock, "render-slot requires :block", nil)
	ErrSlotMissingProps  = NewCompileError(ErrCodeSlotMissingProps, "render-slot requires :props", nil)
	ErrInvalidExpression = NewCompileError(ErrCodeInvalidExpression, "invalid expression", nil)
)
