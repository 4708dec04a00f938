package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error type returned to API clients
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_INTERNAL,
		Message:   "Internal server error",
		Timestamp: time.Now(),
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_INVALID_ARGUMENT,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_INVALID_PAYLOAD,
		Message:   "Invalid payload",
		Timestamp: time.Now(),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode:  http.StatusUnauthorized,
		Code:      ErrorCode_UNAUTHENTICATED,
		Message:   "Authentication required",
		Timestamp: time.Now(),
	}
}

// Recording Errors
func ErrRecordingNotFound(recordingID string) AppError {
	return AppError{
		HTTPCode:  http.StatusNotFound,
		Code:      ErrorCode_RECORDING_NOT_FOUND,
		Message:   "Recording not found",
		Timestamp: time.Now(),
	}.WithDetail("recording_id", recordingID)
}

func ErrRecordingUploadFailed(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_RECORDING_UPLOAD_FAILED,
		Message:   "Failed to upload recording",
		Timestamp: time.Now(),
	}
}

func ErrUnsupportedAudio(ext string, allowed string) AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_UNSUPPORTED_AUDIO,
		Message:   "Unsupported audio format",
		Timestamp: time.Now(),
	}.WithDetail("extension", ext).
		WithDetail("allowed", allowed)
}

func ErrFileTooLarge(maxBytes int64) AppError {
	return AppError{
		HTTPCode:  http.StatusRequestEntityTooLarge,
		Code:      ErrorCode_FILE_TOO_LARGE,
		Message:   "File too large",
		Timestamp: time.Now(),
	}.WithDetail("max_bytes", fmt.Sprintf("%d", maxBytes))
}

// Pipeline Errors
func ErrProcessingConflict(recordingID string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusConflict,
		Code:      ErrorCode_PROCESSING_CONFLICT,
		Message:   "Recording is already being processed or completed",
		Timestamp: time.Now(),
	}.WithDetail("recording_id", recordingID)
}

func ErrPreconditionFailed(recordingID string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusPreconditionFailed,
		Code:      ErrorCode_PRECONDITION_FAILED,
		Message:   "A required artifact is missing",
		Timestamp: time.Now(),
	}.WithDetail("recording_id", recordingID)
}

func ErrNoteNotFound(recordingID string) AppError {
	return AppError{
		HTTPCode:  http.StatusNotFound,
		Code:      ErrorCode_NOTE_NOT_FOUND,
		Message:   "Medical note not found. Recording may not be processed yet.",
		Timestamp: time.Now(),
	}.WithDetail("recording_id", recordingID)
}

func ErrProcessingFailed(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_PROCESSING_FAILED,
		Message:   "Processing failed",
		Timestamp: time.Now(),
	}
}

func ErrLetterFailed(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_LETTER_FAILED,
		Message:   "Failed to generate letter",
		Timestamp: time.Now(),
	}
}

// Engine Errors
func ErrEngineUnavailable(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusServiceUnavailable,
		Code:      ErrorCode_ENGINE_UNAVAILABLE,
		Message:   "Processing engine temporarily unavailable",
		Timestamp: time.Now(),
	}
}

func ErrModelMissing(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusServiceUnavailable,
		Code:      ErrorCode_MODEL_MISSING,
		Message:   "Generation model is not available",
		Timestamp: time.Now(),
	}
}

// Integration Errors
func ErrQueueFailed(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusServiceUnavailable,
		Code:      ErrorCode_INTEGRATION_QUEUE_FAILED,
		Message:   "Work queue unavailable",
		Timestamp: time.Now(),
	}
}

// Database Errors
func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_DB_QUERY_FAILED,
		Message:   "Database query failed",
		Timestamp: time.Now(),
	}.WithDetail("query", query)
}
