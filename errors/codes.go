package errors

import "strconv"

// ErrorCode is the machine-readable code carried in every API error body.
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1004
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1005

	// Recordings
	ErrorCode_RECORDING_NOT_FOUND     ErrorCode = 3000
	ErrorCode_RECORDING_UPLOAD_FAILED ErrorCode = 3001
	ErrorCode_UNSUPPORTED_AUDIO       ErrorCode = 3002
	ErrorCode_FILE_TOO_LARGE          ErrorCode = 3003

	// Pipeline
	ErrorCode_PROCESSING_CONFLICT ErrorCode = 4000
	ErrorCode_PRECONDITION_FAILED ErrorCode = 4001
	ErrorCode_NOTE_NOT_FOUND      ErrorCode = 4002
	ErrorCode_PROCESSING_FAILED   ErrorCode = 4003
	ErrorCode_LETTER_FAILED       ErrorCode = 4004

	// Engines
	ErrorCode_ENGINE_UNAVAILABLE ErrorCode = 5000
	ErrorCode_MODEL_MISSING      ErrorCode = 5001

	// Integrations
	ErrorCode_INTEGRATION_QUEUE_FAILED ErrorCode = 6002

	// Database
	ErrorCode_DB_QUERY_FAILED ErrorCode = 7000
)

var ErrorCode_name = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                  "HTTP_OK",
	ErrorCode_INTERNAL:                 "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:         "INVALID_ARGUMENT",
	ErrorCode_UNAUTHENTICATED:          "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:          "INVALID_PAYLOAD",
	ErrorCode_RECORDING_NOT_FOUND:      "RECORDING_NOT_FOUND",
	ErrorCode_RECORDING_UPLOAD_FAILED:  "RECORDING_UPLOAD_FAILED",
	ErrorCode_UNSUPPORTED_AUDIO:        "UNSUPPORTED_AUDIO",
	ErrorCode_FILE_TOO_LARGE:           "FILE_TOO_LARGE",
	ErrorCode_PROCESSING_CONFLICT:      "PROCESSING_CONFLICT",
	ErrorCode_PRECONDITION_FAILED:      "PRECONDITION_FAILED",
	ErrorCode_NOTE_NOT_FOUND:           "NOTE_NOT_FOUND",
	ErrorCode_PROCESSING_FAILED:        "PROCESSING_FAILED",
	ErrorCode_LETTER_FAILED:            "LETTER_FAILED",
	ErrorCode_ENGINE_UNAVAILABLE:       "ENGINE_UNAVAILABLE",
	ErrorCode_MODEL_MISSING:            "MODEL_MISSING",
	ErrorCode_INTEGRATION_QUEUE_FAILED: "INTEGRATION_QUEUE_FAILED",
	ErrorCode_DB_QUERY_FAILED:          "DB_QUERY_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := ErrorCode_name[c]; ok {
		return name
	}
	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}

// MarshalText renders the symbolic name in JSON bodies.
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
