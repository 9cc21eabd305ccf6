package errors

import (
	"net/http"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Prediction pipeline error codes.  Each maps to exactly one Kind.
const (
	ErrCodeEnvironment          ErrorCode = "LOGK_ENV"
	ErrCodeModelNotFound        ErrorCode = "LOGK_MODEL_NOT_FOUND"
	ErrCodeInvalidInput         ErrorCode = "LOGK_INVALID_INPUT"
	ErrCodeMolecularProcessing  ErrorCode = "LOGK_MOLECULAR"
	ErrCodePredictionEngine     ErrorCode = "LOGK_ENGINE"
	ErrCodeConfiguration        ErrorCode = "LOGK_CONFIG"
	ErrCodeInvalidStructure     ErrorCode = "LOGK_INVALID_STRUCTURE"
	ErrCodeModelArtifactMissing ErrorCode = "LOGK_ARTIFACT_MISSING"
)

// Aliases used at call sites.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")

	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeTimeout      = ErrCodeTimeout
	CodeCacheError   = ErrCodeCacheError
	CodeMessageQueue = ErrCodeExternalService
	CodeStorageError = ErrCodeExternalService

	CodeEnvironment         = ErrCodeEnvironment
	CodeModelNotFound       = ErrCodeModelNotFound
	CodeInvalidInput        = ErrCodeInvalidInput
	CodeMolecularProcessing = ErrCodeMolecularProcessing
	CodePredictionEngine    = ErrCodePredictionEngine
	CodeConfiguration       = ErrCodeConfiguration
	CodeInvalidStructure    = ErrCodeInvalidStructure
	CodeArtifactMissing     = ErrCodeModelArtifactMissing
)

// Kind is the coarse taxonomy a caller of the prediction pipeline sees.
type Kind string

const (
	KindNone                Kind = ""
	KindEnvironment         Kind = "EnvironmentError"
	KindModelNotFound       Kind = "ModelNotFound"
	KindInvalidInput        Kind = "InvalidInput"
	KindMolecularProcessing Kind = "MolecularProcessingError"
	KindPredictionEngine    Kind = "PredictionEngineError"
	KindConfiguration       Kind = "ConfigurationError"
	KindInternal            Kind = "InternalError"
)

// Kind maps an error code to its taxonomy kind.  Structure parse failures are
// molecular processing failures from the pipeline's point of view.
func (c ErrorCode) Kind() Kind {
	switch c {
	case CodeOK:
		return KindNone
	case ErrCodeEnvironment:
		return KindEnvironment
	case ErrCodeModelNotFound, ErrCodeModelArtifactMissing:
		return KindModelNotFound
	case ErrCodeInvalidInput, ErrCodeBadRequest:
		return KindInvalidInput
	case ErrCodeMolecularProcessing, ErrCodeInvalidStructure:
		return KindMolecularProcessing
	case ErrCodePredictionEngine, ErrCodeTimeout:
		return KindPredictionEngine
	case ErrCodeConfiguration:
		return KindConfiguration
	default:
		return KindInternal
	}
}

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeEnvironment:          http.StatusServiceUnavailable,
	ErrCodeModelNotFound:        http.StatusServiceUnavailable,
	ErrCodeModelArtifactMissing: http.StatusNotFound,
	ErrCodeInvalidInput:         http.StatusBadRequest,
	ErrCodeInvalidStructure:     http.StatusUnprocessableEntity,
	ErrCodeMolecularProcessing:  http.StatusUnprocessableEntity,
	ErrCodePredictionEngine:     http.StatusBadGateway,
	ErrCodeConfiguration:        http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",

	ErrCodeEnvironment:          "model directory could not be resolved",
	ErrCodeModelNotFound:        "model file not found",
	ErrCodeModelArtifactMissing: "model artifact not found in object storage",
	ErrCodeInvalidInput:         "invalid input record",
	ErrCodeInvalidStructure:     "invalid structure record",
	ErrCodeMolecularProcessing:  "molecular processing failed",
	ErrCodePredictionEngine:     "prediction engine failed",
	ErrCodeConfiguration:        "invalid configuration",
}

// HTTPStatus returns the HTTP status for code, defaulting to 500.
func HTTPStatus(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// DefaultMessage returns the default message for code.
func DefaultMessage(code ErrorCode) string {
	if m, ok := ErrorCodeMessage[code]; ok {
		return m
	}
	return "unknown error"
}
