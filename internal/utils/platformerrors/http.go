package platformerrors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPErrorResponse is the error body returned by every endpoint.
// Error stays a plain string so CMS clients can test `data.error` directly.
type HTTPErrorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteHTTPError writes a PlatformError as an HTTP response.
func WriteHTTPError(c *gin.Context, err *PlatformError, log zerolog.Logger) {
	if err == nil {
		WriteInternalError(c, "unknown error")
		return
	}

	LogError(log, err)

	c.AbortWithStatusJSON(ErrorTypeToHTTPStatus(err.Type), HTTPErrorResponse{
		Error:     err.Message,
		Type:      errorTypeToString(err.Type),
		Code:      err.UUID,
		RequestID: err.RequestID,
	})
}

// WriteError writes a generic error as an HTTP response.
// PlatformErrors keep their mapped status; anything else is an internal error.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	if err == nil {
		WriteInternalError(c, "unknown error")
		return
	}

	if platformErr := GetPlatformError(err); platformErr != nil {
		WriteHTTPError(c, platformErr, log)
		return
	}

	log.Error().Err(err).Msg("unhandled error")
	WriteInternalError(c, err.Error())
}

// WriteValidationError writes a 400 Bad Request response.
func WriteValidationError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, HTTPErrorResponse{
		Error: message,
		Type:  "validation_error",
	})
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, HTTPErrorResponse{
		Error: message,
		Type:  "unauthorized_error",
	})
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, HTTPErrorResponse{
		Error: message,
		Type:  "internal_error",
	})
}

func errorTypeToString(t ErrorType) string {
	switch t {
	case ErrorTypeInternal, ErrorTypeDatabaseError:
		return "internal_error"
	case ErrorTypeTooLarge:
		return "payload_too_large_error"
	default:
		return strings.ToLower(string(t)) + "_error"
	}
}
