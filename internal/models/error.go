package models

// APIError is the JSON body of every failed /api request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

const (
	ErrBadRequest       = "BAD_REQUEST"
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrForbidden        = "FORBIDDEN"
	ErrNotFound         = "NOT_FOUND"
	ErrConflict         = "CONFLICT"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidationFailed = "VALIDATION_FAILED"

	ErrOLXAuthRequired = "OLX_AUTH_REQUIRED"
	ErrOLXUpstream     = "OLX_UPSTREAM_ERROR"
	ErrOLXBadResponse  = "OLX_BAD_RESPONSE"
)

func NewAPIError(code, message string, details ...map[string]interface{}) APIError {
	err := APIError{Code: code, Message: message}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// Lower-case codes used by /oauth/token and the bearer check, in the
// OAuth2 error vocabulary clients already understand.
const (
	ErrInvalidRequest       = "invalid_request"
	ErrInvalidToken         = "invalid_token"
	ErrUnsupportedGrantType = "unsupported_grant_type"
)

// TokenError is the body returned when a token cannot be issued or accepted.
type TokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func NewTokenError(code, description string) TokenError {
	return TokenError{Error: code, ErrorDescription: description}
}
