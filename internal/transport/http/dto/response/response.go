package response

import (
	"net/http"

	"gallery_keeper/internal/domain/apperr"
)

type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func SuccessResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}

func ErrorResponseWithDetails(err, details string) ErrorResponse {
	return ErrorResponse{
		Status:  "error",
		Error:   err,
		Details: details,
	}
}

var ErrInvalidRequestFormat = ErrorResponse{
	Status:  "error",
	Error:   "invalid_request",
	Details: "Invalid request format",
}

// InvalidRequest - ответ 400 с текстом ошибки валидации.
func InvalidRequest(details string) ErrorResponse {
	r := ErrInvalidRequestFormat
	if details != "" {
		r.Details = details
	}
	return r
}

// FromError переводит ошибку сервиса в HTTP статус и тело ответа.
// Unprocessable и Unauthorized отдаются одинаково.
func FromError(err error) (int, ErrorResponse) {
	kind := apperr.KindOf(err)
	msg := apperr.PublicMessage(err)

	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound, ErrorResponseWithDetails("not_found", msg)
	case apperr.Unauthorized, apperr.Unprocessable:
		return http.StatusUnauthorized, ErrorResponseWithDetails("unauthorized", msg)
	case apperr.Conflict:
		return http.StatusConflict, ErrorResponseWithDetails("conflict", msg)
	case apperr.Validation:
		return http.StatusBadRequest, ErrorResponseWithDetails("invalid_request", msg)
	case apperr.RateLimited:
		return http.StatusTooManyRequests, ErrorResponseWithDetails("rate_limited", msg)
	default:
		return http.StatusInternalServerError, ErrorResponseWithDetails("internal_error", msg)
	}
}
