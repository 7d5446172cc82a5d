package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/rowhq/fieldproof/internal/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error           string `json:"error"`
	Message         string `json:"message"`
	Field           string `json:"field,omitempty"`
	CurrentStatus   string `json:"current_status,omitempty"`
	RequestedStatus string `json:"requested_status,omitempty"`
}

// WriteServiceError maps a service-layer error onto an HTTP response.
// Typed application errors carry their own category; database constraint
// violations that escaped the service layer map to conflict; everything else
// is an opaque 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, statusForCode(appErr.Code), errorBody{
			Error:           string(appErr.Code),
			Message:         appErr.Message,
			Field:           appErr.Field,
			CurrentStatus:   appErr.CurrentStatus,
			RequestedStatus: appErr.RequestedStatus,
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		WriteJSON(w, http.StatusGatewayTimeout, errorBody{
			Error: "timeout", Message: "Request timed out. Please try again.",
		})
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			WriteJSON(w, http.StatusConflict, errorBody{
				Error: "conflict", Message: "This record already exists.",
			})
			return
		case pgerrcode.ForeignKeyViolation:
			WriteJSON(w, http.StatusConflict, errorBody{
				Error: "conflict", Message: "A referenced record does not exist or is in use.",
			})
			return
		}
	}

	WriteJSON(w, http.StatusInternalServerError, errorBody{
		Error: "internal", Message: "An internal error occurred.",
	})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidTransition:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeGateway:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
