package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-workorders/auth-service/internal/service"
)

// Маппинг ошибок доменного слоя в HTTP:
//   - ErrInvalidRole                               -> 400 invalid_argument;
//   - ErrInvalidCredentials                        -> 401 invalid_credentials;
//   - ErrAccessDenied/ErrInvalidToken/ErrTokenExpired -> 401 access_denied
//     (наружу неразличимы: защита от перебора аккаунтов);
//   - ErrAccountInactive                           -> 403 account_inactive;
//   - ErrEmailTaken                                -> 409 already_exists;
//   - context.DeadlineExceeded                     -> 504 deadline_exceeded;
//   - прочее (недоступность хранилища и т.п.)      -> 500 internal,
//     без раскрытия деталей; подробности — в логах.

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе об ошибке.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WriteError пишет корректный статус/тело, добавляет request_id из заголовка.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := mapError(err)

	resp := ErrorResponse{Error: APIError{Code: code, Message: msg}}
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	writeJSON(w, status, resp)
}

// writeInvalidArgument — локальная ошибка парсинга тела запроса.
func writeInvalidArgument(w http.ResponseWriter, r *http.Request) {
	resp := ErrorResponse{Error: APIError{Code: "invalid_argument", Message: "invalid argument"}}
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	writeJSON(w, http.StatusBadRequest, resp)
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "access_denied", "access denied"
	case errors.Is(err, service.ErrAccountInactive):
		return http.StatusForbidden, "account_inactive", "account inactive"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "already_exists", "email already taken"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
