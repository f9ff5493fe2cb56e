package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
	"github.com/pribylovaa/go-workorders/auth-service/internal/service"
)

// registerRequest — тело POST /auth/register.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// loginRequest — тело POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest — тело POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// sessionResponse — ответ register/login: пара токенов плюс публичная
// проекция аккаунта.
type sessionResponse struct {
	AccessToken     string              `json:"access_token"`
	RefreshToken    string              `json:"refresh_token"`
	AccessExpiresAt int64               `json:"access_expires_at"`
	Account         *models.AccountView `json:"account"`
}

// refreshResponse — ответ refresh: только новый access-токен,
// refresh-токен не ротируется.
type refreshResponse struct {
	AccessToken     string `json:"access_token"`
	AccessExpiresAt int64  `json:"access_expires_at"`
}

// Register — POST /auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeStrict(r, &req); err != nil {
		writeInvalidArgument(w, r)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeInvalidArgument(w, r)
		return
	}

	pair, account, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
		Account:         account,
	})
}

// Login — POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(r, &req); err != nil {
		writeInvalidArgument(w, r)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeInvalidArgument(w, r)
		return
	}

	pair, account, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
		Account:         account,
	})
}

// Refresh — POST /auth/refresh.
// Refresh-токен сначала проверяется криптографически (подпись/exp под
// refresh-секретом), затем сверяется с хэшом активной сессии в service.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeStrict(r, &req); err != nil {
		writeInvalidArgument(w, r)
		return
	}

	if req.RefreshToken == "" {
		writeInvalidArgument(w, r)
		return
	}

	accountID, err := h.svc.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	grant, err := h.svc.Refresh(r.Context(), accountID, req.RefreshToken)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:     grant.AccessToken,
		AccessExpiresAt: grant.AccessExpiresAt.Unix(),
	})
}

// Logout — POST /auth/logout.
// Аутентификация — по access-токену в Authorization: Bearer.
// Повторный logout без активной сессии — тоже 204 (идемпотентность).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := h.bearerClaims(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.Logout(r.Context(), claims.AccountID); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me — GET /auth/me: публичная проекция аккаунта владельца access-токена.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := h.bearerClaims(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	account, err := h.svc.Profile(r.Context(), claims.AccountID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
