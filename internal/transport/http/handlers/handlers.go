// handlers содержит HTTP-эндпоинты аутентификации.
// Здесь выполняется только маппинг данных и ошибок доменного слоя (service)
// в HTTP. Вся бизнес-логика находится в пакете service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/go-workorders/auth-service/internal/service"
	"github.com/pribylovaa/go-workorders/auth-service/internal/transport/http/middleware"
)

// Handlers агрегирует зависимости эндпоинтов.
type Handlers struct {
	svc *service.Service
}

func New(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// bearerClaims достаёт bearer-токен из контекста (мидлвар AuthBearer)
// и валидирует его как access-токен. Отсутствие токена — ErrInvalidToken.
func (h *Handlers) bearerClaims(r *http.Request) (*service.Claims, error) {
	token, _ := r.Context().Value(middleware.CtxAuthToken).(string)
	if token == "" {
		return nil, service.ErrInvalidToken
	}

	return h.svc.ValidateAccessToken(token)
}
