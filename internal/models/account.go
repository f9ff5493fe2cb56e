package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — закрытое множество ролей сотрудников.
type Role string

const (
	// RoleAdmin — администратор: полный доступ к заказ-нарядам и учёткам.
	RoleAdmin Role = "admin"
	// RoleAgent — исполнитель: работает с назначенными заказ-нарядами.
	RoleAgent Role = "agent"
	// RoleViewer — наблюдатель: только чтение. Роль по умолчанию.
	RoleViewer Role = "viewer"
)

// ParseRole приводит строку к Role. Пустая строка — RoleViewer (дефолт
// регистрации). Неизвестное значение — ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleAgent, RoleViewer:
		return Role(s), true
	case "":
		return RoleViewer, true
	default:
		return "", false
	}
}

// Account — учётная запись сотрудника.
//
// RefreshTokenHash — хэш последнего выданного refresh-токена; nil означает
// отсутствие живой сессии. На аккаунт хранится не более одного хэша:
// каждая новая сессия перезаписывает его, делая все ранее выданные
// refresh-токены непригодными (политика единственной активной сессии).
//
// Active выставляется внешним управлением учётками; этот сервис его только
// читает: при Active == false все операции аутентификации отклоняются.
type Account struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	Active           bool
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AccountView — публичная проекция Account для ответов наружу.
// Строится явно через View(); PasswordHash и RefreshTokenHash в неё
// не попадают никогда.
type AccountView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View возвращает публичную проекцию аккаунта.
func (a *Account) View() *AccountView {
	return &AccountView{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
