// service содержит бизнес-логику управления сессиями и учётными данными:
// регистрацию/аутентификацию сотрудников, выпуск/проверку токенов
// и работу с хранилищем через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - На аккаунт живёт не более одной сессии: login/register перезаписывают
//     хэш refresh-токена, обесценивая все ранее выданные refresh-токены.
//     Конкурентные login на один аккаунт гонятся; побеждает последняя запись.
//   - Ошибки возвращаются и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-workorders/auth-service/internal/cache"
	"github.com/pribylovaa/go-workorders/auth-service/internal/config"
	"github.com/pribylovaa/go-workorders/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна или аккаунт не найден.
	// Наружу неотличима от «пользователь не существует» — защита от перебора
	// зарегистрированных адресов. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive — учётные данные верны, но аккаунт отключён
	// внешним управлением учётками. Транспорт: 403.
	ErrAccountInactive = errors.New("account inactive")

	// ErrAccessDenied — refresh-токен отсутствует, не совпадает с хранимым
	// хэшем или сессия отозвана. Наружу неотличим от «аккаунт не найден».
	// Транспорт: 401.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи.
	// Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrEmailTaken — email уже занят другим аккаунтом. Транспорт: 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidRole — запрошенная роль вне допустимого множества.
	// Транспорт: 400.
	ErrInvalidRole = errors.New("invalid role")
)

// Service реализует управление сессиями и учётными данными.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	scache  cache.SessionCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}

// SetSessionCache устанавливает кэш сессий (опционально).
func (s *Service) SetSessionCache(c cache.SessionCache) {
	s.scache = c
}
