package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (аккаунт).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// AccountStorage выполняет операции над учётками сотрудников.
type AccountStorage interface {
	// SaveAccount создаёт новый аккаунт. Дубликат email — ErrAlreadyExists:
	// за отклонение дубликатов отвечает хранилище, а не вызывающий слой.
	SaveAccount(ctx context.Context, account *models.Account) error
	// AccountByEmail находит аккаунт по email (регистрозависимо, как хранится).
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// AccountByID находит аккаунт по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// UpdateRefreshTokenHash атомарно перезаписывает хэш refresh-токена
	// (nil — очистка, т.е. logout). Одиночный UPDATE без read-modify-write:
	// при конкурентных login/logout побеждает последняя запись.
	UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
}

// Storage задаёт контракт работы с хранилищем учёток.
type Storage interface {
	AccountStorage
	Close()
}
