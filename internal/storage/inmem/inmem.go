// inmem — потокобезопасное хранилище учёток в памяти.
// Используется в unit/сквозных тестах и для локального запуска без БД;
// семантика ошибок совпадает с postgres-реализацией.
package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
	"github.com/pribylovaa/go-workorders/auth-service/internal/storage"
)

type Storage struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*models.Account
	emailIdx map[string]uuid.UUID
}

// New создаёт пустое in-memory хранилище.
func New() *Storage {
	return &Storage{
		byID:     make(map[uuid.UUID]*models.Account),
		emailIdx: make(map[string]uuid.UUID),
	}
}

// SaveAccount создаёт новый аккаунт; дубликат email — storage.ErrAlreadyExists.
func (s *Storage) SaveAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.inmem.SaveAccount"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emailIdx[account.Email]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.byID[account.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	cp := cloneAccount(account)
	s.byID[cp.ID] = cp
	s.emailIdx[cp.Email] = cp.ID

	return nil
}

// AccountByEmail находит аккаунт по email (регистрозависимо).
func (s *Storage) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.inmem.AccountByEmail"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIdx[email]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneAccount(s.byID[id]), nil
}

// AccountByID находит аккаунт по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.inmem.AccountByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneAccount(account), nil
}

// UpdateRefreshTokenHash атомарно перезаписывает хэш refresh-токена.
func (s *Storage) UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	const op = "storage.inmem.UpdateRefreshTokenHash"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if hash == nil {
		account.RefreshTokenHash = nil
	} else {
		h := *hash
		account.RefreshTokenHash = &h
	}
	account.UpdatedAt = time.Now().UTC()

	return nil
}

// ReplaceAccount целиком заменяет запись аккаунта (настройка сценариев
// в тестах: внешнее управление учётками — смена роли, деактивация).
// Смена email допустима, индекс перестраивается.
func (s *Storage) ReplaceAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.inmem.ReplaceAccount"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[account.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if prev.Email != account.Email {
		if _, taken := s.emailIdx[account.Email]; taken {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
		delete(s.emailIdx, prev.Email)
		s.emailIdx[account.Email] = account.ID
	}

	s.byID[account.ID] = cloneAccount(account)

	return nil
}

// Close — no-op для in-memory реализации.
func (s *Storage) Close() {}

// cloneAccount защищает внутреннее состояние от мутаций снаружи.
func cloneAccount(a *models.Account) *models.Account {
	cp := *a
	if a.RefreshTokenHash != nil {
		h := *a.RefreshTokenHash
		cp.RefreshTokenHash = &h
	}
	return &cp
}

// Проверка на соответствие интерфейсу Storage.
var _ storage.Storage = (*Storage)(nil)
