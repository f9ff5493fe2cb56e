package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
	"github.com/pribylovaa/go-workorders/auth-service/internal/storage"
)

// SaveAccount создаёт новый аккаунт в БД.
func (s *Storage) SaveAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts(id, name, email, password_hash, role, active, refresh_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.Active,
		account.RefreshTokenHash,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AccountByEmail находит аккаунт по email.
func (s *Storage) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.postgres.AccountByEmail"

	query := `
		SELECT id, name, email, password_hash, role, active, refresh_token_hash, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	return s.scanAccount(ctx, op, query, email)
}

// AccountByID находит аккаунт по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `
		SELECT id, name, email, password_hash, role, active, refresh_token_hash, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	return s.scanAccount(ctx, op, query, id)
}

// UpdateRefreshTokenHash атомарно перезаписывает хэш refresh-токена.
// nil очищает колонку (logout). Одиночный UPDATE — без чтения перед записью.
func (s *Storage) UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	const op = "storage.postgres.UpdateRefreshTokenHash"

	query := `
		UPDATE accounts
		SET refresh_token_hash = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (s *Storage) scanAccount(ctx context.Context, op, query string, arg any) (*models.Account, error) {
	var (
		account models.Account
		role    string
	)

	err := s.db.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.Active,
		&account.RefreshTokenHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account.Role = models.Role(role)

	return &account, nil
}
