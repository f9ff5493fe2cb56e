package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-workorders/auth-service/internal/cache"
	"github.com/pribylovaa/go-workorders/auth-service/internal/metrics"
	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
	"github.com/pribylovaa/go-workorders/auth-service/internal/pkg/log"
	"github.com/pribylovaa/go-workorders/auth-service/internal/pkg/redact"
	"github.com/pribylovaa/go-workorders/auth-service/internal/storage"
)

// RegisterInput — данные регистрации сотрудника. Формат email и длина пароля
// уже проверены валидирующим слоем выше; здесь проверяется только роль.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register создаёт аккаунт и открывает для него сессию.
// За отклонение дубликата email отвечает хранилище (уникальный индекс);
// ErrAlreadyExists маппится в ErrEmailTaken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.TokenPair, *models.AccountView, error) {
	const op = "service.session.Register"

	role, ok := models.ParseRole(in.Role)
	if !ok {
		metrics.ObserveRegistration("invalid_role")
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		metrics.ObserveRegistration("error")
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			metrics.ObserveRegistration("duplicate")
			return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		metrics.ObserveRegistration("error")
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.openSession(ctx, account)
	if err != nil {
		metrics.ObserveRegistration("error")
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveRegistration("ok")
	log.From(ctx).Info("account_registered",
		slog.String("account_id", account.ID.String()),
		slog.String("email", redact.Email(account.Email)),
		slog.String("role", string(account.Role)),
	)

	return pair, account.View(), nil
}

// Login выполняет вход по email+пароль.
// Порядок проверок фиксирован: поиск -> пароль -> активность. Отказ на
// первых двух шагах наружу одинаков (ErrInvalidCredentials), чтобы не
// раскрывать существование адреса.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, *models.AccountView, error) {
	const op = "service.session.Login"

	account, err := s.storage.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.ObserveLogin("invalid_credentials")
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		metrics.ObserveLogin("error")
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(account.PasswordHash, password) {
		metrics.ObserveLogin("invalid_credentials")
		log.From(ctx).Warn("login_password_mismatch",
			slog.String("op", op),
			slog.String("email", redact.Email(email)),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !account.Active {
		metrics.ObserveLogin("inactive")
		return nil, nil, fmt.Errorf("%s: %w", op, ErrAccountInactive)
	}

	pair, err := s.openSession(ctx, account)
	if err != nil {
		metrics.ObserveLogin("error")
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveLogin("ok")

	return pair, account.View(), nil
}

// Refresh выпускает новый access-токен по действующему refresh-токену.
//
// accountID берётся из claims уже проверенного (подпись/срок —
// VerifyRefreshToken) refresh-токена; здесь предъявленная строка сверяется
// с хранимым хэшем. Хэш сессии при этом НЕ мутирует: ротации refresh-токена
// в этом контракте нет.
func (s *Service) Refresh(ctx context.Context, accountID uuid.UUID, rawRefresh string) (*models.AccessGrant, error) {
	const op = "service.session.Refresh"

	sess, err := s.sessionSnapshot(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.ObserveRefresh("denied")
			return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
		}

		metrics.ObserveRefresh("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !sess.Active || sess.RefreshTokenHash == "" {
		metrics.ObserveRefresh("denied")
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	if !checkRefreshToken(sess.RefreshTokenHash, rawRefresh) {
		metrics.ObserveRefresh("denied")
		log.From(ctx).Warn("refresh_hash_mismatch",
			slog.String("op", op),
			slog.String("account_id", accountID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	// Повреждённый снимок (например, роль вне допустимого множества)
	// не должен превратиться в токен с пустой ролью.
	role, ok := models.ParseRole(sess.Role)
	if !ok {
		metrics.ObserveRefresh("denied")
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}

	now := time.Now().UTC()
	access, err := s.signAccessToken(&models.Account{
		ID:    accountID,
		Email: sess.Email,
		Role:  role,
	}, now)
	if err != nil {
		metrics.ObserveRefresh("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveRefresh("ok")

	return &models.AccessGrant{
		AccessToken:     access,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// Logout закрывает сессию аккаунта: хэш refresh-токена очищается
// безусловно. Идемпотентен — повторный logout (и logout несуществующего
// аккаунта) завершается успешно.
//
// Ошибка удаления сессионного снимка из кэша возвращается наружу:
// пока снимок жив, отозванный refresh-токен проходил бы проверку по
// кэшу. Вызывающий повторяет logout до успеха.
func (s *Service) Logout(ctx context.Context, accountID uuid.UUID) error {
	const op = "service.session.Logout"

	if err := s.storage.UpdateRefreshTokenHash(ctx, accountID, nil); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.dropCachedSession(ctx, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveLogout()

	return nil
}

// Profile возвращает публичную проекцию аккаунта.
func (s *Service) Profile(ctx context.Context, accountID uuid.UUID) (*models.AccountView, error) {
	const op = "service.session.Profile"

	account, err := s.storage.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account.View(), nil
}

// openSession выпускает пару токенов и персистит хэш refresh-токена.
// Выпуск и запись — единое целое: если запись не удалась, пара наружу
// не отдаётся, рабочий токен без валидируемой сессии не утекает. Запись
// хэша перезаписывает прежний — предыдущая сессия аккаунта гаснет.
func (s *Service) openSession(ctx context.Context, account *models.Account) (*models.TokenPair, error) {
	const op = "service.session.openSession"

	now := time.Now().UTC()

	pair, err := s.issueTokenPair(ctx, account, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hashRefreshToken(pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateRefreshTokenHash(ctx, account.ID, &hash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cacheSession(ctx, account, hash); err != nil {
		// В кэше мог остаться снимок прежней сессии аккаунта; его
		// нужно снять, иначе Refresh продолжал бы принимать уже
		// перезаписанный токен. Не вышло и это — сессия не открыта.
		if err := s.dropCachedSession(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return pair, nil
}

// sessionSnapshot отдаёт сессионный снимок аккаунта: сперва кэш, при
// промахе — хранилище (с прогревом кэша).
func (s *Service) sessionSnapshot(ctx context.Context, accountID uuid.UUID) (*cache.Session, error) {
	const op = "service.session.sessionSnapshot"

	if s.scache != nil {
		sess, ok, err := s.scache.Get(ctx, accountID)
		if err != nil {
			log.From(ctx).Warn("session_cache_get_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if ok {
			return sess, nil
		}
	}

	account, err := s.storage.AccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash := ""
	if account.RefreshTokenHash != nil {
		hash = *account.RefreshTokenHash
	}

	sess := &cache.Session{
		RefreshTokenHash: hash,
		Email:            account.Email,
		Role:             string(account.Role),
		Active:           account.Active,
	}

	if s.scache != nil && hash != "" {
		if err := s.scache.Set(ctx, accountID, sess, s.cfg.RefreshTokenTTL); err != nil {
			log.From(ctx).Warn("session_cache_set_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return sess, nil
}

// cacheSession обновляет снимок сессии после записи нового хэша.
// Источник истины — хранилище, но устаревший снимок опаснее промаха,
// поэтому ошибку записи разбирает вызывающий.
func (s *Service) cacheSession(ctx context.Context, account *models.Account, hash string) error {
	if s.scache == nil {
		return nil
	}

	sess := &cache.Session{
		RefreshTokenHash: hash,
		Email:            account.Email,
		Role:             string(account.Role),
		Active:           account.Active,
	}

	if err := s.scache.Set(ctx, account.ID, sess, s.cfg.RefreshTokenTTL); err != nil {
		log.From(ctx).Warn("session_cache_set_failed",
			slog.String("err", err.Error()),
		)
		return err
	}

	return nil
}

func (s *Service) dropCachedSession(ctx context.Context, accountID uuid.UUID) error {
	if s.scache == nil {
		return nil
	}

	if err := s.scache.Delete(ctx, accountID); err != nil {
		log.From(ctx).Warn("session_cache_delete_failed",
			slog.String("err", err.Error()),
		)
		return err
	}

	return nil
}
