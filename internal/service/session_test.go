package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-workorders/auth-service/internal/config"
	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
	"github.com/pribylovaa/go-workorders/auth-service/internal/storage"
	"github.com/pribylovaa/go-workorders/auth-service/mocks"
)

// Unit-тесты операций сессии поверх mock-хранилища (gomock).
// Проверяются контракты ошибок, порядок проверок при логине
// и инварианты единственной сессии на аккаунт.

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:    "unit-access-secret",
		RefreshSecret:   "unit-refresh-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "auth-service",
		Audience:        []string{"workorders-api"},
		BcryptCost:      4, // MinCost: юнит-тесты не должны упираться в bcrypt
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg())
	return svc, st, ctrl
}

func mustHashPW(t *testing.T, svc *Service, pw string) string {
	t.Helper()
	h, err := svc.hashPassword(pw)
	require.NoError(t, err)
	return h
}

func activeAccount(t *testing.T, svc *Service, email, pw string) *models.Account {
	t.Helper()
	now := time.Now().UTC()
	return &models.Account{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: mustHashPW(t, svc, pw),
		Role:         models.RoleAgent,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRegister_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	var savedHash *string
	st.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash *string) error {
			savedHash = hash
			return nil
		})

	pair, view, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
		Role:     "agent",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.WithinDuration(t, time.Now().Add(svc.cfg.AccessTokenTTL), pair.AccessExpiresAt, 2*time.Second)

	// Персистится bcrypt-хэш refresh-токена, не сам токен.
	require.NotNil(t, savedHash)
	require.NotEqual(t, pair.RefreshToken, *savedHash)
	require.True(t, checkRefreshToken(*savedHash, pair.RefreshToken))

	// Публичная проекция без секретов.
	require.Equal(t, "Alice", view.Name)
	require.Equal(t, "alice@example.com", view.Email)
	require.Equal(t, models.RoleAgent, view.Role)
	require.True(t, view.Active)
}

func TestRegister_DefaultRole_IsViewer(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *models.Account) error {
			require.Equal(t, models.RoleViewer, a.Role)
			return nil
		})
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, view, err := svc.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleViewer, view.Role)
}

func TestRegister_InvalidRole(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "c@example.com",
		Password: "secret1",
		Role:     "superadmin",
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dup@example.com",
		Password: "secret1",
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_HashPersistFailed_NoPairLeaked(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("db down"))

	pair, view, err := svc.Register(context.Background(), RegisterInput{
		Email:    "e@example.com",
		Password: "secret1",
	})
	require.Error(t, err)
	require.Nil(t, pair)
	require.Nil(t, view)
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	acc := activeAccount(t, svc, "alice@example.com", "secret1")

	st.EXPECT().AccountByEmail(gomock.Any(), acc.Email).Return(acc, nil)
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), acc.ID, gomock.Any()).Return(nil)

	pair, view, err := svc.Login(context.Background(), acc.Email, "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, acc.ID, view.ID)
}

func TestLogin_UnknownEmail_SameErrorAsWrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().AccountByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	acc := activeAccount(t, svc, "alice@example.com", "secret1")
	st.EXPECT().AccountByEmail(gomock.Any(), acc.Email).Return(acc, nil)
	// UpdateRefreshTokenHash не ожидается: неуспешный логин сессию не трогает.

	_, _, err := svc.Login(context.Background(), acc.Email, "wrong-password")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveAccount_NoSessionWrite(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	acc := activeAccount(t, svc, "off@example.com", "secret1")
	acc.Active = false

	// Пароль верный, но аккаунт отключён: отказ ПОСЛЕ проверки пароля,
	// без записи хэша (отсутствие EXPECT на UpdateRefreshTokenHash).
	st.EXPECT().AccountByEmail(gomock.Any(), acc.Email).Return(acc, nil)

	_, _, err := svc.Login(context.Background(), acc.Email, "secret1")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefresh_OK_DoesNotRotateHash(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	acc := activeAccount(t, svc, "alice@example.com", "secret1")

	// Открываем сессию через Login и запоминаем сохранённый хэш.
	var savedHash string
	st.EXPECT().AccountByEmail(gomock.Any(), acc.Email).Return(acc, nil)
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), acc.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash *string) error {
			savedHash = *hash
			return nil
		})

	pair, _, err := svc.Login(context.Background(), acc.Email, "secret1")
	require.NoError(t, err)

	// Refresh читает аккаунт и НЕ пишет хэш (ротации нет).
	acc.RefreshTokenHash = &savedHash
	st.EXPECT().AccountByID(gomock.Any(), acc.ID).Return(acc, nil)

	grant, err := svc.Refresh(context.Background(), acc.ID, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, grant.AccessToken)
	require.WithinDuration(t, time.Now().Add(svc.cfg.AccessTokenTTL), grant.AccessExpiresAt, 2*time.Second)

	// Новый access-токен валиден и несёт исходные claims.
	claims, err := svc.ValidateAccessToken(grant.AccessToken)
	require.NoError(t, err)
	require.Equal(t, acc.ID, claims.AccountID)
	require.Equal(t, acc.Email, claims.Email)
	require.Equal(t, acc.Role, claims.Role)
}

func TestRefresh_StaleToken_AfterSecondLogin(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	acc := activeAccount(t, svc, "alice@example.com", "secret1")

	var lastHash string
	st.EXPECT().AccountByEmail(gomock.Any(), acc.Email).Return(acc, nil).Times(2)
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), acc.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash *string) error {
			lastHash = *hash
			return nil
		}).Times(2)

	first, _, err := svc.Login(context.Background(), acc.Email, "secret1")
	require.NoError(t, err)

	// Вторая сессия обесценивает первую: хранится только последний хэш.
	_, _, err = svc.Login(context.Background(), acc.Email, "secret1")
	require.NoError(t, err)

	acc.RefreshTokenHash = &lastHash
	st.EXPECT().AccountByID(gomock.Any(), acc.ID).Return(acc, nil)

	_, err = svc.Refresh(context.Background(), acc.ID, first.RefreshToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestRefresh_NoActiveSession(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	acc := activeAccount(t, svc, "alice@example.com", "secret1")
	acc.RefreshTokenHash = nil

	st.EXPECT().AccountByID(gomock.Any(), acc.ID).Return(acc, nil)

	_, err := svc.Refresh(context.Background(), acc.ID, "some-refresh-token")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestRefresh_InactiveAccount(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	hash := "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefake"
	acc := activeAccount(t, svc, "off@example.com", "secret1")
	acc.Active = false
	acc.RefreshTokenHash = &hash

	st.EXPECT().AccountByID(gomock.Any(), acc.ID).Return(acc, nil)

	_, err := svc.Refresh(context.Background(), acc.ID, "some-refresh-token")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestRefresh_UnknownAccount(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().AccountByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	_, err := svc.Refresh(context.Background(), id, "some-refresh-token")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestLogout_ClearsHash(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), id, gomock.Nil()).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), id))
}

func TestLogout_Idempotent_UnknownAccount(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), id, gomock.Nil()).
		Return(storage.ErrNotFound)

	require.NoError(t, svc.Logout(context.Background(), id))
}

func TestLogout_StorageError_Propagates(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), id, gomock.Nil()).
		Return(errors.New("db down"))

	require.Error(t, svc.Logout(context.Background(), id))
}

func TestProfile_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	acc := activeAccount(t, svc, "alice@example.com", "secret1")
	st.EXPECT().AccountByID(gomock.Any(), acc.ID).Return(acc, nil)

	view, err := svc.Profile(context.Background(), acc.ID)
	require.NoError(t, err)
	require.Equal(t, acc.ID, view.ID)
	require.Equal(t, acc.Email, view.Email)
}

func TestProfile_NotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().AccountByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	_, err := svc.Profile(context.Background(), id)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAccessDenied)
}
