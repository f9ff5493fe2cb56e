package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
	"github.com/pribylovaa/go-workorders/auth-service/internal/storage"
)

// Интеграционные тесты postgres-хранилища:
// - поднимают реальный PostgreSQL через testcontainers-go (postgres:16-alpine);
// - применяют миграцию из ./migrations (1_init_accounts.up.sql);
// - проверяют happy-path, уникальность email (регистрозависимую),
//   перезапись/очистку refresh_token_hash и ошибки контекста.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — корень репозитория относительно файла тестов.
// Нужен для поиска SQL-миграций независимо от рабочего каталога.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	root := repoRootFromThisFile()
	path := filepath.Join(root, "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — поднимает временный PostgreSQL, применяет миграцию accounts
// и возвращает инициализированное хранилище с функцией очистки.
// Если GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// применяем миграции.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_accounts.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func testAccount(email string) *models.Account {
	now := time.Now().UTC()
	return &models.Account{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		Role:         models.RoleAgent,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestIntegration_SaveAccount_And_Lookups_OK — happy-path:
// сохранение аккаунта и поиск по email/ID, сверка полей и таймстемпов.
func TestIntegration_SaveAccount_And_Lookups_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	acc := testAccount("alice@example.com")
	require.NoError(t, st.SaveAccount(context.Background(), acc))

	byEmail, err := st.AccountByEmail(context.Background(), acc.Email)
	require.NoError(t, err)
	require.Equal(t, acc.ID, byEmail.ID)
	require.Equal(t, acc.Name, byEmail.Name)
	require.Equal(t, models.RoleAgent, byEmail.Role)
	require.True(t, byEmail.Active)
	require.Nil(t, byEmail.RefreshTokenHash)
	require.WithinDuration(t, acc.CreatedAt, byEmail.CreatedAt, time.Second)
	require.WithinDuration(t, acc.UpdatedAt, byEmail.UpdatedAt, time.Second)

	byID, err := st.AccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	require.Equal(t, acc.Email, byID.Email)
}

// TestIntegration_SaveAccount_UniqueEmail_Violation — конфликт уникальности
// по email (тот же байтовый состав), ожидаем storage.ErrAlreadyExists.
func TestIntegration_SaveAccount_UniqueEmail_Violation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	require.NoError(t, st.SaveAccount(context.Background(), testAccount("dup@example.com")))

	err := st.SaveAccount(context.Background(), testAccount("dup@example.com"))
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_SaveAccount_EmailCaseSensitive — email хранится как TEXT:
// адрес с иным регистром — другой аккаунт, конфликта нет.
func TestIntegration_SaveAccount_EmailCaseSensitive(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	require.NoError(t, st.SaveAccount(context.Background(), testAccount("user@example.com")))
	require.NoError(t, st.SaveAccount(context.Background(), testAccount("USER@EXAMPLE.COM")))

	_, err := st.AccountByEmail(context.Background(), "User@Example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_UpdateRefreshTokenHash_SetOverwriteClear — жизненный цикл
// хэша сессии: запись, перезапись (вторая сессия), очистка (logout).
func TestIntegration_UpdateRefreshTokenHash_SetOverwriteClear(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	acc := testAccount("alice@example.com")
	require.NoError(t, st.SaveAccount(context.Background(), acc))

	h1 := "hash-1"
	require.NoError(t, st.UpdateRefreshTokenHash(context.Background(), acc.ID, &h1))

	got, err := st.AccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
	require.Equal(t, h1, *got.RefreshTokenHash)

	h2 := "hash-2"
	require.NoError(t, st.UpdateRefreshTokenHash(context.Background(), acc.ID, &h2))

	got, err = st.AccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	require.Equal(t, h2, *got.RefreshTokenHash)

	require.NoError(t, st.UpdateRefreshTokenHash(context.Background(), acc.ID, nil))

	got, err = st.AccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	require.Nil(t, got.RefreshTokenHash)
}

// TestIntegration_UpdateRefreshTokenHash_UnknownAccount — обновление хэша
// несуществующего аккаунта, ожидаем storage.ErrNotFound.
func TestIntegration_UpdateRefreshTokenHash_UnknownAccount(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	h := "hash"
	err := st.UpdateRefreshTokenHash(context.Background(), uuid.New(), &h)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_Lookups_NotFound — поиск отсутствующих записей,
// ожидаем storage.ErrNotFound.
func TestIntegration_Lookups_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.AccountByEmail(context.Background(), "absent@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.AccountByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_SaveAccount_ContextDeadlineExceeded — запрос с мгновенным
// дедлайном завершается context.DeadlineExceeded.
func TestIntegration_SaveAccount_ContextDeadlineExceeded(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	err := st.SaveAccount(ctx, testAccount("deadline@example.com"))
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestIntegration_Queries_ContextCanceled — отменённый контекст «просачивается»
// в ошибки чтения как context.Canceled.
func TestIntegration_Queries_ContextCanceled(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // отменяем заранее

	_, err := st.AccountByEmail(ctx, "user@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.AccountByID(ctx, uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
