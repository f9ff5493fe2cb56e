package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Unit-тесты хэширования секретов: пароли, refresh-токены (длиннее
// 72-байтного лимита bcrypt) и клампинг стоимости.

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	hash, err := svc.hashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	require.True(t, checkPassword(hash, "secret1"))
	require.False(t, checkPassword(hash, "secret2"))
	require.False(t, checkPassword(hash, ""))
}

func TestHashPassword_SamePassword_DifferentHashes(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	h1, err := svc.hashPassword("secret1")
	require.NoError(t, err)
	h2, err := svc.hashPassword("secret1")
	require.NoError(t, err)

	// bcrypt солёный: одинаковые пароли дают разные хэши.
	require.NotEqual(t, h1, h2)
}

// Refresh-токен — JWT длиной далеко за 72 байта; прямой bcrypt на таком
// входе падает, через SHA-256-свёртку — работает.
func TestHashRefreshToken_LongInput(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	long := strings.Repeat("x", 300)

	_, err := bcrypt.GenerateFromPassword([]byte(long), bcrypt.MinCost)
	require.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)

	hash, err := svc.hashRefreshToken(long)
	require.NoError(t, err)
	require.True(t, checkRefreshToken(hash, long))
	require.False(t, checkRefreshToken(hash, long+"y"))
}

func TestDigestSecret_DeterministicAndBounded(t *testing.T) {
	t.Parallel()

	a := digestSecret(strings.Repeat("a", 1000))
	b := digestSecret(strings.Repeat("a", 1000))
	c := digestSecret("other")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Equal(t, 43, len(a)) // base64url(32 байта) без паддинга
}

func TestBcryptCost_Clamped(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		cost int
		want int
	}{
		{cost: 0, want: bcrypt.DefaultCost},
		{cost: bcrypt.MinCost - 1, want: bcrypt.DefaultCost},
		{cost: bcrypt.MaxCost + 1, want: bcrypt.DefaultCost},
		{cost: bcrypt.MinCost, want: bcrypt.MinCost},
		{cost: 12, want: 12},
	} {
		cfg := testCfg()
		cfg.BcryptCost = tc.cost
		svc := New(nil, cfg)
		require.Equal(t, tc.want, svc.bcryptCost(), "cost=%d", tc.cost)
	}
}
