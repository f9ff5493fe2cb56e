package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/go-workorders/auth-service/internal/models"
	"github.com/pribylovaa/go-workorders/auth-service/internal/pkg/log"
)

// tokenClaims — общий набор claims для access- и refresh-токенов.
// Subject несёт ID аккаунта; email и role дублируются явными полями,
// чтобы потребители не ходили за ними в хранилище.
type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Claims — проверенные данные access-токена для авторизации запросов.
type Claims struct {
	AccountID uuid.UUID
	Email     string
	Role      models.Role
}

// issueTokenPair выпускает пару access+refresh токенов с одним набором
// claims, но независимыми секретами и TTL. Подписи выполняются конкурентно:
// порядок между ними не важен, важны обе.
func (s *Service) issueTokenPair(ctx context.Context, account *models.Account, now time.Time) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	var (
		access  string
		refresh string
	)

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		access, err = s.signToken(account, now, s.cfg.AccessSecret, s.cfg.AccessTokenTTL)
		return err
	})

	g.Go(func() error {
		var err error
		refresh, err = s.signToken(account, now, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
		return err
	})

	if err := g.Wait(); err != nil {
		log.From(ctx).Error("token_pair_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// signAccessToken выпускает одиночный access-токен (операция refresh).
func (s *Service) signAccessToken(account *models.Account, now time.Time) (string, error) {
	return s.signToken(account, now, s.cfg.AccessSecret, s.cfg.AccessTokenTTL)
}

// signToken подписывает токен с заданным секретом и TTL.
func (s *Service) signToken(account *models.Account, now time.Time, secret string, ttl time.Duration) (string, error) {
	const op = "service.token.signToken"

	claims := tokenClaims{
		Email: account.Email,
		Role:  string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// parseToken валидирует подпись/срок/issuer/audience и возвращает claims.
func (s *Service) parseToken(tokenStr, secret string) (*tokenClaims, error) {
	const op = "service.token.parseToken"

	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// ValidateAccessToken проверяет access-токен и возвращает его claims.
func (s *Service) ValidateAccessToken(tokenStr string) (*Claims, error) {
	const op = "service.token.ValidateAccessToken"

	claims, err := s.parseToken(tokenStr, s.cfg.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claimsFrom(op, claims)
}

// VerifyRefreshToken проверяет подпись и срок refresh-токена и возвращает
// ID аккаунта из claims. Совпадение с хранимым хэшем здесь НЕ проверяется —
// это предусловие операции Refresh, а не она сама.
func (s *Service) VerifyRefreshToken(tokenStr string) (uuid.UUID, error) {
	const op = "service.token.VerifyRefreshToken"

	claims, err := s.parseToken(tokenStr, s.cfg.RefreshSecret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return id, nil
}

func claimsFrom(op string, tc *tokenClaims) (*Claims, error) {
	id, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	role, ok := models.ParseRole(tc.Role)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &Claims{
		AccountID: id,
		Email:     tc.Email,
		Role:      role,
	}, nil
}
