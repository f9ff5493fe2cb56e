package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Пароли и refresh-токены — это «секреты, предъявляемые позже для сравнения»,
// поэтому оба хэшируются одним медленным примитивом (bcrypt, cost из конфига).
// Отличие одно: bcrypt не принимает вход длиннее 72 байт, а refresh-токен —
// это JWT заметно длиннее, поэтому перед bcrypt он сворачивается в SHA-256.

// hashPassword хэширует пароль с помощью bcrypt.
func (s *Service) hashPassword(password string) (string, error) {
	const op = "service.password.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем за константное время.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// hashRefreshToken хэширует refresh-токен для хранения.
func (s *Service) hashRefreshToken(plain string) (string, error) {
	const op = "service.password.hashRefreshToken"

	bytes, err := bcrypt.GenerateFromPassword(digestSecret(plain), s.bcryptCost())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkRefreshToken сравнивает предъявленный refresh-токен с хранимым хэшем.
func checkRefreshToken(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), digestSecret(plain)) == nil
}

// digestSecret сворачивает секрет произвольной длины в 43 байта base64(SHA-256).
func digestSecret(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.RawURLEncoding.EncodeToString(sum[:]))
}

func (s *Service) bcryptCost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}

	return s.cfg.BcryptCost
}
