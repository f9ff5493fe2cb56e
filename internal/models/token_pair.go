package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации/логине.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, который клиент предъявляет для
//     выпуска нового access-токена; на сервере хранится только его хэш;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
//
// Пара никогда не персистится целиком: единица отзыва — хэш refresh-токена
// в Account.RefreshTokenHash, access-токен живёт до своего exp.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// AccessGrant — результат операции refresh: только новый access-токен,
// без ротации refresh-токена.
type AccessGrant struct {
	AccessToken     string
	AccessExpiresAt time.Time
}
