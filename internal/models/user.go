package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись: идентичность и учётные данные.
//
// Инварианты:
//   - PasswordHash — всегда bcrypt-хэш, никогда не plaintext;
//   - Reset == nil, если активного reset-токена нет; иначе все его поля заполнены.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Reset        *ResetToken
}

// ResetToken — сохранённая часть одноразового токена сброса пароля.
// Сам токен хранится только у клиента.
type ResetToken struct {
	// Lookup — SHA-256 (base64url) от токена, ключ индекса для поиска пользователя.
	Lookup string
	// Hash — bcrypt-хэш токена, по нему выполняется проверка.
	Hash string
	// ExpiresAt — момент истечения (UTC).
	ExpiresAt time.Time
}

// Profile — публичное представление пользователя для /users/{userId}.
// Пароль и поля сброса сюда не попадают.
type Profile struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProfileOf строит публичный профиль.
func ProfileOf(u *User) Profile {
	return Profile{
		UserID:      u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
