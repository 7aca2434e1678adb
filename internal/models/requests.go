// Входные/выходные модели REST-эндпоинтов. JSON-ключи — camelCase, как в контракте API.
package models

// RegisterRequest — POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() ValidationResult {
	return required(field{"email", r.Email}, field{"password", r.Password})
}

// LoginRequest — POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() ValidationResult {
	return required(field{"email", r.Email}, field{"password", r.Password})
}

// RefreshRequest — POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshRequest) Validate() ValidationResult {
	return required(field{"refreshToken", r.RefreshToken})
}

// ResetRequest — POST /auth/password-reset/request.
type ResetRequest struct {
	Email string `json:"email"`
}

func (r ResetRequest) Validate() ValidationResult {
	return required(field{"email", r.Email})
}

// ResetCompleteRequest — POST /auth/password-reset/complete.
type ResetCompleteRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

func (r ResetCompleteRequest) Validate() ValidationResult {
	return required(field{"resetToken", r.ResetToken}, field{"newPassword", r.NewPassword})
}

// ProfileUpdateRequest — PUT /users/{userId}.
type ProfileUpdateRequest struct {
	DisplayName string `json:"displayName"`
}

func (r ProfileUpdateRequest) Validate() ValidationResult {
	return required(field{"displayName", r.DisplayName})
}

// AuthResponse — ответ регистрации и входа.
type AuthResponse struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ResetRequestResponse — ответ на запрос сброса; форма одинакова
// независимо от того, существует ли аккаунт.
type ResetRequestResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
}

// MessageResponse — ответ с одним сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

type field struct {
	name  string
	value string
}

func required(fields ...field) ValidationResult {
	var errs []string
	for _, f := range fields {
		if f.value == "" {
			errs = append(errs, MissingField(f.name))
		}
	}

	return Invalid(errs...)
}
