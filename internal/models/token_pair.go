package models

// TokenPair — пара токенов, выдаваемая при регистрации, входе и обновлении.
//
//   - AccessToken — JWT на 1 час для доступа к API;
//   - RefreshToken — JWT на 7 дней, годится только для выпуска новой пары.
//
// На сервере ни один из них не хранится.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
