package models

// ValidationResult — итог проверки: Valid=false, если есть хотя бы одна ошибка.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Valid — результат без ошибок.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid собирает результат из сообщений; пустой список даёт валидный результат.
func Invalid(errs ...string) ValidationResult {
	if len(errs) == 0 {
		return Valid()
	}

	return ValidationResult{Valid: false, Errors: errs}
}

// MissingField — сообщение об отсутствующем обязательном поле.
func MissingField(name string) string {
	return "Missing required field: " + name
}

// WrongType — сообщение о поле неверного типа.
func WrongType(name, want string) string {
	return "Invalid type for field: " + name + " (expected " + want + ")"
}
