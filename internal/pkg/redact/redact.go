// redact маскирует чувствительные данные перед записью в логи.
// Пароли и токены (access/refresh/reset) в логи не попадают никогда:
// вместо них пишется короткий отпечаток.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Email маскирует e-mail: первые две руны локальной части + "***", домен как есть.
// Если '@' не ровно один — возвращается "***".
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// EmailAttr — готовый slog-атрибут "email" с маской.
func EmailAttr(s string) slog.Attr {
	return slog.String("email", Email(s))
}

// Fingerprint возвращает первые 8 hex-символов SHA-256 от токена.
// Позволяет сопоставлять записи логов одного токена, не раскрывая его.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
