// redact — маскирование чувствительных значений в логах.
// Секреты (пароли, токены, их хэши) в логи не попадают никогда;
// email маскируется до первых двух символов локальной части.
package redact

import "strings"

// Email маскирует локальную часть адреса: "foobar@example.com" -> "fo***@example.com".
// Строки без единственного '@' маскируются целиком. Локальная часть короче
// трёх рун скрывается полностью, срез — по рунам, не по байтам.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	masked := "***"
	if len(local) > 2 {
		masked = string(local[:2]) + "***"
	}

	return masked + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
