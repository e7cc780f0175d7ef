package logger

import "strings"

// RedactToken masks an API credential for safe logging, keeping just enough
// of the tail to correlate with a provider dashboard.
// "EAABsbCS1234567890" → "***7890"; values of 8 chars or fewer are fully masked.
func RedactToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return "***" + token[len(token)-4:]
}

var secretKeys = []string{"token", "secret", "password", "api_key", "apikey", "credential"}

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(key, k) {
			return RedactToken(val)
		}
	}
	return val
}
