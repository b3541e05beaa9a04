package logging

import (
	"net/url"
	"regexp"
	"strings"
)

// Query parameters whose values never reach the log.
var sensitiveParams = []string{
	"token",
	"access_token",
	"api_key",
	"apikey",
	"password",
	"secret",
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._~+/=-]{8,})`),
	regexp.MustCompile(`(?i)basic\s+([a-zA-Z0-9+/=]{8,})`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces credentials embedded in free text.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// RedactURL strips the password from userinfo and masks sensitive query
// parameters. Unparseable input goes through Redact.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Redact(raw)
	}
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if IsSensitiveField(key) {
				q.Set(key, RedactedValue)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveParams {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
