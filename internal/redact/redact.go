// Package redact replaces secrets and personal identifiers in free text with
// [REDACTED] before it is sent to an AI provider.
package redact

import "regexp"

var patterns []*regexp.Regexp

func init() {
	raw := []string{
		// Private key blocks
		`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`,
		// Bearer tokens
		`Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
		// Generic key/secret/token/password assignments
		`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)\s*[:=]\s*\S+`,
		// Email addresses
		`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
		// National ID numbers (18 characters, last may be X)
		`\b\d{17}[\dXx]\b`,
		// Mainland mobile numbers
		`\b1[3-9]\d{9}\b`,
		// International numbers with a leading +
		`\+\d{1,3}[\s-]?\d{2,4}[\s-]?\d{3,4}[\s-]?\d{3,4}\b`,
		// North American numbers
		`(\(\d{3}\)\s?|\b\d{3}[-.])\d{3}[-.]\d{4}\b`,
	}
	for _, r := range raw {
		patterns = append(patterns, regexp.MustCompile(r))
	}
}

// Redact replaces secret and personal data patterns in text with [REDACTED].
func Redact(text string) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, "[REDACTED]")
	}
	return text
}
