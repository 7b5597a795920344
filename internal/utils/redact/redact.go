package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Level controls how much of an identifier survives in logs.
type Level string

const (
	// LevelNone replaces values entirely.
	LevelNone Level = "none"
	// LevelHashed replaces values with a salted hash prefix.
	LevelHashed Level = "hashed"
	// LevelFull keeps values as they are. Development only.
	LevelFull Level = "full"
)

const redacted = "[REDACTED]"

// Sanitizer masks credential material and principal identifiers before they reach logs or the audit log.
type Sanitizer struct {
	level Level
	salt  string

	accessKeyPattern *regexp.Regexp
	secretPattern    *regexp.Regexp
}

// NewSanitizer creates a sanitizer. An unknown level behaves like LevelHashed.
func NewSanitizer(level Level, salt string) *Sanitizer {
	return &Sanitizer{
		level:            level,
		salt:             salt,
		accessKeyPattern: regexp.MustCompile(`\b(?:AKIA|ASIA)[A-Z0-9]{12,}\b`),
		secretPattern:    regexp.MustCompile(`(?i)((?:secret(?:accesskey)?|sessiontoken|x-amz-security-token)["'=:\s]+)[A-Za-z0-9/+=]{16,}`),
	}
}

// AccessKeyID keeps the first and last four characters of a key id.
// Key ids are not secret but are still shortened so full ids never appear in logs.
func (s *Sanitizer) AccessKeyID(keyID string) string {
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return ""
	}
	if s.level == LevelFull {
		return keyID
	}
	if len(keyID) <= 8 {
		return strings.Repeat("*", len(keyID))
	}
	return keyID[:4] + strings.Repeat("*", len(keyID)-8) + keyID[len(keyID)-4:]
}

// Secret never returns its input.
func (s *Sanitizer) Secret(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

// Principal masks a user id according to the configured level.
func (s *Sanitizer) Principal(userID string) string {
	if userID == "" {
		return ""
	}

	switch s.level {
	case LevelNone:
		return redacted
	case LevelFull:
		return userID
	default:
		return s.hash(userID)
	}
}

// Text scrubs access key ids and secret-looking assignments from free text such as error messages.
func (s *Sanitizer) Text(input string) string {
	if s.level == LevelFull {
		return input
	}

	result := s.secretPattern.ReplaceAllString(input, "${1}"+redacted)
	result = s.accessKeyPattern.ReplaceAllStringFunc(result, s.AccessKeyID)
	return result
}

func (s *Sanitizer) hash(data string) string {
	h := sha256.New()
	h.Write([]byte(data + s.salt))
	return hex.EncodeToString(h.Sum(nil))[:8]
}
