package logging

import (
	"regexp"
)

// Sanitizer redacts sensitive information from log messages.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with default patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns(),
		redacted: "[REDACTED]",
	}
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// GitHub tokens
		`gh[pousr]_[A-Za-z0-9]{36}`,
		// AWS Access Key
		`AKIA[0-9A-Z]{16}`,
		// Slack tokens
		`xox[baprs]-[0-9a-zA-Z-]{10,}`,
		// Provider API keys
		`sk-(?:ant-)?[A-Za-z0-9-]{20,}`,
		// Generic Bearer tokens
		`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
		// Credentials embedded in URLs
		`://[^/\s:@"]+:[^/\s@"]+@`,
		// Generic key=value secrets
		`(?i)(?:api[_-]?key|secret|password|token)\s*["']?\s*[:=]\s*["']?[^\s"']{8,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// envChange matches the quoted value(s) in an environment leak message for
// a variable whose name suggests a secret:
//
//	Environment variable changed: "API_TOKEN" added: "abc"
//	Environment variable changed: "DB_PASSWORD" changed: "a" -> "b"
//	Environment variable changed: "SECRET_KEY" deleted (was "abc")
var envChange = regexp.MustCompile(
	`"[A-Za-z0-9_]*(?i:token|secret|passw(?:or)?d|api_?key|private_?key|credential)[A-Za-z0-9_]*" (?:added: |changed: |deleted \(was )"(?:[^"\\]|\\.)*"(?: -> "(?:[^"\\]|\\.)*")?`)

var envValue = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := envChange.ReplaceAllStringFunc(input, s.redactEnvChange)
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return result
}

// redactEnvChange keeps the variable name and replaces each value.
func (s *Sanitizer) redactEnvChange(match string) string {
	name := envValue.FindStringIndex(match)
	if name == nil {
		return match
	}
	head, tail := match[:name[1]], match[name[1]:]
	return head + envValue.ReplaceAllString(tail, `"`+s.redacted+`"`)
}

// SanitizeMap redacts values in a map.
func (s *Sanitizer) SanitizeMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range m {
		switch val := v.(type) {
		case string:
			result[k] = s.Sanitize(val)
		case []string:
			out := make([]string, len(val))
			for i, item := range val {
				out[i] = s.Sanitize(item)
			}
			result[k] = out
		case map[string]interface{}:
			result[k] = s.SanitizeMap(val)
		default:
			result[k] = v
		}
	}
	return result
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}

// SetRedactedPlaceholder sets the placeholder text for redacted content.
func (s *Sanitizer) SetRedactedPlaceholder(placeholder string) {
	s.redacted = placeholder
}
