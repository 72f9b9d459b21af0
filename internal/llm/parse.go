package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanJSON strips the decoration models wrap around structured output:
// markdown code fences and any prose before the first brace or after the
// last one.
func CleanJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}

// DecodeObject parses generated text into v. The text is treated as
// untrusted: decoration is stripped first, and any parse failure is
// returned for the caller to handle with an explicit fallback.
func DecodeObject(text string, v any) error {
	cleaned := CleanJSON(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parse generated output: %w", err)
	}
	return nil
}
