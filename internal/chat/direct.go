package chat

import (
	"context"
	"strings"
	"unicode"

	"netquery/internal/logging"
)

// askPrefix triggers the sufficiency check in the basic profile.
const askPrefix = "/ask"

// handleDirect is the non-agentic dispatch: a /ask-prefixed message is
// sufficiency-checked, anything else goes straight through the
// synthesize-execute pipeline.
func (s *Session) handleDirect(ctx context.Context, message string) (string, error) {
	if strings.HasPrefix(message, askPrefix) {
		task := strings.TrimSpace(strings.TrimPrefix(message, askPrefix))
		logging.Session("Session %s: sufficiency check for %q", s.id, task)

		verdict, err := s.checker.Check(ctx, task)
		if err != nil {
			return "", err
		}
		if verdict.Sufficient {
			return "OK", nil
		}
		return verdict.Detail, nil
	}
	return s.ProcessQuery(ctx, message)
}

// titleCase uppercases the first rune.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
