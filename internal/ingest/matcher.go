package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/timmy/ordermonitor/internal/domain"
)

// Matcher decides which directory entries are drop files and what they carry.
type Matcher struct {
	pattern string // lowercased exact name or glob
	glob    bool
	kind    domain.Kind // fixed kind; empty derives it from the file name
}

// NewMatcher builds a matcher for an exact file name or a glob such as "*.json".
// Parameters:
//   - pattern: exact name or glob, matched case-insensitively against base names.
//   - kind: fixed payload kind, or "" to map ordertransaction.json and
//     ordercancellation.json by name.
// Returns:
//   - *Matcher: ready matcher.
//   - error: non-nil if the glob is malformed.
func NewMatcher(pattern string, kind domain.Kind) (*Matcher, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return nil, fmt.Errorf("empty file pattern")
	}
	glob := strings.ContainsAny(pattern, "*?[")
	if glob {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
	}
	return &Matcher{pattern: pattern, glob: glob, kind: kind}, nil
}

// Match reports whether name matches the pattern and resolves its kind.
// Parameters:
//   - name: base file name.
// Returns:
//   - domain.Kind: resolved kind.
//   - bool: false if the file is not a drop file this monitor handles.
func (m *Matcher) Match(name string) (domain.Kind, bool) {
	lower := strings.ToLower(name)
	if m.glob {
		ok, err := filepath.Match(m.pattern, lower)
		if err != nil || !ok {
			return "", false
		}
	} else if lower != m.pattern {
		return "", false
	}

	if m.kind != "" {
		return m.kind, true
	}
	kind, err := domain.KindForFileName(name)
	if err != nil {
		return "", false
	}
	return kind, true
}
