package command

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/minouris/spafw37-sub001/internal/errors"
)

// globMeta are the characters that make a trigger param a pattern.
const globMeta = "*?[]{}\\!"

// Matcher decides whether a changed parameter triggers a command.
type Matcher struct {
	pattern string
	g       glob.Glob // nil for exact matches
}

// CompileTrigger builds a Matcher for pattern. Patterns without glob
// metacharacters match exactly. '.' is treated as a segment separator so
// "log.*" matches "log.level" but not "log.level.debug".
func CompileTrigger(pattern string) (*Matcher, error) {
	if pattern == "" {
		return nil, nil
	}
	if !strings.ContainsAny(pattern, globMeta) {
		return &Matcher{pattern: pattern}, nil
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, errors.NewValidationError("invalid trigger pattern").
			WithField("trigger_param").
			WithValue(pattern).
			WithCause(err)
	}
	return &Matcher{pattern: pattern, g: g}, nil
}

// Match reports whether param matches.
func (m *Matcher) Match(param string) bool {
	if m == nil {
		return false
	}
	if m.g == nil {
		return m.pattern == param
	}
	return m.g.Match(param)
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	if m == nil {
		return ""
	}
	return m.pattern
}

// IsPattern reports whether the matcher is a glob rather than an exact name.
func (m *Matcher) IsPattern() bool {
	return m != nil && m.g != nil
}
