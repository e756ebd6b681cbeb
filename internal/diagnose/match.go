package diagnose

import (
	"fmt"
	"regexp"
	"strings"
)

// SubjectMatcher matches message subjects either exactly or against a NATS
// wildcard pattern ('*' matches one token, '>' matches the rest).
type SubjectMatcher struct {
	exact string
	re    *regexp.Regexp
}

// NewSubjectMatcher compiles a subject filter. Filters without wildcards
// compare by equality.
func NewSubjectMatcher(filter string) (*SubjectMatcher, error) {
	if !strings.ContainsAny(filter, "*>") {
		return &SubjectMatcher{exact: filter}, nil
	}

	tokens := strings.Split(filter, ".")
	parts := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		switch tok {
		case "*":
			parts = append(parts, `[^.]+`)
		case ">":
			if i != len(tokens)-1 {
				return nil, fmt.Errorf("invalid subject filter '%s': '>' must be the last token", filter)
			}
			parts = append(parts, `.+`)
		default:
			if strings.ContainsAny(tok, "*>") {
				return nil, fmt.Errorf("invalid subject filter '%s': wildcards must stand alone in a token", filter)
			}
			parts = append(parts, regexp.QuoteMeta(tok))
		}
	}

	re, err := regexp.Compile(`^` + strings.Join(parts, `\.`) + `$`)
	if err != nil {
		return nil, fmt.Errorf("invalid subject filter '%s': %w", filter, err)
	}
	return &SubjectMatcher{re: re}, nil
}

// Match reports whether the subject satisfies the filter.
func (m *SubjectMatcher) Match(subject string) bool {
	if m.re != nil {
		return m.re.MatchString(subject)
	}
	return subject == m.exact
}

// HeaderMatch reports whether the headers contain the named header, and when
// wantValue is non-empty, whether any of its values equals it exactly.
// Header names compare case-insensitively.
func HeaderMatch(headers map[string][]string, name, wantValue string) bool {
	values, ok := headers[name]
	if !ok {
		for k, v := range headers {
			if strings.EqualFold(k, name) {
				values, ok = v, true
				break
			}
		}
	}
	if !ok {
		return false
	}
	if wantValue == "" {
		return true
	}
	for _, v := range values {
		if v == wantValue {
			return true
		}
	}
	return false
}
