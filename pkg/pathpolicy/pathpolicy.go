// Package pathpolicy decides which request paths need authentication at all.
package pathpolicy

import (
	"strings"

	"github.com/trussworks/userauth/pkg/domain"
)

// RequiresAuth reports whether path needs authentication given an ordered list of exclusion patterns.
//
// A pattern ending in "*" excludes every path starting with what precedes the star.
// Any other pattern is a path prefix: it is normalized to end in exactly one "/" and excludes
// paths under it, with or without the trailing slash ("/api/v1/status/" excludes "/api/v1/status"
// and "/api/v1/status/x" but not "/api/v1/statusx"). The first match wins.
// An empty path or a nil pattern list requires auth. Blank patterns never match; reject them
// up front with Validate.
func RequiresAuth(path string, excluded []string) bool {
	if path == "" || excluded == nil {
		return true
	}

	for _, pattern := range excluded {
		if matches(path, strings.TrimSpace(pattern)) {
			return false
		}
	}

	return true
}

func matches(path string, pattern string) bool {
	if pattern == "" {
		return false
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}

	prefix := strings.TrimRight(pattern, "/") + "/"
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return strings.HasPrefix(path, prefix)
}

// Validate returns ErrEmptyExclusion if any pattern is blank once trimmed.
func Validate(excluded []string) error {
	for _, pattern := range excluded {
		if strings.TrimSpace(pattern) == "" {
			return domain.ErrEmptyExclusion
		}
	}
	return nil
}

// Parse splits a comma separated list of patterns and validates it.
func Parse(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	patterns := strings.Split(list, ",")
	for i := range patterns {
		patterns[i] = strings.TrimSpace(patterns[i])
	}

	if err := Validate(patterns); err != nil {
		return nil, err
	}
	return patterns, nil
}
