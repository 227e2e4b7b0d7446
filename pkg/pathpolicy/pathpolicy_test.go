package pathpolicy

import (
	"testing"

	"github.com/trussworks/userauth/pkg/domain"
)

func TestRequiresAuth(t *testing.T) {
	excluded := []string{"/api/v1/status/", "/api/v1/unauthorized/", "/api/v1/forbidden/"}

	tests := []struct {
		name     string
		path     string
		excluded []string
		expected bool
	}{
		{"exact excluded path", "/api/v1/status/", []string{"/api/v1/status/"}, false},
		{"excluded path without slash", "/api/v1/status", []string{"/api/v1/status/"}, false},
		{"pattern without slash", "/api/v1/status/", []string{"/api/v1/status"}, false},
		{"nested under excluded path", "/api/v1/status/deep", excluded, false},
		{"wildcard prefix", "/api/v1/status/x", []string{"/api/v1/stat*"}, false},
		{"wildcard does not match elsewhere", "/api/v1/users", []string{"/api/v1/stat*"}, true},
		{"protected path", "/api/v1/users", []string{"/api/v1/status/"}, true},
		{"sibling with shared prefix", "/api/v1/statusx", []string{"/api/v1/status/"}, true},
		{"whitespace around pattern", "/api/v1/status", []string{"  /api/v1/status/ "}, false},
		{"empty path", "", excluded, true},
		{"nil exclusions", "/api/v1/status/", nil, true},
		{"empty exclusions", "/api/v1/status/", []string{}, true},
		{"blank pattern never matches", "/api/v1/users", []string{""}, true},
		{"second pattern matches", "/api/v1/forbidden", excluded, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual := RequiresAuth(test.path, test.excluded)
			if actual != test.expected {
				t.Fatalf("RequiresAuth(%q, %q) = %v, expected %v", test.path, test.excluded, actual, test.expected)
			}
		})
	}
}

func TestValidateRejectsBlankPatterns(t *testing.T) {
	if err := Validate([]string{"/api/v1/status/", "  "}); err != domain.ErrEmptyExclusion {
		t.Fatal("expected a blank pattern to be rejected, got", err)
	}

	if err := Validate([]string{"/api/v1/status/", "/api/v1/stat*"}); err != nil {
		t.Fatal(err)
	}
}

func TestParse(t *testing.T) {
	patterns, err := Parse("/api/v1/status/, /api/v1/auth_session/login/")
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 2 || patterns[1] != "/api/v1/auth_session/login/" {
		t.Fatal("unexpected patterns", patterns)
	}

	_, err = Parse("/api/v1/status/,,/api/v1/forbidden/")
	if err != domain.ErrEmptyExclusion {
		t.Fatal("an empty entry should be a configuration error, got", err)
	}

	patterns, err = Parse("")
	if err != nil || patterns != nil {
		t.Fatal("an empty list should parse to nothing", patterns, err)
	}
}
