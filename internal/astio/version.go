package astio

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// LanguageVersion is the newest language version this core understands
const LanguageVersion = "0.1.0"

// DefaultLanguages accepts every 0.1.x document
var DefaultLanguages = mustConstraint(">= 0.1.0, < 0.2.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseLanguages parses a version constraint such as "~0.1"
func ParseLanguages(s string) (*semver.Constraints, error) {
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("invalid language constraint %q: %w", s, err)
	}
	return c, nil
}

// CheckLanguage verifies that a document's language header satisfies c
func CheckLanguage(header string, c *semver.Constraints) error {
	if header == "" {
		return fmt.Errorf("document has no language header")
	}
	v, err := semver.NewVersion(header)
	if err != nil {
		return fmt.Errorf("invalid language version %q: %w", header, err)
	}
	if c == nil {
		c = DefaultLanguages
	}
	if ok, errs := c.Validate(v); !ok {
		if len(errs) > 0 {
			return fmt.Errorf("language %s not supported: %w", v, errs[0])
		}
		return fmt.Errorf("language %s not supported (want %s)", v, c)
	}
	return nil
}
