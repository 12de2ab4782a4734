package orchestration

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Language is a BCP 47 language code ("en", "fr", "de-CH"). The zero value
// means "no language" and is skipped by every queue-building rule.
type Language string

// ParseLanguage normalizes a raw code into a canonical [Language] tag.
func ParseLanguage(code string) (Language, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}

	return Language(tag.String()), nil
}

func (l Language) String() string { return string(l) }

func (l Language) IsZero() bool { return l == "" }

// Base returns the primary subtag ("en" for "en-US"). Translation providers
// generally key on the base form.
func (l Language) Base() string {
	if l.IsZero() {
		return ""
	}

	tag, err := language.Parse(string(l))
	if err != nil {
		return string(l)
	}

	base, _ := tag.Base()
	return base.String()
}
