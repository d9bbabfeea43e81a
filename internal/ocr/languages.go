package ocr

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguages is the stock allow-list.
var DefaultLanguages = []string{"en", "pl"}

var (
	// ErrNoLanguage is returned when no language was requested.
	ErrNoLanguage = errors.New("at least one language is required")
	// ErrUnsupportedLanguage is returned for codes outside the allow-list.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// CanonicalLanguage parses a language code and returns its two-letter base
// form ("EN", "en-US" and "eng" all become "en").
func CanonicalLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnsupportedLanguage)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, code, err)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return base.String(), nil
}

// ISO3 returns the three-letter ISO 639-3 code for a canonical language, which
// is what Tesseract names its traineddata files after.
func ISO3(code string) (string, error) {
	base, err := language.ParseBase(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, code, err)
	}
	return base.ISO3(), nil
}

// AllowList is a closed set of canonical language codes.
type AllowList struct {
	codes []string
}

// NewAllowList canonicalizes codes into an allow-list. Invalid codes are an
// error; duplicates are dropped.
func NewAllowList(codes []string) (*AllowList, error) {
	if len(codes) == 0 {
		return nil, ErrNoLanguage
	}
	al := &AllowList{}
	for _, c := range codes {
		canon, err := CanonicalLanguage(c)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(al.codes, canon) {
			al.codes = append(al.codes, canon)
		}
	}
	return al, nil
}

// Codes returns the allowed codes in configuration order.
func (a *AllowList) Codes() []string {
	return slices.Clone(a.codes)
}

// Contains reports whether a canonical code is allowed.
func (a *AllowList) Contains(code string) bool {
	return slices.Contains(a.codes, code)
}

// Resolve validates a request against the allow-list. It returns the
// canonical codes in request order with duplicates removed.
func (a *AllowList) Resolve(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, ErrNoLanguage
	}
	out := make([]string, 0, len(requested))
	for _, r := range requested {
		canon, err := CanonicalLanguage(r)
		if err != nil {
			return nil, err
		}
		if !a.Contains(canon) {
			return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedLanguage, r, strings.Join(a.codes, ", "))
		}
		if !slices.Contains(out, canon) {
			out = append(out, canon)
		}
	}
	return out, nil
}

// cacheKey identifies a language set independent of order.
func cacheKey(langs []string) string {
	sorted := slices.Clone(langs)
	slices.Sort(sorted)
	return strings.Join(sorted, "+")
}
