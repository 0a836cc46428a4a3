package discovery

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// LanguageFilter drops posts whose main text is not confidently in the
// configured language. A zero filter (empty code) accepts everything.
type LanguageFilter struct {
	code          string
	minConfidence float64
}

// NewLanguageFilter builds a filter for an ISO 639-1 ("pt") or 639-3
// ("por") language code. An empty code disables filtering.
func NewLanguageFilter(code string, minConfidence float64) (*LanguageFilter, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code != "" && len(code) != 2 && len(code) != 3 {
		return nil, fmt.Errorf("invalid language code %q", code)
	}
	if minConfidence <= 0 || minConfidence > 1 {
		minConfidence = 0.8
	}
	return &LanguageFilter{code: code, minConfidence: minConfidence}, nil
}

// Matches reports whether text is confidently in the configured language.
func (f *LanguageFilter) Matches(text string) bool {
	if f == nil || f.code == "" {
		return true
	}
	info := whatlanggo.Detect(text)
	if info.Confidence < f.minConfidence {
		return false
	}
	return whatlanggo.LangToString(info.Lang) == f.code || info.Lang.Iso6391() == f.code
}
