package domain

import "fmt"

// PracticeLanguage is one of the fixed set of languages available for
// pronunciation practice.
type PracticeLanguage string

const (
	French   PracticeLanguage = "french"
	German   PracticeLanguage = "german"
	Korean   PracticeLanguage = "korean"
	Mandarin PracticeLanguage = "mandarin"
	Spanish  PracticeLanguage = "spanish"
)

// Languages lists every supported practice language.
var Languages = []PracticeLanguage{French, German, Korean, Mandarin, Spanish}

var languageCodes = map[PracticeLanguage]string{
	French:   "fr",
	German:   "de",
	Korean:   "ko",
	Mandarin: "zh",
	Spanish:  "es",
}

// Code returns the two-letter service language code.
func (l PracticeLanguage) Code() string {
	return languageCodes[l]
}

// Valid reports whether l is a supported language.
func (l PracticeLanguage) Valid() bool {
	_, ok := languageCodes[l]
	return ok
}

// ParseLanguage converts a string into a PracticeLanguage.
func ParseLanguage(s string) (PracticeLanguage, error) {
	l := PracticeLanguage(s)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported practice language: %q", s)
	}
	return l, nil
}
