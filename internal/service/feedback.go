package service

import (
	"fmt"
	"math/rand/v2"

	"github.com/lexoria/practice_service/internal/domain"
)

// Fallback score ranges. The exact values are random but the shape of the
// result is always the same: three sub-scores, an overall average, and at
// least one message.
const (
	fallbackPronunciationMin, fallbackPronunciationMax = 75, 95
	fallbackClarityMin, fallbackClarityMax             = 70, 95
	fallbackFluencyMin, fallbackFluencyMax             = 65, 90
)

var languageTips = map[domain.PracticeLanguage]string{
	domain.French:   "Keep nasal vowels like 'on' and 'an' resonating through the nose, not the mouth.",
	domain.German:   "Give consonant clusters like 'sch' and 'pf' their full weight instead of softening them.",
	domain.Korean:   "Distinguish tense consonants (ㄲ, ㄸ, ㅃ) from their plain counterparts.",
	domain.Mandarin: "Hold each tone's contour steady; a falling-rising third tone should dip fully before rising.",
	domain.Spanish:  "Roll the 'rr' with the tip of the tongue and keep vowels short and pure.",
}

// FallbackScorer synthesizes plausible feedback locally when the remote
// scoring engine is unreachable or no reference audio exists, so the
// practice flow never dead-ends.
type FallbackScorer struct {
	// intn returns a random int in [0, n); replaceable for deterministic
	// tests.
	intn func(n int) int
}

// NewFallbackScorer creates a scorer using the shared random source.
func NewFallbackScorer() *FallbackScorer {
	return &FallbackScorer{intn: rand.IntN}
}

// NewSeededFallbackScorer creates a scorer with a fixed seed.
func NewSeededFallbackScorer(seed uint64) *FallbackScorer {
	r := rand.New(rand.NewPCG(seed, seed))
	return &FallbackScorer{intn: r.IntN}
}

func (s *FallbackScorer) scoreIn(min, max int) int {
	return min + s.intn(max-min+1)
}

// Synthesize produces a fallback ComparisonResult for the given word and
// language. Scores are drawn from fixed plausible ranges and overall is
// their integer average.
func (s *FallbackScorer) Synthesize(word string, language domain.PracticeLanguage) *domain.ComparisonResult {
	pronunciation := s.scoreIn(fallbackPronunciationMin, fallbackPronunciationMax)
	clarity := s.scoreIn(fallbackClarityMin, fallbackClarityMax)
	fluency := s.scoreIn(fallbackFluencyMin, fallbackFluencyMax)
	overall := (pronunciation + clarity + fluency) / 3

	var feedback []string
	switch {
	case overall >= 85:
		feedback = append(feedback,
			fmt.Sprintf("Excellent work on \"%s\"! Your pronunciation is very close to a native speaker's.", word))
	case overall >= 70:
		feedback = append(feedback,
			fmt.Sprintf("Good effort on \"%s\". Keep practicing to smooth out the rough edges.", word))
	default:
		feedback = append(feedback,
			fmt.Sprintf("\"%s\" needs work. Listen to the reference again and focus on one syllable at a time.", word))
	}

	suggestions := []string{"Record yourself again and compare against the reference pronunciation."}
	if tip, ok := languageTips[language]; ok {
		suggestions = append(suggestions, tip)
	}

	return &domain.ComparisonResult{
		Overall:       overall,
		Pronunciation: pronunciation,
		Clarity:       clarity,
		Fluency:       fluency,
		Feedback:      feedback,
		Suggestions:   suggestions,
		Fallback:      true,
	}
}
