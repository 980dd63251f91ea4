package entity

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SuggestionCount is how many alternatives SuggestUsernames returns.
const SuggestionCount = 3

const (
	maxUsernameLen   = 20
	suggestionTries  = 100
	fallbackBaseSize = maxUsernameLen - len("_fashion999")
)

var (
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]`)
	suggestionTag = []string{"style", "fashion", "look", "outfit", "trend"}
)

// Suggester generates username alternatives. Rand and Now are injectable for tests.
type Suggester struct {
	Rand func(n int) int // uniform in [0, n)
	Now  func() time.Time
}

// SuggestUsernames uses the default random source and wall clock.
func SuggestUsernames(existing []*User, base string) []string {
	return Suggester{}.Suggest(existing, base)
}

// Suggest returns exactly three distinct unused usernames derived from base:
// base+N, base+year, base_NN, then base_<tag>N until three are collected.
func (s Suggester) Suggest(existing []*User, base string) []string {
	randn := s.Rand
	if randn == nil {
		randn = rand.IntN
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}

	clean := nonAlnum.ReplaceAllString(strings.ToLower(base), "")
	out := make([]string, 0, SuggestionCount)
	accept := func(c string) bool {
		if len(out) >= SuggestionCount {
			return false
		}
		for _, o := range out {
			if o == c {
				return false
			}
		}
		if !ValidateUsernameUnique(existing, c, "").Valid {
			return false
		}
		out = append(out, c)
		return true
	}

	for i := 0; i < suggestionTries; i++ {
		if accept(clean + strconv.Itoa(randn(999)+1)) {
			break
		}
	}

	accept(clean + strconv.Itoa(now().Year()))

	for i := 0; i < suggestionTries; i++ {
		if accept(clean + "_" + strconv.Itoa(randn(90)+10)) {
			break
		}
	}

	// Truncated so every fallback candidate fits the username format.
	short := clean
	if len(short) > fallbackBaseSize {
		short = short[:fallbackBaseSize]
	}
	for len(out) < SuggestionCount {
		tag := suggestionTag[randn(len(suggestionTag))]
		accept(short + "_" + tag + strconv.Itoa(randn(999)+1))
	}
	return out
}
