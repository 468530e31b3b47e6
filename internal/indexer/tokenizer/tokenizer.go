// Package tokenizer decides which raw words are keywords. A keyword is a
// word that, once stripped of trailing punctuation, is made only of ASCII
// letters and is not a noise word. Keywords are lower-cased.
package tokenizer

import "strings"

// trailingPunct holds the only characters stripped from the end of a word.
const trailingPunct = ".,?:;!"

// Normalizer classifies raw tokens against a noise-word set. It is not safe
// for concurrent use with SetNoiseWords; the engine serializes access.
type Normalizer struct {
	noiseWords map[string]struct{}
}

// NewNormalizer returns a Normalizer with the given noise words.
func NewNormalizer(noiseWords []string) *Normalizer {
	n := &Normalizer{}
	n.SetNoiseWords(noiseWords)
	return n
}

// SetNoiseWords replaces the noise-word set. Membership is exact, so callers
// supply lower-case words.
func (n *Normalizer) SetNoiseWords(words []string) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	n.noiseWords = set
}

// NoiseWordCount returns the size of the noise-word set.
func (n *Normalizer) NoiseWordCount() int {
	return len(n.noiseWords)
}

// IsNoiseWord reports whether word is in the noise-word set.
func (n *Normalizer) IsNoiseWord(word string) bool {
	_, ok := n.noiseWords[word]
	return ok
}

// Keyword returns the keyword form of word and true, or "" and false when
// word is not a keyword.
func (n *Normalizer) Keyword(word string) (string, bool) {
	stripped := StripTrailingPunct(word)
	if stripped == "" || !isLetters(stripped) {
		return "", false
	}
	kw := strings.ToLower(stripped)
	if n.IsNoiseWord(kw) {
		return "", false
	}
	return kw, true
}

// StripTrailingPunct removes trailing '.', ',', '?', ':', ';' and '!'
// characters, stopping at the first character outside that set.
func StripTrailingPunct(word string) string {
	return strings.TrimRight(word, trailingPunct)
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
