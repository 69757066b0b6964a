// Package summarize compresses retrieved narrative context into a short
// summary by ranking sentences on token frequency.
package summarize

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// FrequencyRanker scores sentences by normalized word frequency, stopwords
// filtered, and keeps the best ones in their original order.
type FrequencyRanker struct {
	tokenPattern    *regexp.Regexp
	sentencePattern *regexp.Regexp
	stopwords       map[string]struct{}
}

func NewFrequencyRanker() *FrequencyRanker {
	return &FrequencyRanker{
		tokenPattern:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentencePattern: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:       stopwords(),
	}
}

// Summarize returns at most maxSentences of text, chosen by frequency rank,
// in source order. Input without sentence punctuation passes through
// trimmed.
func (s *FrequencyRanker) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := s.sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		total := 0.0
		for _, tok := range toks {
			total += freq[tok]
		}
		// Length normalization avoids favoring long sentences.
		if n := float64(len(toks)); n > 0 {
			total /= math.Sqrt(n)
		}
		scores[i] = scored{i, total}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := 0; i < maxSentences; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, maxSentences)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

func (s *FrequencyRanker) tokens(text string) []string {
	raw := s.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, ok := s.stopwords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above",
		"below", "can", "will", "just", "should", "now", "your", "may",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
