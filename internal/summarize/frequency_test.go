package summarize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizePassThroughWithoutSentences(t *testing.T) {
	r := NewFrequencyRanker()
	assert.Equal(t, "elevated tsh cohort", r.Summarize("  elevated tsh cohort  ", 3))
}

func TestSummarizeLimitsSentenceCount(t *testing.T) {
	r := NewFrequencyRanker()
	text := "Thyroid hormone regulates metabolism. Elevated TSH suggests hypothyroidism. " +
		"Thyroid testing includes TSH and free T4. Bananas are yellow. " +
		"TSH elevation with low T4 confirms overt hypothyroidism."
	got := r.Summarize(text, 2)
	parts := strings.Split(got, ". ")
	assert.LessOrEqual(t, len(parts), 2)
	assert.NotContains(t, got, "Bananas", "off-topic sentence ranks last")
}

func TestSummarizeKeepsSourceOrder(t *testing.T) {
	r := NewFrequencyRanker()
	text := "First point about glucose. Second point about glucose. Third point about glucose."
	got := r.Summarize(text, 2)
	first := strings.Index(got, "First")
	second := strings.Index(got, "Second")
	third := strings.Index(got, "Third")
	// whichever two were chosen, their relative source order is preserved
	positions := []int{first, second, third}
	last := -1
	for _, p := range positions {
		if p == -1 {
			continue
		}
		require.Greater(t, p, last)
		last = p
	}
}

func TestSummarizeDefaultsMaxSentences(t *testing.T) {
	r := NewFrequencyRanker()
	got := r.Summarize("One. Two. Three. Four. Five.", 0)
	assert.LessOrEqual(t, len(strings.Split(got, ". ")), 3)
}
