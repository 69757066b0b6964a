package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	s := NewNarrativeSplitter(4, 1)
	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t"))
}

func TestSplitNoPunctuationPassesThrough(t *testing.T) {
	s := NewNarrativeSplitter(4, 1)
	got := s.Split("  elevated fasting glucose cohort  ")
	require.Len(t, got, 1)
	assert.Equal(t, "elevated fasting glucose cohort", got[0])
}

func TestSplitShortNarrativeSingleWindow(t *testing.T) {
	s := NewNarrativeSplitter(4, 1)
	got := s.Split("First sentence. Second sentence. Third sentence.")
	require.Len(t, got, 1)
	assert.Equal(t, "First sentence. Second sentence. Third sentence.", got[0])
}

func TestSplitLongNarrativeOverlaps(t *testing.T) {
	s := NewNarrativeSplitter(2, 1)
	got := s.Split("One. Two. Three. Four.")
	require.Equal(t, []string{"One. Two.", "Two. Three.", "Three. Four."}, got)
}

func TestSplitterClampsInvalidSettings(t *testing.T) {
	// overlap >= window collapses to window-1 so splitting terminates
	s := NewNarrativeSplitter(2, 5)
	got := s.Split("One. Two. Three. Four.")
	require.NotEmpty(t, got)
	assert.Equal(t, "One. Two.", got[0])
}
