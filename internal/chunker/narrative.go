// Package chunker splits long curated narratives into sentence windows
// before they are embedded and indexed.
package chunker

import (
	"regexp"
	"strings"
)

// NarrativeSplitter produces overlapping sentence windows from a narrative.
// Short narratives (at most sentencesPerChunk sentences) pass through whole,
// which is the common case for curated dataset rows.
type NarrativeSplitter struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewNarrativeSplitter(sentencesPerChunk, overlapSentences int) *NarrativeSplitter {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 4
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &NarrativeSplitter{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Split returns the narrative as one or more sentence windows. Empty or
// whitespace-only input yields nothing.
func (s *NarrativeSplitter) Split(narrative string) []string {
	sentences := s.splitter.FindAllString(narrative, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(narrative)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	if len(sentences) <= s.sentencesPerChunk {
		return []string{strings.Join(sentences, " ")}
	}

	var out []string
	i := 0
	for i < len(sentences) {
		end := i + s.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		out = append(out, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - s.overlapSentences
	}
	return out
}
