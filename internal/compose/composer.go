// Package compose gathers the retrieval context for an analysis: narrative
// snippets for each abnormal biomarker and correlations between reported
// symptoms and biomarker status. It reads the knowledge base and shares no
// mutable state between requests.
package compose

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"askyourdoc/internal/domain"
)

// Searcher is the knowledge-base subset the composer needs.
type Searcher interface {
	Search(query string, topK int) ([]domain.SearchResult, error)
}

const (
	perBiomarkerTopK = 3
	generalTopK      = 5
	// generalQuery feeds the report-wide context entry.
	generalQuery = "health risk assessment biomarker patterns"
	// dedupeThreshold is the token-set Ochiai similarity at or above which
	// two retrieved chunks count as near-duplicates.
	dedupeThreshold = 0.85
)

// Context is the retrieval output consumed by the synthesizer.
type Context struct {
	// Insights holds deduplicated snippets per abnormal biomarker.
	Insights map[string][]domain.SearchResult
	// General holds the report-wide retrieval results.
	General []domain.SearchResult
	// Correlations are the symptom/biomarker matches, ordered by
	// descending strength.
	Correlations []domain.CorrelationRecord
	// DetectedCategories are the symptom categories found in the input.
	DetectedCategories []string
}

// Composer builds retrieval context against a knowledge-base snapshot.
type Composer struct {
	kb Searcher
}

func New(kb Searcher) *Composer { return &Composer{kb: kb} }

// Gather retrieves context for every non-Normal classification and
// correlates symptoms. Retrieval failures and empty results degrade to
// missing insights, never to a request failure.
func (c *Composer) Gather(classifications []domain.Classification, symptoms string) Context {
	ctx := Context{Insights: make(map[string][]domain.SearchResult)}

	for _, cl := range classifications {
		if !cl.Status.Abnormal() {
			continue
		}
		query := buildQuery(cl, symptoms)
		results, err := c.kb.Search(query, perBiomarkerTopK)
		if err != nil || len(results) == 0 {
			ctx.Insights[cl.Biomarker] = []domain.SearchResult{}
			continue
		}
		ctx.Insights[cl.Biomarker] = dedupe(results)
	}

	if general, err := c.kb.Search(generalQuery, generalTopK); err == nil {
		ctx.General = dedupe(general)
	}

	ctx.DetectedCategories = DetectCategories(symptoms)
	if len(ctx.DetectedCategories) > 0 {
		for _, cl := range classifications {
			if !cl.Status.Abnormal() || cl.Status == domain.StatusUnknown {
				continue
			}
			if rec := correlate(cl, ctx.DetectedCategories); rec != nil {
				ctx.Correlations = append(ctx.Correlations, *rec)
			}
		}
		sort.SliceStable(ctx.Correlations, func(i, j int) bool {
			return ctx.Correlations[i].Strength > ctx.Correlations[j].Strength
		})
	}
	return ctx
}

// buildQuery forms the retrieval query from the canonical name, status and
// any symptom text.
func buildQuery(cl domain.Classification, symptoms string) string {
	parts := []string{cl.Biomarker, strings.ToLower(string(cl.Status)), "biomarker analysis"}
	if s := strings.TrimSpace(symptoms); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// dedupe collapses near-duplicate chunks, keeping the higher-ranked one.
// Rank order is preserved, so the collapse is deterministic for a frozen
// index.
func dedupe(results []domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(results))
	kept := make([]map[string]struct{}, 0, len(results))
	for _, r := range results {
		tokens := tokenSet(r.Chunk.Text)
		duplicate := false
		for _, prev := range kept {
			if ochiai(tokens, prev) >= dedupeThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		out = append(out, r)
		kept = append(kept, tokens)
	}
	return out
}

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\d+(?:\.\d+)?`)

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
