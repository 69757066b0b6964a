package compose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askyourdoc/internal/domain"
)

// fakeSearcher returns canned results per query substring.
type fakeSearcher struct {
	results []domain.SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(query string, topK int) ([]domain.SearchResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if topK > len(f.results) {
		topK = len(f.results)
	}
	return f.results[:topK], nil
}

func result(text string, score float64) domain.SearchResult {
	return domain.SearchResult{Chunk: domain.KnowledgeChunk{Text: text}, Score: score}
}

func TestGatherSkipsNormalBiomarkers(t *testing.T) {
	kb := &fakeSearcher{results: []domain.SearchResult{result("general context.", 0.5)}}
	ctx := New(kb).Gather([]domain.Classification{
		{Biomarker: "glucose", Value: 85, Status: domain.StatusNormal},
	}, "")
	assert.Empty(t, ctx.Insights)
	assert.NotEmpty(t, ctx.General, "general retrieval always runs")
	assert.Empty(t, ctx.Correlations)
}

func TestGatherRetrievesPerAbnormalBiomarker(t *testing.T) {
	kb := &fakeSearcher{results: []domain.SearchResult{
		result("Elevated TSH is associated with primary hypothyroidism.", 0.9),
		result("Cohort data shows elevated TSH in 15 percent of patients.", 0.7),
	}}
	ctx := New(kb).Gather([]domain.Classification{
		{Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh},
	}, "")
	require.Contains(t, ctx.Insights, "tsh")
	assert.Len(t, ctx.Insights["tsh"], 2)
	// query carries name and status
	assert.Contains(t, kb.queries[0], "tsh")
	assert.Contains(t, kb.queries[0], "high")
}

func TestGatherRetrievalFailureDegrades(t *testing.T) {
	kb := &fakeSearcher{err: errors.New("index offline")}
	ctx := New(kb).Gather([]domain.Classification{
		{Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh},
	}, "")
	require.Contains(t, ctx.Insights, "tsh")
	assert.Empty(t, ctx.Insights["tsh"], "failure degrades to empty insights")
	assert.Empty(t, ctx.General)
}

func TestGatherDedupesNearDuplicates(t *testing.T) {
	kb := &fakeSearcher{results: []domain.SearchResult{
		result("Elevated TSH is associated with primary hypothyroidism in adults.", 0.9),
		result("Elevated TSH is associated with primary hypothyroidism in adults today.", 0.85),
		result("Fasting glucose above 126 mg/dL is the diagnostic threshold for diabetes.", 0.4),
	}}
	ctx := New(kb).Gather([]domain.Classification{
		{Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh},
	}, "")
	insights := ctx.Insights["tsh"]
	require.Len(t, insights, 2, "near-duplicate collapses onto the higher-ranked chunk")
	assert.Equal(t, 0.9, insights[0].Score)
	assert.Equal(t, 0.4, insights[1].Score)
}

func TestGatherCorrelationsRequireSymptoms(t *testing.T) {
	kb := &fakeSearcher{results: []domain.SearchResult{result("context.", 0.5)}}
	cls := []domain.Classification{{Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh}}

	ctx := New(kb).Gather(cls, "")
	assert.Empty(t, ctx.Correlations)
	assert.Empty(t, ctx.DetectedCategories)

	ctx = New(kb).Gather(cls, "very tired lately and gaining weight")
	assert.Equal(t, []string{"fatigue", "weight_changes"}, ctx.DetectedCategories)
	require.Len(t, ctx.Correlations, 1)
	rec := ctx.Correlations[0]
	assert.Equal(t, "tsh", rec.Biomarker)
	assert.ElementsMatch(t, []string{"fatigue", "weight_changes"}, rec.CorrelatedSymptoms)
	assert.InDelta(t, 1.7/2.3, rec.Strength, 1e-9)
	assert.NotEmpty(t, rec.Explanation)
}

func TestGatherCorrelationsSortedByStrength(t *testing.T) {
	kb := &fakeSearcher{results: []domain.SearchResult{result("context.", 0.5)}}
	ctx := New(kb).Gather([]domain.Classification{
		{Biomarker: "creatinine", Value: 1.8, Status: domain.StatusHigh},
		{Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh},
	}, "exhausted all the time")
	// creatinine's matched share (0.4/0.8) beats tsh's (0.9/2.3)
	require.Len(t, ctx.Correlations, 2)
	assert.Equal(t, "creatinine", ctx.Correlations[0].Biomarker)
	assert.Equal(t, "tsh", ctx.Correlations[1].Biomarker)
	assert.Greater(t, ctx.Correlations[0].Strength, ctx.Correlations[1].Strength)
}

func TestGatherUnknownExcludedFromCorrelations(t *testing.T) {
	kb := &fakeSearcher{results: []domain.SearchResult{result("context.", 0.5)}}
	ctx := New(kb).Gather([]domain.Classification{
		{Biomarker: "tsh", Value: 6.2, Status: domain.StatusUnknown},
	}, "exhausted all the time")
	// Unknown still gets retrieval but never correlates
	assert.Contains(t, ctx.Insights, "tsh")
	assert.Empty(t, ctx.Correlations)
}

func TestDetectCategories(t *testing.T) {
	assert.Nil(t, DetectCategories("  "))
	assert.Equal(t, []string{"cardiovascular", "fatigue"},
		DetectCategories("chest tightness and feeling weak"))
}
