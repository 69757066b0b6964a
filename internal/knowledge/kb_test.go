package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askyourdoc/internal/domain"
	"askyourdoc/internal/embedding/tfidf"
	"askyourdoc/internal/vectorstore/memory"
)

func buildBase(t *testing.T, dataDir string) *Base {
	t.Helper()
	b, err := Build(BuildOptions{
		DataDir:  dataDir,
		Embedder: tfidf.NewEmbedder(),
		Index:    memory.NewStorage(),
	})
	require.NoError(t, err)
	return b
}

func TestBuildRequiresComponents(t *testing.T) {
	_, err := Build(BuildOptions{})
	require.Error(t, err)
}

func TestBuildLoadsEmbeddedDatasets(t *testing.T) {
	b := buildBase(t, "")
	stats := b.Stats()
	assert.Equal(t, []string{"reference_ranges", "abnormalities", "dataset_insights"}, stats.Datasets)
	assert.Equal(t, len(b.Ranges()), stats.ReferenceRanges)
	assert.Greater(t, stats.ReferenceRanges, 10)
	assert.Greater(t, stats.Chunks, stats.ReferenceRanges)
	assert.Equal(t, "tfidf", stats.Embedder)
	assert.Greater(t, stats.Dimension, 0)
}

func TestRangeLookup(t *testing.T) {
	b := buildBase(t, "")
	rr, err := b.Range("glucose")
	require.NoError(t, err)
	assert.Equal(t, 70.0, rr.Low)
	assert.Equal(t, 100.0, rr.High)
	assert.Equal(t, "mg/dL", rr.Unit)
	assert.Equal(t, "70-100 mg/dL", rr.String())

	// alias-aware
	_, err = b.Range("Blood Glucose")
	require.NoError(t, err)

	_, err = b.Range("homocysteine")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClassifyPrecedence(t *testing.T) {
	b := buildBase(t, "")
	cases := []struct {
		value float64
		want  domain.Status
	}{
		{85, domain.StatusNormal},
		{70, domain.StatusNormal},
		{100, domain.StatusNormal},
		{65, domain.StatusLow},
		{110, domain.StatusHigh},
		{50, domain.StatusCriticalLow},
		{45, domain.StatusCriticalLow},
		{300, domain.StatusCriticalHigh},
		{320, domain.StatusCriticalHigh},
	}
	for _, tc := range cases {
		got := b.Classify("glucose", tc.value)
		assert.Equal(t, tc.want, got.Status, "glucose %v", tc.value)
		assert.Equal(t, "glucose", got.Biomarker)
		assert.Equal(t, tc.value, got.Value)
	}
}

func TestClassifyThyroid(t *testing.T) {
	b := buildBase(t, "")
	assert.Equal(t, domain.StatusHigh, b.Classify("tsh", 6.2).Status)
	assert.Equal(t, domain.StatusCriticalHigh, b.Classify("tsh", 25).Status)
	assert.Equal(t, domain.StatusNormal, b.Classify("tsh", 2.1).Status)
}

func TestClassifyUnknownBiomarker(t *testing.T) {
	b := buildBase(t, "")
	got := b.Classify("homocysteine", 12.5)
	assert.Equal(t, domain.StatusUnknown, got.Status)
}

func TestClassifyRecordConvertsUnits(t *testing.T) {
	b := buildBase(t, "")
	got := b.ClassifyRecord(domain.BiomarkerRecord{Name: "glucose", Value: 6.1, Unit: "mmol/L"})
	assert.Equal(t, domain.StatusHigh, got.Status)
}

func TestClassifyRecordUnconvertibleUnit(t *testing.T) {
	b := buildBase(t, "")
	got := b.ClassifyRecord(domain.BiomarkerRecord{Name: "glucose", Value: 110, Unit: "fL"})
	assert.Equal(t, domain.StatusUnknown, got.Status, "misclassification is worse than no classification")
}

func TestCategories(t *testing.T) {
	b := buildBase(t, "")
	assert.Contains(t, b.Categories("tsh"), "thyroid")
	assert.Contains(t, b.Categories("glucose"), "diabetes")
	assert.Empty(t, b.Categories("homocysteine"))
}

func TestSearchValidation(t *testing.T) {
	b := buildBase(t, "")
	_, err := b.Search("thyroid", 0)
	require.Error(t, err)
}

func TestSearchDeterministicAndOrdered(t *testing.T) {
	b := buildBase(t, "")
	first, err := b.Search("elevated TSH hypothyroidism", 5)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	require.LessOrEqual(t, len(first), 5)
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].Score, first[i].Score)
	}

	second, err := b.Search("elevated TSH hypothyroidism", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Contains(t, []string{"tsh", "t3", "t4"}, first[0].Chunk.Biomarker)
}

func TestBuildWithExternalDataset(t *testing.T) {
	dir := t.TempDir()
	cohort := "biomarker,normal_low,normal_high,critical_low,critical_high,unit,condition_tags,narrative\n" +
		"glucose,60,90,40,280,mg/dL,diabetes,\"Cohort-specific glucose distribution narrative for testing.\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cohort.csv"), []byte(cohort), 0o644))

	b := buildBase(t, dir)
	assert.Contains(t, b.Stats().Datasets, "cohort")

	// curated range wins over the cohort file
	rr, err := b.Range("glucose")
	require.NoError(t, err)
	assert.Equal(t, 70.0, rr.Low)
}

func TestBuildRejectsMalformedDataset(t *testing.T) {
	dir := t.TempDir()
	bad := "biomarker,normal_low,normal_high,critical_low,critical_high,unit,condition_tags,narrative\n" +
		"glucose,60,,,,mg/dL,diabetes,\"Half a range.\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"), []byte(bad), 0o644))

	_, err := Build(BuildOptions{
		DataDir:  dir,
		Embedder: tfidf.NewEmbedder(),
		Index:    memory.NewStorage(),
	})
	require.Error(t, err)
}

func TestHandleLifecycle(t *testing.T) {
	h := NewHandle(nil)
	_, err := h.Current()
	require.ErrorIs(t, err, ErrUnbuilt)

	require.NoError(t, h.Rebuild(BuildOptions{
		Embedder: tfidf.NewEmbedder(),
		Index:    memory.NewStorage(),
	}))
	base, err := h.Current()
	require.NoError(t, err)
	require.NotNil(t, base)

	// a failed rebuild keeps the previous base serving
	require.Error(t, h.Rebuild(BuildOptions{}))
	again, err := h.Current()
	require.NoError(t, err)
	assert.Same(t, base, again)
}
