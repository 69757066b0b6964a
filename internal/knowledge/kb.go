// Package knowledge holds the read-only medical knowledge base: reference
// ranges for classification and an embedding-indexed store of curated
// narrative chunks for semantic retrieval. The base is built once at process
// start and is immutable afterwards, so all operations are safe for
// unsynchronized concurrent use.
package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"askyourdoc/internal/chunker"
	"askyourdoc/internal/domain"
	"askyourdoc/internal/units"
	"askyourdoc/internal/vectorstore"
)

// ErrNotFound is returned by Range for biomarkers without reference data.
var ErrNotFound = errors.New("no reference range for biomarker")

// Base is the built, immutable knowledge base.
type Base struct {
	ranges   map[string]domain.ReferenceRange
	tags     map[string][]string // canonical name -> condition categories
	chunks   []domain.KnowledgeChunk
	embedder domain.Embedder
	index    vectorstore.Storage
	datasets []string
}

// BuildOptions configures a knowledge-base build.
type BuildOptions struct {
	// DataDir optionally adds external cohort CSVs to the embedded
	// curated datasets.
	DataDir  string
	Embedder domain.Embedder
	Index    vectorstore.Storage
	// Splitter windows long narratives; nil uses a default.
	Splitter *chunker.NarrativeSplitter
	Logger   *zap.Logger
}

// Build ingests every dataset, computes chunk embeddings and populates the
// vector index. Any failure is fatal to the build: a process must not serve
// requests over a partially built base.
func Build(opts BuildOptions) (*Base, error) {
	if opts.Embedder == nil || opts.Index == nil {
		return nil, errors.New("knowledge build requires an embedder and an index")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	splitter := opts.Splitter
	if splitter == nil {
		splitter = chunker.NewNarrativeSplitter(4, 1)
	}

	b := &Base{
		ranges:   make(map[string]domain.ReferenceRange),
		tags:     make(map[string][]string),
		embedder: opts.Embedder,
		index:    opts.Index,
	}

	type loaded struct {
		name string
		rows []datasetRow
	}
	var sets []loaded
	for _, name := range embeddedDatasets {
		rows, err := loadEmbeddedDataset(name)
		if err != nil {
			return nil, err
		}
		sets = append(sets, loaded{name, rows})
	}
	external, err := externalDatasets(opts.DataDir)
	if err != nil {
		return nil, err
	}
	for _, filename := range external {
		rows, err := loadExternalDataset(opts.DataDir, filename)
		if err != nil {
			return nil, err
		}
		sets = append(sets, loaded{strings.TrimSuffix(filename, ".csv"), rows})
	}

	// Pass 1: reference ranges and condition tags. First dataset wins on
	// duplicates, so the curated reference table cannot be shadowed by a
	// cohort file.
	for _, set := range sets {
		b.datasets = append(b.datasets, set.name)
		for _, row := range set.rows {
			if rr := row.referenceRange(); rr != nil {
				if _, exists := b.ranges[rr.Biomarker]; !exists {
					b.ranges[rr.Biomarker] = *rr
				}
			}
			for _, tag := range row.Tags {
				b.tags[row.Biomarker] = appendUnique(b.tags[row.Biomarker], tag)
			}
		}
	}

	// Pass 2: chunks. Each range contributes a summary chunk; each
	// narrative is windowed by the splitter. Priority is the dataset load
	// position, ordinal the global ingestion position.
	ordinal := 0
	for priority, set := range sets {
		for _, row := range set.rows {
			if rr := row.referenceRange(); rr != nil {
				b.addChunk(domain.KnowledgeChunk{
					Text:      fmt.Sprintf("Reference range for %s: %s.", row.Biomarker, rr.String()),
					Source:    set.name,
					Biomarker: row.Biomarker,
					Tags:      row.Tags,
					Priority:  priority,
					Ordinal:   ordinal,
				})
				ordinal++
			}
			for _, window := range splitter.Split(row.Narrative) {
				b.addChunk(domain.KnowledgeChunk{
					Text:      window,
					Source:    set.name,
					Biomarker: row.Biomarker,
					Tags:      row.Tags,
					Priority:  priority,
					Ordinal:   ordinal,
				})
				ordinal++
			}
		}
	}
	if len(b.chunks) == 0 {
		return nil, errors.New("no knowledge chunks ingested")
	}

	corpus := make([]string, len(b.chunks))
	for i, c := range b.chunks {
		corpus[i] = c.Text
	}
	if err := b.embedder.Prepare(corpus); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors := make([][]float64, len(b.chunks))
	for i := range b.chunks {
		vec, err := b.embedder.Embed(b.chunks[i].Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors[i] = vec
		b.chunks[i].Embedding = vec
	}
	if err := b.index.Init(b.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := b.index.Upsert(b.chunks, vectors); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	log.Info("knowledge base built",
		zap.Int("datasets", len(b.datasets)),
		zap.Int("reference_ranges", len(b.ranges)),
		zap.Int("chunks", len(b.chunks)),
		zap.Int("dimension", b.embedder.Dimension()),
		zap.String("embedder", b.embedder.Name()),
	)
	return b, nil
}

func (b *Base) addChunk(c domain.KnowledgeChunk) {
	b.chunks = append(b.chunks, c)
}

// Range returns the reference range for a biomarker name (alias-aware), or
// ErrNotFound.
func (b *Base) Range(name string) (domain.ReferenceRange, error) {
	rr, ok := b.ranges[domain.Canonicalize(name)]
	if !ok {
		return domain.ReferenceRange{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return rr, nil
}

// Ranges returns every loaded reference range keyed by canonical name.
func (b *Base) Ranges() map[string]domain.ReferenceRange {
	out := make(map[string]domain.ReferenceRange, len(b.ranges))
	for k, v := range b.ranges {
		out[k] = v
	}
	return out
}

// Categories returns the condition categories associated with a biomarker.
func (b *Base) Categories(name string) []string {
	return b.tags[domain.Canonicalize(name)]
}

// Classify places a value against the biomarker's reference range. Critical
// bounds are checked before normal bounds so they take precedence where the
// intervals overlap. Biomarkers without a range classify as Unknown.
func (b *Base) Classify(name string, value float64) domain.Classification {
	canonical := domain.Canonicalize(name)
	c := domain.Classification{Biomarker: canonical, Value: value, Status: domain.StatusUnknown}
	rr, ok := b.ranges[canonical]
	if !ok {
		return c
	}
	switch {
	case rr.CriticalLow != nil && value <= *rr.CriticalLow:
		c.Status = domain.StatusCriticalLow
	case rr.CriticalHigh != nil && value >= *rr.CriticalHigh:
		c.Status = domain.StatusCriticalHigh
	case value < rr.Low:
		c.Status = domain.StatusLow
	case value > rr.High:
		c.Status = domain.StatusHigh
	default:
		c.Status = domain.StatusNormal
	}
	return c
}

// ClassifyRecord classifies a full record, converting the record's unit to
// the reference unit first. An unconvertible unit yields Unknown rather than
// a misclassification.
func (b *Base) ClassifyRecord(rec domain.BiomarkerRecord) domain.Classification {
	canonical := domain.Canonicalize(rec.Name)
	rr, ok := b.ranges[canonical]
	if !ok {
		return domain.Classification{Biomarker: canonical, Value: rec.Value, Status: domain.StatusUnknown}
	}
	value := rec.Value
	if rec.Unit != "" {
		converted, ok := units.Convert(canonical, rec.Value, rec.Unit, rr.Unit)
		if !ok {
			return domain.Classification{Biomarker: canonical, Value: rec.Value, Status: domain.StatusUnknown}
		}
		value = converted
	}
	return b.Classify(canonical, value)
}

// Search embeds the query and returns the topK most similar chunks, scores
// descending in [-1, 1]. topK must be at least 1; results are truncated to
// the index size.
func (b *Base) Search(query string, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, errors.New("topK must be >= 1")
	}
	vec, err := b.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return b.index.Search(vec, topK)
}

// Stats describes the built base, for status output.
type Stats struct {
	Datasets        []string
	ReferenceRanges int
	Chunks          int
	Dimension       int
	Embedder        string
}

func (b *Base) Stats() Stats {
	return Stats{
		Datasets:        append([]string(nil), b.datasets...),
		ReferenceRanges: len(b.ranges),
		Chunks:          len(b.chunks),
		Dimension:       b.embedder.Dimension(),
		Embedder:        b.embedder.Name(),
	}
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
