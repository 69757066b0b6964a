package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"askyourdoc/internal/chunker"
	"askyourdoc/internal/config"
	"askyourdoc/internal/domain"
	"askyourdoc/internal/embedding/openai"
	"askyourdoc/internal/embedding/tfidf"
	"askyourdoc/internal/knowledge"
	"askyourdoc/internal/service"
	"askyourdoc/internal/tui"
	"askyourdoc/internal/vectorstore"
	"askyourdoc/internal/vectorstore/memory"
	"askyourdoc/internal/vectorstore/qdrant"
)

var (
	// Global flags
	cfgPath   string
	dataDir   string
	symptoms  string
	lifestyle string
	setValues []string
	topK      int

	cfg    *config.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "askyourdoc",
	Short: "Biomarker analysis over a curated health knowledge base",
	Long: `askyourdoc extracts biomarkers from lab-report text, classifies them
against reference ranges and synthesizes a four-pillar health report
grounded in semantically retrieved medical knowledge.

The output is informational and is not medical advice.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		if cfgPath == "" {
			cfg, _, err = config.LoadDefault()
		} else {
			cfg, err = config.Load(cfgPath)
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dataDir != "" {
			cfg.Knowledge.DataDir = dataDir
		}

		zcfg := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", cfg.Logging.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a lab report and print the four-pillar JSON report",
	Long: `Analyzes biomarkers and prints the full report as JSON.

Input is either report text (from the file argument, or stdin when no
file is given) or direct values supplied with repeated --set flags:

  askyourdoc analyze report.txt --symptoms "tired, gaining weight"
  askyourdoc analyze --set glucose=110 --set tsh=6.2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract biomarkers from report text without analysis",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExtract,
}

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the knowledge base directly",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "List the loaded reference ranges",
	Args:  cobra.NoArgs,
	RunE:  runRanges,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive knowledge-base explorer",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default: ./config.yaml, then ~/.config/askyourdoc/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory with additional cohort CSV datasets")

	analyzeCmd.Flags().StringVar(&symptoms, "symptoms", "", "free-text symptom description")
	analyzeCmd.Flags().StringVar(&lifestyle, "lifestyle", "", "free-text lifestyle description")
	analyzeCmd.Flags().StringArrayVar(&setValues, "set", nil, "direct biomarker value as name=value (repeatable)")
	searchCmd.Flags().IntVar(&topK, "top-k", 5, "number of results to return")

	rootCmd.AddCommand(analyzeCmd, extractCmd, searchCmd, rangesCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildService assembles the embedder and vector index from config, builds
// the knowledge base and wires the analysis service.
func buildService() (*service.Service, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	base, err := knowledge.Build(knowledge.BuildOptions{
		DataDir:  cfg.Knowledge.DataDir,
		Embedder: emb,
		Index:    st,
		Splitter: chunker.NewNarrativeSplitter(cfg.Knowledge.NarrativeSentences, cfg.Knowledge.NarrativeOverlap),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build knowledge base: %w", err)
	}
	return service.New(knowledge.NewHandle(base), logger), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	svc, err := buildService()
	if err != nil {
		return err
	}

	var result service.Result
	if len(setValues) > 0 {
		values := make(map[string]any, len(setValues))
		for _, kv := range setValues {
			name, raw, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --set %q, expected name=value", kv)
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				values[strings.TrimSpace(name)] = v
			} else {
				values[strings.TrimSpace(name)] = raw
			}
		}
		result, err = svc.AnalyzeValues(values, symptoms, lifestyle)
	} else {
		text, rerr := readInput(args)
		if rerr != nil {
			return rerr
		}
		result, err = svc.AnalyzeText(text, symptoms, lifestyle)
	}
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}
	svc, err := buildService()
	if err != nil {
		return err
	}
	records, diags := svc.ExtractOnly(text)
	return printJSON(map[string]any{
		"biomarkers":  records,
		"diagnostics": diags,
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := buildService()
	if err != nil {
		return err
	}
	results, err := svc.Search(strings.Join(args, " "), topK)
	if err != nil {
		return err
	}
	for i, r := range results {
		fmt.Printf("%2d. %.3f  [%s] %s\n", i+1, r.Score, r.Chunk.Source, r.Chunk.Text)
	}
	return nil
}

func runRanges(cmd *cobra.Command, args []string) error {
	svc, err := buildService()
	if err != nil {
		return err
	}
	ranges, err := svc.ReferenceRanges()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-20s %s\n", name, ranges[name].String())
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	svc, err := buildService()
	if err != nil {
		return err
	}
	stats, err := svc.Stats()
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("%d datasets, %d reference ranges, %d chunks, %s embeddings (dim %d)",
		len(stats.Datasets), stats.ReferenceRanges, stats.Chunks, stats.Embedder, stats.Dimension)
	m := tui.New(svc, summary)
	_, err = tea.NewProgram(m).Run()
	return err
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
