// Command sentwindow extracts sentence-window candidates from a text file.
//
//	sentwindow [flags] min max input_path output_path
//
// Every unique run of consecutive sentences whose byte length falls in
// [min, max] is written to output_path, one per line, sorted ascending.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/WessleyAI/sentwindow/engine/chunk"
	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/engine/export"
	"github.com/WessleyAI/sentwindow/engine/graph"
	"github.com/WessleyAI/sentwindow/engine/ingest"
	"github.com/WessleyAI/sentwindow/engine/semantic"
	"github.com/WessleyAI/sentwindow/pkg/metrics"
	"github.com/WessleyAI/sentwindow/pkg/mid"
	"github.com/WessleyAI/sentwindow/pkg/natsutil"
	"github.com/WessleyAI/sentwindow/pkg/ollama"
)

// Config holds the parsed command line.
type Config struct {
	Bounds domain.Bounds
	Input  string
	Output string

	ChunkSize    int
	MaxChunkSize int
	LogLevel     string
	LogFormat    string
	MetricsPort  int

	NATSURL     string
	NATSSubject string
	NATSRate    float64

	Neo4jURL  string
	Neo4jUser string
	Neo4jPass string
	Neo4jDB   string

	QdrantAddr  string
	Collection  string
	OllamaURL   string
	OllamaModel string
	HashDims    int
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseConfig(args []string, stderr io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("sentwindow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: sentwindow [flags] min max input_path output_path")
		fs.PrintDefaults()
	}

	fs.IntVar(&cfg.ChunkSize, "chunk-size", domain.DefaultChunkSize, "bytes read per chunk")
	fs.IntVar(&cfg.MaxChunkSize, "max-chunk-size", chunk.DefaultMaxCapacity, "largest chunk a boundary-free sentence may grow to")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", envOr("LOG_FORMAT", "text"), "text or json")
	fs.IntVar(&cfg.MetricsPort, "metrics-port", 0, "serve /metrics on this port (0 disables)")

	fs.StringVar(&cfg.NATSURL, "nats", envOr("NATS_URL", ""), "publish candidates to this NATS server")
	fs.StringVar(&cfg.NATSSubject, "nats-subject", export.DefaultSubject, "NATS subject for candidates")
	fs.Float64Var(&cfg.NATSRate, "nats-rate", 0, "max NATS publishes per second (0 is unlimited)")

	fs.StringVar(&cfg.Neo4jURL, "neo4j", envOr("NEO4J_URL", ""), "record candidates in this Neo4j instance")
	fs.StringVar(&cfg.Neo4jDB, "neo4j-db", envOr("NEO4J_DATABASE", ""), "Neo4j database (empty for the server default)")

	fs.StringVar(&cfg.QdrantAddr, "qdrant", envOr("QDRANT_URL", ""), "index candidate vectors in this Qdrant gRPC address")
	fs.StringVar(&cfg.Collection, "collection", envOr("QDRANT_COLLECTION", "sentwindow"), "Qdrant collection name")
	fs.StringVar(&cfg.OllamaURL, "ollama", envOr("OLLAMA_URL", ""), "embed with this Ollama server instead of the hashing embedder")
	fs.StringVar(&cfg.OllamaModel, "model", "nomic-embed-text", "Ollama embedding model")
	fs.IntVar(&cfg.HashDims, "hash-dims", semantic.DefaultHashDims, "vector size of the hashing embedder")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Neo4jUser = envOr("NEO4J_USER", "neo4j")
	cfg.Neo4jPass = envOr("NEO4J_PASS", "")

	pos := fs.Args()
	if len(pos) != 4 {
		return Config{}, domain.NewValidationError("args", strings.Join(pos, " "), domain.ErrArgCount)
	}
	b, err := domain.ParseBounds(pos[0], pos[1])
	if err != nil {
		return Config{}, err
	}
	if err := domain.ValidateChunkLimits(cfg.ChunkSize, cfg.MaxChunkSize); err != nil {
		return Config{}, err
	}
	cfg.Bounds, cfg.Input, cfg.Output = b, pos[2], pos[3]
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", format)
	}
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

func realMain(args []string, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "sentwindow:", err)
		}
		return 1
	}
	logger, err := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, "sentwindow:", err)
		return 1
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("sentwindow failed", "error", err)
		return 1
	}
	return 0
}

func run(cfg Config, logger *slog.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := export.CreateFile(cfg.Output)
	if err != nil {
		return err
	}
	defer closeWith(out, &err)

	reader, err := chunk.NewReader(in, cfg.ChunkSize, chunk.WithMaxCapacity(cfg.MaxChunkSize))
	if err != nil {
		return fmt.Errorf("chunk reader: %w", err)
	}

	reg := metrics.New()
	if cfg.MetricsPort > 0 {
		shutdown := serveMetrics(cfg.MetricsPort, reg, logger)
		defer shutdown()
	}

	exp, err := openExports(ctx, cfg, logger)
	defer exp.close(ctx)
	if err != nil {
		return err
	}

	logger.Info("extracting",
		"input", cfg.Input,
		"output", cfg.Output,
		"bounds", cfg.Bounds.String(),
		"chunk_size", cfg.ChunkSize,
		"exports", len(exp.sinks),
	)

	pipeline := ingest.NewPipeline(ingest.Deps{Logger: logger, Metrics: ingest.NewMetrics(reg)})
	report, err := pipeline(ctx, ingest.Job{
		Reader:  reader,
		Bounds:  cfg.Bounds,
		Output:  out,
		Exports: exp.sinks,
	}).Unwrap()
	if err != nil {
		return err
	}
	logger.Info("output written", "path", out.Path(), "candidates", report.Candidates)

	if exp.graph != nil && report.ExportErrors["neo4j"] == nil {
		if n, err := exp.graph.CountCandidates(ctx, exp.source.ID); err != nil {
			logger.Warn("graph count failed", "error", err)
		} else {
			logger.Info("graph updated", "source_id", exp.source.ID, "linked_candidates", n)
		}
	}
	return nil
}

// closeWith closes c and reports its error through err unless err is
// already set.
func closeWith(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// exports tracks the optional secondary sinks and the resources behind them.
type exports struct {
	source graph.Source
	sinks  []ingest.Sink
	graph  *graph.Store
	closer []func(context.Context)
}

func (e *exports) close(ctx context.Context) {
	for i := len(e.closer) - 1; i >= 0; i-- {
		e.closer[i](ctx)
	}
}

// openExports connects every configured sink. A connection failure is
// returned with whatever was already opened still registered for close.
func openExports(ctx context.Context, cfg Config, logger *slog.Logger) (*exports, error) {
	e := &exports{source: graph.NewSource(cfg.Input, cfg.Bounds)}

	if cfg.NATSURL != "" {
		nc, err := natsutil.Connect(cfg.NATSURL, "sentwindow", logger)
		if err != nil {
			return e, err
		}
		e.closer = append(e.closer, func(context.Context) { nc.Close() })
		e.sinks = append(e.sinks, export.NewNATSSink(nc, export.NATSOpts{
			Subject: cfg.NATSSubject,
			Source:  e.source.ID,
			Rate:    cfg.NATSRate,
		}, logger))
		logger.Info("connected to NATS", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	}

	if cfg.Neo4jURL != "" {
		store, err := graph.Open(ctx, graph.Config{
			URI:      cfg.Neo4jURL,
			Username: cfg.Neo4jUser,
			Password: cfg.Neo4jPass,
			Database: cfg.Neo4jDB,
		})
		if err != nil {
			return e, err
		}
		e.closer = append(e.closer, func(ctx context.Context) { _ = store.Close(ctx) })
		if err := store.EnsureSchema(ctx); err != nil {
			return e, err
		}
		e.graph = store
		e.sinks = append(e.sinks, export.NewGraphSink(store, e.source))
		logger.Info("connected to Neo4j", "url", cfg.Neo4jURL)
	}

	if cfg.QdrantAddr != "" {
		vs, err := semantic.New(cfg.QdrantAddr, cfg.Collection)
		if err != nil {
			return e, err
		}
		e.closer = append(e.closer, func(context.Context) { _ = vs.Close() })
		var emb semantic.Embedder = semantic.HashEmbedder{Dims: cfg.HashDims}
		if cfg.OllamaURL != "" {
			emb = ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel)
		}
		e.sinks = append(e.sinks, export.NewVectorSink(vs, emb, e.source.ID))
		logger.Info("using Qdrant", "addr", cfg.QdrantAddr, "collection", cfg.Collection, "ollama", cfg.OllamaURL != "")
	}
	return e, nil
}

func metricsHandler(reg *metrics.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.GetHead)
	r.Use(mid.Count(reg))

	r.Get("/metrics", reg.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})

	return mid.Chain(r,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.ReadOnly(),
		mid.OTel("sentwindow"),
	)
}

// serveMetrics starts the metrics server and returns its shutdown func.
func serveMetrics(port int, reg *metrics.Registry, logger *slog.Logger) func() {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           metricsHandler(reg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
