package export

import (
	"context"

	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/engine/graph"
	"github.com/WessleyAI/sentwindow/engine/semantic"
)

// CandidateSaver is satisfied by *graph.Store.
type CandidateSaver interface {
	SaveCandidates(ctx context.Context, src graph.Source, cands []domain.Candidate) error
}

// GraphSink records candidates in the graph under one source node.
type GraphSink struct {
	store  CandidateSaver
	source graph.Source
}

// NewGraphSink creates a sink that links every candidate to src.
func NewGraphSink(store CandidateSaver, src graph.Source) *GraphSink {
	return &GraphSink{store: store, source: src}
}

// Name implements ingest.Sink.
func (s *GraphSink) Name() string { return "neo4j" }

// Write implements ingest.Sink.
func (s *GraphSink) Write(ctx context.Context, cands []domain.Candidate) error {
	return s.store.SaveCandidates(ctx, s.source, cands)
}

// VectorIndexer is satisfied by *semantic.VectorStore.
type VectorIndexer interface {
	Index(ctx context.Context, emb semantic.Embedder, sourceID string, cands []domain.Candidate) error
}

// VectorSink embeds candidates and stores them for similarity search.
type VectorSink struct {
	store    VectorIndexer
	embedder semantic.Embedder
	sourceID string
}

// NewVectorSink creates a sink using emb to vectorize candidates.
func NewVectorSink(store VectorIndexer, emb semantic.Embedder, sourceID string) *VectorSink {
	return &VectorSink{store: store, embedder: emb, sourceID: sourceID}
}

// Name implements ingest.Sink.
func (s *VectorSink) Name() string { return "qdrant" }

// Write implements ingest.Sink.
func (s *VectorSink) Write(ctx context.Context, cands []domain.Candidate) error {
	return s.store.Index(ctx, s.embedder, s.sourceID, cands)
}
