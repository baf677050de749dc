// Package graph records extracted candidates in Neo4j as
// (:Source)-[:YIELDS]->(:Candidate).
package graph

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/pkg/fn"
)

// BatchSize is the number of candidates written per transaction.
const BatchSize = 500

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Source identifies one extraction: an input file and the window applied to it.
type Source struct {
	ID   string
	Path string
	Min  int
	Max  int
}

// NewSource derives a stable Source ID from the absolute path and bounds.
func NewSource(path string, b domain.Bounds) Source {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	key := fmt.Sprintf("sentwindow:%s:%s", path, b)
	return Source{
		ID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String(),
		Path: path,
		Min:  b.Min,
		Max:  b.Max,
	}
}

// Store owns all Neo4j writes.
type Store struct {
	opener SessionOpener
	closer func(context.Context) error
}

// Open connects to Neo4j and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: connect %s: %w", cfg.URI, err)
	}
	return &Store{
		opener: driverOpener{driver: driver, database: cfg.Database},
		closer: driver.Close,
	}, nil
}

// NewWithOpener creates a Store over an arbitrary session source.
func NewWithOpener(o SessionOpener) *Store {
	return &Store{opener: o}
}

// Close releases the driver, if the store owns one.
func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

// EnsureSchema creates the uniqueness constraints MERGE relies on.
func (s *Store) EnsureSchema(ctx context.Context) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	for _, cypher := range []string{
		`CREATE CONSTRAINT candidate_id IF NOT EXISTS FOR (c:Candidate) REQUIRE c.id IS UNIQUE`,
		`CREATE CONSTRAINT source_id IF NOT EXISTS FOR (s:Source) REQUIRE s.id IS UNIQUE`,
	} {
		if _, err := sess.Run(ctx, cypher, nil); err != nil {
			return fmt.Errorf("graph: ensure schema: %w", err)
		}
	}
	return nil
}

const saveSource = `MERGE (s:Source {id: $id})
SET s.path = $path, s.min = $min, s.max = $max`

const saveCandidates = `MATCH (s:Source {id: $source})
UNWIND $rows AS row
MERGE (c:Candidate {id: row.id})
SET c.text = row.text, c.length = row.length
MERGE (s)-[:YIELDS]->(c)`

// SaveCandidates merges src and links every candidate to it. Each batch of
// BatchSize candidates is one write transaction.
func (s *Store) SaveCandidates(ctx context.Context, src Source, cands []domain.Candidate) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		_, err := tx.Run(ctx, saveSource, map[string]any{
			"id": src.ID, "path": src.Path, "min": src.Min, "max": src.Max,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: save source %s: %w", src.ID, err)
	}

	for i, batch := range fn.Chunk(cands, BatchSize) {
		rows := fn.Map(batch, candidateRow)
		_, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
			_, err := tx.Run(ctx, saveCandidates, map[string]any{"source": src.ID, "rows": rows})
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("graph: save batch %d (%d candidates): %w", i, len(batch), err)
		}
	}
	return nil
}

// CountCandidates returns how many candidates are linked to the source.
func (s *Store) CountCandidates(ctx context.Context, sourceID string) (int64, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx,
		`MATCH (:Source {id: $id})-[:YIELDS]->(c:Candidate) RETURN count(c) AS n`,
		map[string]any{"id": sourceID})
	if err != nil {
		return 0, fmt.Errorf("graph: count candidates: %w", err)
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return 0, fmt.Errorf("graph: count candidates: %w", err)
		}
		return 0, nil
	}
	n, _, err := neo4j.GetRecordValue[int64](res.Record(), "n")
	if err != nil {
		return 0, fmt.Errorf("graph: count candidates: %w", err)
	}
	return n, nil
}

func candidateRow(c domain.Candidate) map[string]any {
	return map[string]any{"id": c.ID, "text": c.Text, "length": c.Length}
}
