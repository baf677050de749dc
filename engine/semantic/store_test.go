package semantic

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/WessleyAI/sentwindow/engine/domain"
)

type mockPoints struct {
	upserts []*pb.UpsertPoints
	err     error
}

func (m *mockPoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upserts = append(m.upserts, in)
	if m.err != nil {
		return nil, m.err
	}
	return &pb.PointsOperationResponse{}, nil
}

type mockCollections struct {
	existing []string
	created  []*pb.CreateCollection
	listErr  error
	lists    int
}

func (m *mockCollections) List(context.Context, *pb.ListCollectionsRequest, ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	resp := &pb.ListCollectionsResponse{}
	for _, name := range m.existing {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (m *mockCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.created = append(m.created, in)
	return &pb.CollectionOperationResponse{Result: true}, nil
}

type failingEmbedder struct{ err error }

func (f failingEmbedder) Embed(context.Context, []string) ([][]float32, error) { return nil, f.err }

type shortEmbedder struct{}

func (shortEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func candidates(n int) []domain.Candidate {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("Sentence number %d.", i)
	}
	return domain.Candidates(texts)
}

func TestEnsureCollectionExisting(t *testing.T) {
	cols := &mockCollections{existing: []string{"candidates"}}
	vs := NewWithClients(&mockPoints{}, cols, "candidates")
	if err := vs.EnsureCollection(context.Background(), 8); err != nil {
		t.Fatal(err)
	}
	if len(cols.created) != 0 {
		t.Fatal("existing collection must not be recreated")
	}
}

func TestEnsureCollectionCreates(t *testing.T) {
	cols := &mockCollections{}
	vs := NewWithClients(&mockPoints{}, cols, "candidates")
	if err := vs.EnsureCollection(context.Background(), 8); err != nil {
		t.Fatal(err)
	}
	if len(cols.created) != 1 {
		t.Fatalf("created = %d", len(cols.created))
	}
	params := cols.created[0].GetVectorsConfig().GetParams()
	if params.GetSize() != 8 || params.GetDistance() != pb.Distance_Cosine {
		t.Fatalf("unexpected params %v", params)
	}
}

func TestEnsureCollectionListError(t *testing.T) {
	boom := errors.New("unavailable")
	vs := NewWithClients(&mockPoints{}, &mockCollections{listErr: boom}, "c")
	if err := vs.EnsureCollection(context.Background(), 8); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestIndexBatchesAndPayload(t *testing.T) {
	pts := &mockPoints{}
	cols := &mockCollections{}
	vs := NewWithClients(pts, cols, "candidates")
	cands := candidates(EmbedBatchSize + 1)

	if err := vs.Index(context.Background(), HashEmbedder{Dims: 16}, "src-1", cands); err != nil {
		t.Fatal(err)
	}
	if cols.lists != 1 || len(cols.created) != 1 {
		t.Fatalf("collection ensured %d times, created %d", cols.lists, len(cols.created))
	}
	if len(pts.upserts) != 2 {
		t.Fatalf("upserts = %d, want 2", len(pts.upserts))
	}
	first := pts.upserts[0]
	if len(first.GetPoints()) != EmbedBatchSize || len(pts.upserts[1].GetPoints()) != 1 {
		t.Fatal("unexpected batch sizes")
	}
	if !first.GetWait() {
		t.Error("upsert should wait")
	}
	p := first.GetPoints()[0]
	if p.GetId().GetUuid() != cands[0].ID {
		t.Errorf("point id = %s, want %s", p.GetId().GetUuid(), cands[0].ID)
	}
	if got := p.GetPayload()["text"].GetStringValue(); got != cands[0].Text {
		t.Errorf("payload text = %q", got)
	}
	if got := p.GetPayload()["length"].GetIntegerValue(); got != int64(cands[0].Length) {
		t.Errorf("payload length = %d", got)
	}
	if got := p.GetPayload()["source_id"].GetStringValue(); got != "src-1" {
		t.Errorf("payload source_id = %q", got)
	}
}

func TestIndexEmbedError(t *testing.T) {
	boom := errors.New("model not loaded")
	pts := &mockPoints{}
	vs := NewWithClients(pts, &mockCollections{}, "c")
	if err := vs.Index(context.Background(), failingEmbedder{boom}, "s", candidates(2)); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(pts.upserts) != 0 {
		t.Fatal("nothing should be upserted")
	}
}

func TestIndexVectorCountMismatch(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{}, "c")
	if err := vs.Index(context.Background(), shortEmbedder{}, "s", candidates(2)); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestUpsertError(t *testing.T) {
	boom := errors.New("timeout")
	vs := NewWithClients(&mockPoints{err: boom}, &mockCollections{existing: []string{"c"}}, "c")
	err := vs.Index(context.Background(), HashEmbedder{}, "s", candidates(1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestUpsertEmpty(t *testing.T) {
	pts := &mockPoints{}
	vs := NewWithClients(pts, &mockCollections{}, "c")
	if err := vs.Upsert(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(pts.upserts) != 0 {
		t.Fatal("empty upsert should not call qdrant")
	}
}

func TestToValue(t *testing.T) {
	if toValue(3).GetIntegerValue() != 3 || toValue(int64(4)).GetIntegerValue() != 4 {
		t.Error("integers")
	}
	if toValue(1.5).GetDoubleValue() != 1.5 || !toValue(true).GetBoolValue() {
		t.Error("double/bool")
	}
	if toValue([]int{1}).GetStringValue() != "[1]" {
		t.Error("fallback should stringify")
	}
}

func TestCloseWithoutConn(t *testing.T) {
	if err := NewWithClients(&mockPoints{}, &mockCollections{}, "c").Close(); err != nil {
		t.Fatal(err)
	}
}
