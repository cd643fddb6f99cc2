package semantic

import (
	"context"
	"errors"
	"math"
	"testing"

	"google.golang.org/grpc"

	pb "github.com/eladbr/table-chains/go-matcher/gen/semantic"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
)

// fakeService implements pb.SemanticServiceClient in-process.
type fakeService struct {
	embedCalls    int
	matchCalls    int
	matchFailures int
	decision      string
	confidence    float32
	equivalent    bool
}

func (f *fakeService) Embed(_ context.Context, req *pb.EmbedRequest, _ ...grpc.CallOption) (*pb.EmbedResponse, error) {
	f.embedCalls++
	return &pb.EmbedResponse{Embedding: []float32{float32(len(req.Text)), 1}}, nil
}

func (f *fakeService) ValidateMatch(_ context.Context, _ *pb.ValidateMatchRequest, _ ...grpc.CallOption) (*pb.ValidateMatchResponse, error) {
	f.matchCalls++
	if f.matchFailures >= f.matchCalls {
		return nil, errors.New("unavailable")
	}
	return &pb.ValidateMatchResponse{Decision: f.decision, Confidence: f.confidence, Rationale: "r"}, nil
}

func (f *fakeService) ValidateEquivalence(_ context.Context, _ *pb.ValidateEquivalenceRequest, _ ...grpc.CallOption) (*pb.ValidateEquivalenceResponse, error) {
	return &pb.ValidateEquivalenceResponse{Equivalent: f.equivalent, Confidence: 0.9}, nil
}

func TestClient_ValidateMatch(t *testing.T) {
	svc := &fakeService{decision: "accept", confidence: 0.9}
	c := NewClientWithService(svc)

	v, err := c.ValidateMatch(context.Background(), []string{"h1"}, "h2", 0.9)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v.Decision != oracle.DecisionAccept || math.Abs(v.Confidence-0.9) > 1e-6 {
		t.Errorf("unexpected validation: %+v", v)
	}
}

// Transient failures are retried; the call succeeds once the service does.
func TestClient_RetriesTransientFailure(t *testing.T) {
	svc := &fakeService{decision: "accept", confidence: 0.9, matchFailures: 2}
	c := NewClientWithService(svc)

	v, err := c.ValidateMatch(context.Background(), nil, "h", 0.9)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if svc.matchCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", svc.matchCalls)
	}
	if v.Decision != oracle.DecisionAccept {
		t.Errorf("unexpected validation: %+v", v)
	}
}

func TestClient_ExhaustedRetriesError(t *testing.T) {
	svc := &fakeService{decision: "accept", confidence: 0.9, matchFailures: 100}
	c := NewClientWithService(svc)

	if _, err := c.ValidateMatch(context.Background(), nil, "h", 0.9); err == nil {
		t.Error("expected error after exhausted retries")
	}
}

// Unknown decision strings are not trusted.
func TestClient_MalformedDecision(t *testing.T) {
	svc := &fakeService{decision: "maybe", confidence: 0.9}
	c := NewClientWithService(svc)

	if _, err := c.ValidateMatch(context.Background(), nil, "h", 0.9); err == nil {
		t.Error("expected error for unknown decision")
	}
}

func TestClient_ValidateEquivalence(t *testing.T) {
	svc := &fakeService{equivalent: true}
	c := NewClientWithService(svc)

	eq, err := c.ValidateEquivalence(context.Background(), "a", "b")
	if err != nil || !eq {
		t.Errorf("expected positive verdict, got %v %v", eq, err)
	}
}

func TestEmbedder_CachesByContent(t *testing.T) {
	calls := 0
	e := NewEmbedder(func(_ context.Context, text string) ([]float32, error) {
		calls++
		return []float32{1, float32(len(text))}, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := e.Embed(context.Background(), "Population by age"); err != nil {
			t.Fatalf("embed: %v", err)
		}
	}
	if _, err := e.Embed(context.Background(), "Employment"); err != nil {
		t.Fatalf("embed: %v", err)
	}

	if calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", calls)
	}
	if e.Size() != 2 {
		t.Errorf("expected 2 cached entries, got %d", e.Size())
	}
}

// A response of unexpected width is discarded, not cached.
func TestEmbedder_DimensionMismatch(t *testing.T) {
	vecs := [][]float32{{1, 0}, {1, 0, 0}}
	i := 0
	e := NewEmbedder(func(_ context.Context, _ string) ([]float32, error) {
		v := vecs[i]
		i++
		return v, nil
	})

	if _, err := e.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if _, err := e.Embed(context.Background(), "second"); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if e.Size() != 1 {
		t.Errorf("mismatched embedding must not be cached (size=%d)", e.Size())
	}
}

func TestEmbedder_EmptyEmbedding(t *testing.T) {
	e := NewEmbedder(func(_ context.Context, _ string) ([]float32, error) {
		return nil, nil
	})
	if _, err := e.Embed(context.Background(), "h"); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestHashEmbed_DeterministicUnitVector(t *testing.T) {
	a1, err := HashEmbed(context.Background(), "Population by age")
	if err != nil {
		t.Fatalf("hash embed: %v", err)
	}
	a2, _ := HashEmbed(context.Background(), "Population by age")
	b, _ := HashEmbed(context.Background(), "Employment by sector")

	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("hash embedding not deterministic")
		}
	}

	var norm float64
	same := true
	for i := range a1 {
		norm += float64(a1[i]) * float64(a1[i])
		if a1[i] != b[i] {
			same = false
		}
	}
	if math.Abs(norm-1) > 1e-3 {
		t.Errorf("expected unit norm, got %v", norm)
	}
	if same {
		t.Error("different headers must hash to different vectors")
	}
}
