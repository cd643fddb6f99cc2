package semantic

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sync"
)

// #region embedder
// EmbedFunc produces an embedding for one piece of header text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Embedder memoizes embeddings by content hash. Shared across chapter
// workers, so identical headers in different chapters cost one call.
type Embedder struct {
	mu    sync.RWMutex
	cache map[[sha256.Size]byte][]float32
	embed EmbedFunc
	dim   int
}

// NewEmbedder wraps an embedding function with a process-wide cache.
func NewEmbedder(fn EmbedFunc) *Embedder {
	return &Embedder{
		cache: make(map[[sha256.Size]byte][]float32),
		embed: fn,
	}
}

// Embed returns the cached embedding for text, or fetches and caches it.
// The first successful result fixes the expected dimensionality; later
// responses of a different width are discarded as malformed.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := sha256.Sum256([]byte(text))

	e.mu.RLock()
	emb, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return emb, nil
	}

	emb, err := e.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(emb) == 0 {
		return nil, fmt.Errorf("embed %q: empty embedding", text)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dim == 0 {
		e.dim = len(emb)
	} else if len(emb) != e.dim {
		return nil, fmt.Errorf("embed %q: dimension %d, expected %d", text, len(emb), e.dim)
	}
	e.cache[key] = emb
	return emb, nil
}

// HashEmbed is the offline fallback: a deterministic unit vector derived
// from the content hash. Identical headers land on identical vectors, so
// matching degrades to exact-header continuity. Dry runs only.
func HashEmbed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	emb := make([]float32, sha256.Size)
	var norm float64
	for i, b := range sum {
		v := float32(int(b)-128) / 128
		emb[i] = v
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		emb[0] = 1
		return emb, nil
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range emb {
		emb[i] *= inv
	}
	return emb, nil
}

// Size returns how many distinct headers are cached.
func (e *Embedder) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// #endregion embedder
