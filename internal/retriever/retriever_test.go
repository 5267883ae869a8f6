package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall/internal/domain"
	"recall/internal/vectorstore/memory"
)

// stubEmbedder maps text to a deterministic vector: identical text always
// embeds identically, so an exact phrase is its own nearest neighbor.
type stubEmbedder struct {
	dim int
	err error
}

func (e stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	v := make([]float32, e.dim)
	for i, r := range text {
		v[(i+int(r))%e.dim]++
	}
	return v, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e stubEmbedder) Dimension() int { return e.dim }
func (e stubEmbedder) Model() string  { return "stub" }

func seedStore(t *testing.T, emb domain.Embedder, texts ...string) *memory.Store {
	t.Helper()
	store, err := memory.NewStore(emb.Dimension())
	require.NoError(t, err)
	for i, text := range texts {
		vec, err := emb.Embed(context.Background(), text)
		require.NoError(t, err)
		_, err = store.Upsert(context.Background(), []domain.Record{
			{ID: string(rune('a' + i)), Values: vec, Metadata: map[string]any{"text": text}},
		})
		require.NoError(t, err)
	}
	return store
}

func TestRetrieveFormatsRankedContext(t *testing.T) {
	emb := stubEmbedder{dim: 8}
	store := seedStore(t, emb,
		"the data analyst agent summarizes spreadsheets",
		"completely different topic about cooking pasta",
	)
	r := NewConfigured(emb, store, nil)

	// round-trip: the exact phrase comes back as the top match
	out, err := r.Retrieve(context.Background(), "the data analyst agent summarizes spreadsheets", 2)
	require.NoError(t, err)
	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "[Score: 1.00] the data analyst agent summarizes spreadsheets", parts[0])
	assert.True(t, strings.HasPrefix(parts[1], "[Score: "))
}

func TestRetrieveEmptyIndexYieldsSentinel(t *testing.T) {
	emb := stubEmbedder{dim: 8}
	store, err := memory.NewStore(8)
	require.NoError(t, err)
	r := NewConfigured(emb, store, nil)

	out, err := r.Retrieve(context.Background(), "anything at all", 3)
	require.NoError(t, err)
	assert.Equal(t, NoResultsMessage, out)
}

func TestRetrieveDropsMatchesWithoutText(t *testing.T) {
	emb := stubEmbedder{dim: 8}
	store, err := memory.NewStore(8)
	require.NoError(t, err)
	vec, err := emb.Embed(context.Background(), "ghost")
	require.NoError(t, err)
	_, err = store.Upsert(context.Background(), []domain.Record{
		{ID: "ghost", Values: vec, Metadata: map[string]any{"source": "x.pdf"}},
	})
	require.NoError(t, err)
	r := NewConfigured(emb, store, nil)

	out, err := r.Retrieve(context.Background(), "ghost", 3)
	require.NoError(t, err)
	assert.Equal(t, NoResultsMessage, out)
}

func TestRetrieveUnrelatedQueryNeverErrors(t *testing.T) {
	emb := stubEmbedder{dim: 8}
	store := seedStore(t, emb, "quarterly revenue projections for the data team")
	r := NewConfigured(emb, store, nil)

	out, err := r.Retrieve(context.Background(), "unrelated nonsense query", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRetrieveSurfacesEmbeddingFailure(t *testing.T) {
	emb := stubEmbedder{dim: 8, err: errors.New("service down")}
	store, err := memory.NewStore(8)
	require.NoError(t, err)
	r := NewConfigured(emb, store, nil)

	_, err = r.Retrieve(context.Background(), "anything", 3)
	assert.Error(t, err)
}

func TestUnconfiguredAlwaysAnswers(t *testing.T) {
	r := Unconfigured{Reason: "index name is not set"}

	out, err := r.Retrieve(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Equal(t, NotConfiguredMessage, out)
	assert.NotEqual(t, NoResultsMessage, out, "the two sentinels must stay distinct")
}
