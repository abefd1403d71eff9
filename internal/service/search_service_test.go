package service

import (
	"context"
	"errors"
	"testing"

	"kkj-match-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbeddingClient struct {
	vec []float32
	err error
}

func (c *stubEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func TestSearchServiceSearchRfps(t *testing.T) {
	rfpRepo := &stubRfpRepo{rfps: []*model.RFP{
		{ID: "r1", Title: "Webシステム開発", Embedding: model.Vector{1, 0}},
		{ID: "r2", Title: "道路舗装工事", Embedding: model.Vector{0, 1}},
		{ID: "r3", Title: "清掃業務"},
	}}

	t.Run("hybrid search ranks by combined score", func(t *testing.T) {
		svc := NewSearchService(rfpRepo, &stubEmbeddingClient{vec: []float32{1, 0}})

		results, err := svc.SearchRfps(context.Background(), "web", 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "r1", results[0].RfpID)
		assert.InDelta(t, 1.0, results[0].Semantic, 1e-9)
		assert.Equal(t, 1.0, results[0].Lexical)
	})

	t.Run("embedding failure falls back to lexical search", func(t *testing.T) {
		svc := NewSearchService(rfpRepo, &stubEmbeddingClient{err: errors.New("unavailable")})

		results, err := svc.SearchRfps(context.Background(), "清掃", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "r3", results[0].RfpID)
		assert.Equal(t, 0.0, results[0].Semantic)
	})

	t.Run("topK truncates the candidate list", func(t *testing.T) {
		svc := NewSearchService(rfpRepo, &stubEmbeddingClient{vec: []float32{1, 1}})

		results, err := svc.SearchRfps(context.Background(), "業務 工事 開発", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}
