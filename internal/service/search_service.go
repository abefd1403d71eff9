package service

import (
	"context"
	"fmt"

	"kkj-match-go/internal/matching"
	"kkj-match-go/internal/model"
	"kkj-match-go/internal/repository"
	"kkj-match-go/pkg/embedding"
	"kkj-match-go/pkg/log"
)

// defaultSearchTopK 是检索接口的缺省返回条数。
const defaultSearchTopK = 10

// SearchService 定义了案件混合检索的业务逻辑接口。
type SearchService interface {
	SearchRfps(ctx context.Context, query string, topK int) ([]model.CandidateDTO, error)
}

type searchService struct {
	rfpRepo         repository.RfpRepository
	embeddingClient embedding.Client
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(rfpRepo repository.RfpRepository, embeddingClient embedding.Client) SearchService {
	return &searchService{rfpRepo: rfpRepo, embeddingClient: embeddingClient}
}

// SearchRfps 对案件执行混合检索：查询文本向量化后与案件嵌入做语义匹配，
// 同时对标题等字段做词面匹配，按加权合成得分返回前 topK 条。
// 向量化失败时降级为纯词面检索，而不是让整个查询报错。
func (s *searchService) SearchRfps(ctx context.Context, query string, topK int) ([]model.CandidateDTO, error) {
	if topK <= 0 {
		topK = defaultSearchTopK
	}
	log.Infof("[SearchService] 开始混合检索, query: %q, topK: %d", query, topK)

	var queryVec []float32
	vec, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Warnf("[SearchService] 查询向量化失败, 降级为纯词面检索: %v", err)
	} else {
		queryVec = vec
	}

	rfps, err := s.rfpRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("加载案件记录失败: %w", err)
	}

	candidates := matching.Rank(queryVec, query, rfps)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]model.CandidateDTO, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, model.CandidateDTO{
			RfpID:    cand.RFP.ID,
			Title:    cand.RFP.Title,
			Semantic: cand.Semantic,
			Lexical:  cand.Lexical,
			Score:    cand.Score,
		})
	}
	log.Infof("[SearchService] 混合检索完成, 命中: %d 条", len(results))
	return results, nil
}
