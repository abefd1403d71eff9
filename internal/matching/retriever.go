package matching

import (
	"math"
	"sort"
	"strings"

	"kkj-match-go/internal/model"
)

// 混合检索权重：语义与词面两个独立信号按固定加权合成。
// 纯语义检索会漏掉机关名、专有技术名词等精确词面命中；纯关键词检索会漏掉
// 词面不同但语义相关的需求，因此两者互补。
const (
	semanticWeight = 0.7
	lexicalWeight  = 0.3
)

// 词面命中权重：标题命中权重最高，说明、分类、发包机关依次降低。
const (
	lexicalTitleWeight        = 1.0
	lexicalDescriptionWeight  = 0.6
	lexicalCategoryWeight     = 0.4
	lexicalOrganizationWeight = 0.2
)

// Candidate 是混合检索产生的候选案件及其得分明细。
type Candidate struct {
	RFP      *model.RFP
	Semantic float64
	Lexical  float64
	Score    float64
}

// CosineSimilarity 计算两个向量的余弦相似度，并截断到 [0,1]（浮点误差保护）。
// 维度不一致或任一向量为零向量时返回 0。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// LexicalScore 对案件的标题、说明、分类、发包机关做大小写不敏感的子串匹配。
// 查询先按空白与常见分隔符切分为词项；每个词项取命中字段的最高权重，
// 整体得分为全部词项中的最大值；没有任何命中时为 0。
func LexicalScore(query string, rfp *model.RFP) float64 {
	terms := splitQueryTerms(query)
	if len(terms) == 0 {
		return 0
	}

	title := strings.ToLower(rfp.Title)
	description := strings.ToLower(rfp.Description)
	category := strings.ToLower(rfp.Category)
	organization := strings.ToLower(rfp.Organization)

	score := 0.0
	for _, term := range terms {
		w := 0.0
		switch {
		case title != "" && strings.Contains(title, term):
			w = lexicalTitleWeight
		case description != "" && strings.Contains(description, term):
			w = lexicalDescriptionWeight
		case category != "" && strings.Contains(category, term):
			w = lexicalCategoryWeight
		case organization != "" && strings.Contains(organization, term):
			w = lexicalOrganizationWeight
		}
		if w > score {
			score = w
		}
	}
	return score
}

// splitQueryTerms 把查询文本切分为小写词项（空白、逗号、顿号分隔）。
func splitQueryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '、' || r == '，'
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

// Rank 对案件池做混合排序检索。
// 至少一个信号严格大于 0 的案件才进入候选集；两个信号都缺失的案件被排除，
// 但在不做检索收窄的全量打分路径中仍会被处理。
// 排序为合成得分降序，得分相同时按案件 ID 升序，保证重复运行产生完全一致的顺序。
func Rank(queryVec []float32, queryText string, rfps []*model.RFP) []Candidate {
	candidates := make([]Candidate, 0, len(rfps))
	for _, rfp := range rfps {
		sem := 0.0
		if rfp.HasEmbedding() && len(queryVec) > 0 {
			sem = CosineSimilarity(queryVec, rfp.Embedding)
		}
		lex := LexicalScore(queryText, rfp)
		if sem <= 0 && lex <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			RFP:      rfp,
			Semantic: sem,
			Lexical:  lex,
			Score:    semanticWeight*sem + lexicalWeight*lex,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].RFP.ID < candidates[j].RFP.ID
	})
	return candidates
}
