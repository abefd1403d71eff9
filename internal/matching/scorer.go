package matching

import (
	"strings"
	"time"

	"kkj-match-go/internal/model"
)

// Scorer 对单个 (公司, 案件) 对独立计算五个打分要素。
// 字段缺失或格式异常时对应要素退化为中性/零值，绝不因单条记录报错——
// 失败被隔离在 (公司, 案件) 对级别。
type Scorer struct {
	idx *AliasIndex
}

// NewScorer 创建一个新的 Scorer 实例。
func NewScorer(idx *AliasIndex) *Scorer {
	return &Scorer{idx: idx}
}

// 必须要件的词面标记（「必須」等表示强制要求的线索词）。
// 命中后再检查标记所在短语中的需求能否被公司满足。
var mustMarkers = []string{"必須", "必ず", "不可欠", "義務", "前提", "required", "mandatory", "must"}

// neutralSkillMatch 是案件文本抽不出任何需求词时的中性默认值，
// 避免对信息稀疏的案件一律打零分。
const neutralSkillMatch = 0.5

// 地域系数：命中公司对应地域为满值，未命中只做折扣、不做硬排除；
// 需要硬排除时由调用方自行过滤。
const (
	regionFullMatch    = 1.0
	regionPartialMatch = 0.8
)

// 预算加成：范围内 +10%；范围外但在 ±20% 容差带内 +5%；其余为 0。
const (
	budgetBoostInRange = 0.10
	budgetBoostNear    = 0.05
	budgetTolerance    = 0.2
)

// 截止日加成的分段（可调策略）：随截止日临近单调增加，已过期或过于遥远为 0。
const (
	deadlineBoostUrgent = 0.05 // 7 天以内
	deadlineBoostSoon   = 0.03 // 30 天以内
	deadlineBoostFar    = 0.01 // 90 天以内
)

// Score 计算公司与案件的全部打分要素。skills 应当是已正规化的技能集合。
// 返回的 ngKeyword 非空表示案件命中了公司的排除关键词，此时技能要素强制为 0，
// 合成分数随之为 0；其余门限仍按各自定义计算。
func (s *Scorer) Score(company *model.Company, skills []string, rfp *model.RFP, now time.Time) (model.MatchFactors, string) {
	text := strings.ToLower(rfp.Title + "\n" + rfp.Description + "\n" + rfp.Certification)

	var factors model.MatchFactors
	ng := firstNGKeyword(company.NGKeywords, text)
	if ng == "" {
		factors.SkillMatch = s.skillMatch(skills, rfp)
	}
	factors.Must = s.mustRequirementOK(skills, company.Description, text)
	factors.RegionCoefficient = regionCoefficient(company.Regions, rfp.Region)
	factors.BudgetBoost = budgetBoost(company.BudgetMin, company.BudgetMax, rfp.Budget)
	factors.DeadlineBoost = deadlineBoost(rfp.Deadline, now)
	return factors, ng
}

// firstNGKeyword 返回案件文本命中的第一个排除关键词，没有命中时返回空串。
func firstNGKeyword(keywords []string, lowerText string) string {
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(lowerText, k) {
			return kw
		}
	}
	return ""
}

// skillMatch 从案件说明与资格文本中抽取需求词（辞典词表的子串命中，归并到规范名），
// 返回被公司规范技能集覆盖的比例，范围 [0,1]。抽不出需求词时返回中性默认值。
func (s *Scorer) skillMatch(skills []string, rfp *model.RFP) float64 {
	reqText := strings.ToLower(rfp.Description + "\n" + rfp.Certification)
	if strings.TrimSpace(reqText) == "" {
		return neutralSkillMatch
	}

	required := make(map[string]struct{})
	for _, term := range s.idx.Terms() {
		if strings.Contains(reqText, term) {
			canonical, _ := s.idx.Canonical(term)
			required[canonical] = struct{}{}
		}
	}
	if len(required) == 0 {
		return neutralSkillMatch
	}

	have := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		have[strings.ToLower(skill)] = struct{}{}
	}
	covered := 0
	for canonical := range required {
		if _, ok := have[strings.ToLower(canonical)]; ok {
			covered++
		}
	}

	ratio := float64(covered) / float64(len(required))
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// mustRequirementOK 判定必须要件。
// 案件文本中出现必须标记时，取标记所在的短语作为需求短语，检查公司的规范技能
//（含其全部表层形式）或公司描述能否满足；文本中没有任何标记时视为满足——
// 没有明示的强制要求不构成不合格。
func (s *Scorer) mustRequirementOK(skills []string, companyDescription, lowerText string) bool {
	desc := strings.ToLower(companyDescription)
	for _, phrase := range splitPhrases(lowerText) {
		if !hasMustMarker(phrase) {
			continue
		}
		if !s.phraseSatisfied(phrase, skills, desc) {
			return false
		}
	}
	return true
}

// splitPhrases 按句号、换行等分隔符把案件文本切分为短语。
func splitPhrases(lowerText string) []string {
	return strings.FieldsFunc(lowerText, func(r rune) bool {
		return r == '。' || r == '．' || r == '\n' || r == ';' || r == '；'
	})
}

// hasMustMarker 判断短语中是否出现必须标记。
func hasMustMarker(phrase string) bool {
	for _, marker := range mustMarkers {
		if strings.Contains(phrase, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// phraseSatisfied 判断需求短语能否被公司满足：
// 公司任一规范技能（或其别名）出现在短语中；或短语中的辞典需求词出现在公司描述中。
// 短语中抽不出任何可识别的需求词时视为满足（没有具体要求可核对）。
func (s *Scorer) phraseSatisfied(phrase string, skills []string, companyDescription string) bool {
	for _, skill := range skills {
		for _, form := range s.idx.SurfaceForms(skill) {
			if strings.Contains(phrase, strings.ToLower(form)) {
				return true
			}
		}
	}

	hasTerm := false
	for _, term := range s.idx.Terms() {
		if !strings.Contains(phrase, term) {
			continue
		}
		hasTerm = true
		if companyDescription != "" && strings.Contains(companyDescription, term) {
			return true
		}
	}
	return !hasTerm
}

// regionCoefficient 返回地域系数。
func regionCoefficient(regions []string, rfpRegion string) float64 {
	for _, r := range regions {
		if r == rfpRegion {
			return regionFullMatch
		}
	}
	return regionPartialMatch
}

// budgetBoost 返回预算加成。公司未申报预算范围、案件预算未知、
// 或预算落在容差带之外时均为 0。
func budgetBoost(min, max, budget *int64) float64 {
	if budget == nil || min == nil || max == nil {
		return 0
	}
	b := *budget
	if *min <= b && b <= *max {
		return budgetBoostInRange
	}
	lower := float64(*min) * (1 - budgetTolerance)
	upper := float64(*max) * (1 + budgetTolerance)
	if lower <= float64(b) && float64(b) <= upper {
		return budgetBoostNear
	}
	return 0
}

// deadlineBoost 返回截止日加成。截止日缺失或已过期为 0。
func deadlineBoost(deadline *time.Time, now time.Time) float64 {
	if deadline == nil {
		return 0
	}
	days := daysUntil(*deadline, now)
	switch {
	case days < 0:
		return 0
	case days <= 7:
		return deadlineBoostUrgent
	case days <= 30:
		return deadlineBoostSoon
	case days <= 90:
		return deadlineBoostFar
	default:
		return 0
	}
}

// daysUntil 按日历日计算从 now 到 deadline 的天数（同日为 0，已过期为负数）。
func daysUntil(deadline, now time.Time) int {
	dy, dm, dd := deadline.Date()
	ny, nm, nd := now.Date()
	d := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(d.Sub(n).Hours() / 24)
}
