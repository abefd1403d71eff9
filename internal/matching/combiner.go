package matching

import (
	"fmt"
	"math"
	"time"

	"kkj-match-go/internal/model"
)

// summaryLimit 是匹配理由的最大条数。
const summaryLimit = 3

// Result 是一对 (公司, 案件) 合成后的最终匹配结果。
type Result struct {
	Score         int
	MustOK        bool
	BudgetOK      bool
	RegionOK      bool
	Factors       model.MatchFactors
	SummaryPoints []string
}

// Combine 把打分要素合成为 0~100 的单一分数，并派生门限标志与匹配理由。
// combined = round(100 × skill × region × (1 + budget + deadline))，截断到 [0,100]。
// budget_ok 只有在公司申报了预算范围、案件预算已知且落在范围外时才为 false——
// 案件预算未知不构成对公司偏好的违反。
func Combine(company *model.Company, rfp *model.RFP, factors model.MatchFactors, ngKeyword string, now time.Time) Result {
	raw := 100 * factors.SkillMatch * factors.RegionCoefficient * (1 + factors.BudgetBoost + factors.DeadlineBoost)
	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	budgetOK := true
	if company.HasBudgetRange() && rfp.Budget != nil {
		budgetOK = *company.BudgetMin <= *rfp.Budget && *rfp.Budget <= *company.BudgetMax
	}
	regionOK := factors.RegionCoefficient == regionFullMatch

	return Result{
		Score:         score,
		MustOK:        factors.Must,
		BudgetOK:      budgetOK,
		RegionOK:      regionOK,
		Factors:       factors,
		SummaryPoints: summaryPoints(company, rfp, factors, regionOK, ngKeyword, now),
	}
}

// summaryPoints 生成最多 3 条面向用户的匹配理由。
// 选取顺序固定为 技能 -> 地域 -> 预算 -> 截止日；NG 关键词命中时其理由排在最前。
// 理由完全由要素确定性生成，重复运行输出一致。
func summaryPoints(company *model.Company, rfp *model.RFP, factors model.MatchFactors, regionOK bool, ngKeyword string, now time.Time) []string {
	points := make([]string, 0, summaryLimit+1)

	if ngKeyword != "" {
		points = append(points, fmt.Sprintf("NGキーワード「%s」が含まれています", ngKeyword))
	}

	percent := int(factors.SkillMatch * 100)
	switch {
	case percent >= 80:
		points = append(points, fmt.Sprintf("スキルマッチ度 %d%% (高)", percent))
	case percent >= 50:
		points = append(points, fmt.Sprintf("スキルマッチ度 %d%% (中)", percent))
	default:
		points = append(points, fmt.Sprintf("スキルマッチ度 %d%% (低)", percent))
	}

	if regionOK {
		points = append(points, "対応可能地域")
	} else {
		points = append(points, "対応可能地域外")
	}

	if company.HasBudgetRange() && rfp.Budget != nil {
		if *company.BudgetMin <= *rfp.Budget && *rfp.Budget <= *company.BudgetMax {
			points = append(points, "予算範囲内")
		} else {
			points = append(points, "予算範囲外")
		}
	}

	if rfp.Deadline != nil {
		days := daysUntil(*rfp.Deadline, now)
		switch {
		case days < 0:
			points = append(points, "締切超過")
		case days <= 7:
			points = append(points, fmt.Sprintf("締切まで%d日（緊急）", days))
		case days <= 30:
			points = append(points, fmt.Sprintf("締切まで%d日", days))
		}
	}

	if len(points) > summaryLimit {
		points = points[:summaryLimit]
	}
	return points
}
